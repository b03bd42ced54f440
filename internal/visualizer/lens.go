package visualizer

import (
	"fmt"
	"math"
	"strconv"

	"workshop-web/internal/models"
)

type lens interface {
	apply(view *View, data models.Dataset, tooltip func(any) string)
}

// resolveLens is the single place that decides whether a lens can render.
// A missing or malformed section yields nil, which renders nothing.
func resolveLens(kind ViewKind, cfg ViewConfig) lens {
	switch kind {
	case ViewTable:
		if cfg.Table == nil || len(cfg.Table.Columns) == 0 {
			return nil
		}
		return tableLens{cfg: cfg.Table}
	case ViewPie:
		if cfg.Pie == nil || cfg.Pie.DataKey == "" || cfg.Pie.NameKey == "" {
			return nil
		}
		return pieLens{cfg: cfg.Pie}
	case ViewBar:
		if cfg.Bar == nil || cfg.Bar.XAxisKey == "" {
			return nil
		}
		series := make([]BarSeries, 0, len(cfg.Bar.Bars))
		for _, s := range cfg.Bar.Bars {
			if s.DataKey != "" {
				series = append(series, s)
			}
		}
		if len(series) == 0 {
			return nil
		}
		return barLens{xAxisKey: cfg.Bar.XAxisKey, series: series}
	}
	return nil
}

type tableLens struct {
	cfg *TableConfig
}

func (l tableLens) apply(view *View, data models.Dataset, _ func(any) string) {
	table := &TableView{
		Headers: make([]string, len(l.cfg.Columns)),
		Rows:    make([][]string, 0, len(data)),
	}
	for i, col := range l.cfg.Columns {
		table.Headers[i] = col.Header
	}

	for _, row := range data {
		cells := make([]string, len(l.cfg.Columns))
		for i, col := range l.cfg.Columns {
			var value any
			if col.Render != nil {
				value = col.Render(row, data)
			} else {
				value, _ = row.Get(col.Accessor)
			}
			cells[i] = CellText(value)
		}
		table.Rows = append(table.Rows, cells)
	}

	view.Table = table
}

type pieLens struct {
	cfg *PieConfig
}

func (l pieLens) apply(view *View, data models.Dataset, tooltip func(any) string) {
	pie := &PieView{
		Size:   PieSize,
		Slices: make([]Slice, 0, len(data)),
	}

	for i, row := range data {
		raw, _ := row.Get(l.cfg.DataKey)
		value, _ := models.ToFloat(raw)
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			value = 0
		}
		label, _ := row.Get(l.cfg.NameKey)

		pie.Total += value
		pie.Slices = append(pie.Slices, Slice{
			Label:   CellText(label),
			Value:   value,
			Color:   ColorAt(i),
			Tooltip: tooltip(raw),
		})
	}

	if pie.Total > 0 {
		start := 0.0
		for i := range pie.Slices {
			fraction := pie.Slices[i].Value / pie.Total
			pie.Slices[i].Percent = fraction * 100
			pie.Slices[i].Path = arcPath(start, fraction)
			start += fraction
		}
	}

	view.Pie = pie
}

// arcPath draws one slice starting at fraction start (0 at 12 o'clock,
// clockwise) spanning fraction of the circle.
func arcPath(start, fraction float64) string {
	if fraction <= 0 {
		return ""
	}
	c := PieSize / 2
	r := pieRadius
	if fraction >= 0.9999 {
		return fmt.Sprintf("M %s %s m -%s 0 a %s %s 0 1 0 %s 0 a %s %s 0 1 0 -%s 0 Z",
			num(c), num(c), num(r), num(r), num(r), num(2*r), num(r), num(r), num(2*r))
	}

	a0 := 2*math.Pi*start - math.Pi/2
	a1 := 2*math.Pi*(start+fraction) - math.Pi/2
	x0, y0 := c+r*math.Cos(a0), c+r*math.Sin(a0)
	x1, y1 := c+r*math.Cos(a1), c+r*math.Sin(a1)
	large := 0
	if fraction > 0.5 {
		large = 1
	}
	return fmt.Sprintf("M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
		num(c), num(c), num(x0), num(y0), num(r), num(r), large, num(x1), num(y1))
}

type barLens struct {
	xAxisKey string
	series   []BarSeries
}

func (l barLens) apply(view *View, data models.Dataset, tooltip func(any) string) {
	bar := &BarView{
		Width:      BarWidth,
		Height:     BarHeight,
		Series:     make([]string, len(l.series)),
		Categories: make([]BarCategory, 0, len(data)),
	}
	for i, s := range l.series {
		bar.Series[i] = s.Name
		if s.Name == "" {
			bar.Series[i] = s.DataKey
		}
	}

	for _, row := range data {
		for _, s := range l.series {
			if v, ok := row.Number(s.DataKey); ok && v > bar.Max {
				bar.Max = v
			}
		}
	}

	groupWidth := BarWidth / float64(len(data))
	barWidth := groupWidth * 0.8 / float64(len(l.series))

	for i, row := range data {
		label, _ := row.Get(l.xAxisKey)
		groupX := float64(i) * groupWidth
		category := BarCategory{
			Label:  CellText(label),
			LabelX: round2(groupX + groupWidth/2),
			Bars:   make([]BarSegment, 0, len(l.series)),
		}

		for j, s := range l.series {
			raw, _ := row.Get(s.DataKey)
			value, _ := models.ToFloat(raw)
			h := 0.0
			if bar.Max > 0 && value > 0 {
				h = value / bar.Max * BarHeight
			}
			category.Bars = append(category.Bars, BarSegment{
				Series:  bar.Series[j],
				Value:   value,
				Color:   ColorAt(i),
				Opacity: seriesOpacity(j),
				Tooltip: tooltip(raw),
				X:       round2(groupX + groupWidth*0.1 + float64(j)*barWidth),
				Y:       round2(BarHeight - h),
				W:       round2(barWidth),
				H:       round2(h),
			})
		}
		bar.Categories = append(bar.Categories, category)
	}

	view.Bar = bar
}

// seriesOpacity distinguishes series that share a positional color.
func seriesOpacity(j int) float64 {
	o := 1.0 - 0.25*float64(j)
	if o < 0.4 {
		return 0.4
	}
	return o
}

// CellText renders a value verbatim; nil becomes an empty cell.
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func num(f float64) string {
	return strconv.FormatFloat(round2(f), 'f', -1, 64)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
