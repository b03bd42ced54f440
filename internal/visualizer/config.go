package visualizer

import (
	"fmt"
	"strings"

	"workshop-web/internal/models"
)

// ViewKind names one lens over a dataset.
type ViewKind string

const (
	ViewTable ViewKind = "table"
	ViewPie   ViewKind = "pie"
	ViewBar   ViewKind = "bar"
)

func ParseViewKind(s string) (ViewKind, bool) {
	switch k := ViewKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ViewTable, ViewPie, ViewBar:
		return k, true
	}
	return "", false
}

func (k ViewKind) Label() string {
	switch k {
	case ViewTable:
		return "Table"
	case ViewPie:
		return "Pie Chart"
	case ViewBar:
		return "Bar Chart"
	}
	return string(k)
}

// RenderFunc computes a column's display value. It receives the full dataset
// so cells can depend on other rows (shares of a total and the like).
type RenderFunc func(row models.Record, data models.Dataset) any

type Column struct {
	Header   string
	Accessor string
	Render   RenderFunc
}

type TableConfig struct {
	Columns []Column
}

type PieConfig struct {
	DataKey string
	NameKey string
}

type BarSeries struct {
	DataKey string
	Name    string
}

type BarConfig struct {
	XAxisKey string
	Bars     []BarSeries
}

// ViewConfig describes how to present a dataset, one optional section per
// lens. It is static per screen and never mutated.
type ViewConfig struct {
	Table            *TableConfig
	Pie              *PieConfig
	Bar              *BarConfig
	TooltipFormatter func(value any) string
}

// Validate reports configuration gaps for the given lenses. Rendering does
// not depend on it; a lens that fails here simply renders nothing.
func (c ViewConfig) Validate(views ...ViewKind) error {
	for _, kind := range views {
		if resolveLens(kind, c) == nil {
			return fmt.Errorf("view config has no usable %s section", kind)
		}
	}
	return nil
}
