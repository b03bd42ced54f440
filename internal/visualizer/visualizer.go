package visualizer

import (
	"workshop-web/internal/models"
)

// Visualizer presents one dataset through one active lens at a time. A new
// dataset gets a new Visualizer, so the active lens never carries over.
type Visualizer struct {
	title  string
	data   models.Dataset
	views  []ViewKind
	config ViewConfig
	active ViewKind
}

// New builds a visualizer. Unknown or duplicate views are dropped; with no
// views left the table lens is used.
func New(title string, data models.Dataset, views []ViewKind, config ViewConfig) *Visualizer {
	seen := make(map[ViewKind]bool, len(views))
	filtered := make([]ViewKind, 0, len(views))
	for _, v := range views {
		if _, ok := ParseViewKind(string(v)); !ok || seen[v] {
			continue
		}
		seen[v] = true
		filtered = append(filtered, v)
	}
	if len(filtered) == 0 {
		filtered = []ViewKind{ViewTable}
	}

	return &Visualizer{
		title:  title,
		data:   data,
		views:  filtered,
		config: config,
		active: filtered[0],
	}
}

func (v *Visualizer) Title() string {
	return v.title
}

func (v *Visualizer) Active() ViewKind {
	return v.active
}

func (v *Visualizer) Views() []ViewKind {
	out := make([]ViewKind, len(v.views))
	copy(out, v.views)
	return out
}

func (v *Visualizer) Data() models.Dataset {
	return v.data
}

func (v *Visualizer) Config() ViewConfig {
	return v.config
}

// SetActive switches lens. Kinds not offered by this visualizer are ignored.
func (v *Visualizer) SetActive(kind ViewKind) bool {
	for _, k := range v.views {
		if k == kind {
			v.active = kind
			return true
		}
	}
	return false
}

// Render returns nil for an empty dataset and for an active lens whose
// configuration does not resolve. A panicking render function also yields
// nil rather than taking the page down.
func (v *Visualizer) Render() (view *View) {
	if v == nil || v.data.Empty() {
		return nil
	}

	l := resolveLens(v.active, v.config)
	if l == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			view = nil
		}
	}()

	view = &View{
		Title:  v.title,
		Active: v.active,
		Rows:   len(v.data),
		Tabs:   make([]Tab, 0, len(v.views)),
	}
	for _, k := range v.views {
		view.Tabs = append(view.Tabs, Tab{Kind: k, Label: k.Label(), Active: k == v.active})
	}

	l.apply(view, v.data, v.tooltip)
	return view
}

func (v *Visualizer) tooltip(value any) string {
	if v.config.TooltipFormatter != nil {
		return v.config.TooltipFormatter(value)
	}
	return CellText(value)
}
