package visualizer

// View is the render model of one visualizer: title, lens tabs and exactly
// one populated lens section.
type View struct {
	Title  string     `json:"title"`
	Active ViewKind   `json:"active"`
	Tabs   []Tab      `json:"tabs"`
	Rows   int        `json:"rows"`
	Table  *TableView `json:"table,omitempty"`
	Pie    *PieView   `json:"pie,omitempty"`
	Bar    *BarView   `json:"bar,omitempty"`
}

type Tab struct {
	Kind   ViewKind `json:"kind"`
	Label  string   `json:"label"`
	Active bool     `json:"active"`
}

type TableView struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Pie geometry is expressed in a square viewBox of side PieSize.
const (
	PieSize   = 300.0
	pieRadius = 120.0
)

type PieView struct {
	Size   float64 `json:"size"`
	Total  float64 `json:"total"`
	Slices []Slice `json:"slices"`
}

type Slice struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
	Tooltip string  `json:"tooltip"`
	Path    string  `json:"path,omitempty"`
}

// Bar geometry is expressed in a viewBox of BarWidth x BarHeight.
const (
	BarWidth  = 600.0
	BarHeight = 300.0
)

type BarView struct {
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Max        float64       `json:"max"`
	Series     []string      `json:"series"`
	Categories []BarCategory `json:"categories"`
}

type BarCategory struct {
	Label  string       `json:"label"`
	LabelX float64      `json:"labelX"`
	Bars   []BarSegment `json:"bars"`
}

type BarSegment struct {
	Series  string  `json:"series"`
	Value   float64 `json:"value"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Tooltip string  `json:"tooltip"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
}
