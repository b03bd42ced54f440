package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/export"
	"workshop-web/internal/models"
	"workshop-web/internal/visualizer"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownReport = errors.New("unknown report type")
	ErrUnknownPanel  = errors.New("unknown report panel")
	ErrNoData        = errors.New("report has no data yet")
	// ErrSuperseded is returned by a Generate whose result was dropped
	// because a newer Generate started after it.
	ErrSuperseded = errors.New("report generation superseded by a newer request")
)

// ReportSource fetches report aggregates from the backend.
type ReportSource interface {
	Generate(ctx context.Context, criteria models.ReportCriteria, out interface{}) error
}

// ReportBackend is everything a screen needs from the backend.
type ReportBackend interface {
	ReportSource
	export.Exporter
}

type ScreenState string

const (
	StateIdle       ScreenState = "idle"
	StateGenerating ScreenState = "generating"
	StatePopulated  ScreenState = "populated"
	StateFailed     ScreenState = "failed"
)

type panel struct {
	spec panelSpec
	viz  *visualizer.Visualizer
}

// Screen holds one report screen for one browser session: the criteria,
// the last successful generation and the export controller.
type Screen struct {
	mu sync.Mutex

	def      definition
	source   ReportSource
	exporter *export.Controller
	logger   *logrus.Entry
	now      func() time.Time

	state       ScreenState
	criteria    models.ReportCriteria
	generation  uint64
	message     string
	cards       []Card
	panels      []*panel
	generatedAt time.Time
	lastActive  time.Time
}

func NewScreen(rt models.ReportType, source ReportSource, exporter *export.Controller, logger *logrus.Logger) (*Screen, error) {
	def, ok := definitions[rt]
	if !ok {
		return nil, ErrUnknownReport
	}

	s := &Screen{
		def:      def,
		source:   source,
		exporter: exporter,
		logger:   logger.WithField("report", rt),
		now:      time.Now,
		state:    StateIdle,
		criteria: models.DefaultCriteria(rt),
	}
	s.lastActive = s.now()
	return s, nil
}

func (s *Screen) ReportType() models.ReportType {
	return s.def.reportType
}

func (s *Screen) State() ScreenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Screen) Criteria() models.ReportCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// LastActive is the last time the screen was read or written.
func (s *Screen) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Generate validates criteria, fetches the report and replaces every panel
// with a fresh visualizer. Invalid criteria never reach the backend. When
// several calls overlap only the most recent one applies its result; older
// ones return ErrSuperseded. A failure keeps the previous panels.
func (s *Screen) Generate(ctx context.Context, criteria models.ReportCriteria) error {
	criteria.ReportType = s.def.reportType
	if err := criteria.Validate(); err != nil {
		s.mu.Lock()
		s.criteria = criteria
		s.lastActive = s.now()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.criteria = criteria
	s.state = StateGenerating
	s.message = ""
	s.lastActive = s.now()
	s.mu.Unlock()

	result, err := s.def.load(ctx, s.source, criteria.Normalized())

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.WithField("generation", gen).Debug("Dropping superseded report result")
		return ErrSuperseded
	}

	if err != nil {
		s.state = StateFailed
		s.message = apiclient.UserMessage(err)
		s.logger.WithError(err).Warn("Report generation failed")
		return err
	}

	panels := make([]*panel, 0, len(s.def.panels))
	for _, spec := range s.def.panels {
		panels = append(panels, &panel{
			spec: spec,
			viz:  visualizer.New(spec.title, result.data[spec.id], spec.views, spec.config),
		})
	}
	s.panels = panels
	s.cards = result.cards
	s.state = StatePopulated
	s.generatedAt = s.now()
	s.logger.WithField("generation", gen).Info("Report generated")
	return nil
}

// SetLens switches the active lens of one panel. Unknown lenses are ignored.
func (s *Screen) SetLens(panelID string, kind visualizer.ViewKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()

	p := s.panel(panelID)
	if p == nil {
		return ErrUnknownPanel
	}
	p.viz.SetActive(kind)
	return nil
}

func (s *Screen) panel(id string) *panel {
	for _, p := range s.panels {
		if p.spec.id == id {
			return p
		}
	}
	return nil
}

// Export runs the export controller against the current criteria.
func (s *Screen) Export(ctx context.Context, format models.Format) (*export.Result, error) {
	criteria := s.Criteria()
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
	return s.exporter.Export(ctx, criteria, format)
}

// TableWorkbook renders a panel's table lens, regardless of the active lens,
// to an XLSX workbook. The cells are the rendered text shown on screen.
func (s *Screen) TableWorkbook(panelID string) ([]byte, string, error) {
	s.mu.Lock()
	p := s.panel(panelID)
	generatedAt := s.generatedAt
	s.lastActive = s.now()
	s.mu.Unlock()

	if p == nil {
		if s.hasSpec(panelID) {
			return nil, "", ErrNoData
		}
		return nil, "", ErrUnknownPanel
	}

	table := visualizer.New(p.spec.title, p.viz.Data(), []visualizer.ViewKind{visualizer.ViewTable}, p.spec.config).Render()
	if table == nil || table.Table == nil {
		return nil, "", ErrNoData
	}

	data, err := BuildTableWorkbook(p.spec.title, table.Table)
	if err != nil {
		return nil, "", err
	}
	filename := s.def.reportType.Slug() + "_" + p.spec.id + "_" + generatedAt.Format("2006-01-02") + ".xlsx"
	return data, filename, nil
}

func (s *Screen) hasSpec(id string) bool {
	for _, spec := range s.def.panels {
		if spec.id == id {
			return true
		}
	}
	return false
}

// PanelView is one rendered panel. View is nil when the dataset is empty
// or the active lens cannot render.
type PanelView struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	View  *visualizer.View `json:"view"`
}

// Snapshot is everything a template needs to draw the screen.
type Snapshot struct {
	ReportType  models.ReportType     `json:"reportType"`
	Title       string                `json:"title"`
	State       ScreenState           `json:"state"`
	Criteria    models.ReportCriteria `json:"criteria"`
	Message     string                `json:"message,omitempty"`
	Cards       []Card                `json:"cards"`
	Panels      []PanelView           `json:"panels"`
	Formats     []models.Format       `json:"formats"`
	Exporting   models.Format         `json:"exporting,omitempty"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

func (s *Screen) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ReportType:  s.def.reportType,
		Title:       s.def.title,
		State:       s.state,
		Criteria:    s.criteria,
		Message:     s.message,
		Cards:       append([]Card(nil), s.cards...),
		Panels:      make([]PanelView, 0, len(s.panels)),
		GeneratedAt: s.generatedAt,
	}
	for _, p := range s.panels {
		snap.Panels = append(snap.Panels, PanelView{
			ID:    p.spec.id,
			Title: p.spec.title,
			View:  p.viz.Render(),
		})
	}
	s.lastActive = s.now()
	s.mu.Unlock()

	if s.exporter != nil {
		snap.Formats = s.exporter.Formats()
		if format, busy := s.exporter.Exporting(ctx); busy {
			snap.Exporting = format
		}
	}
	return snap
}
