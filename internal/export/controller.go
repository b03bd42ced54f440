package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/models"
	"workshop-web/internal/utils"

	"github.com/sirupsen/logrus"
)

var (
	ErrExportInProgress  = errors.New("an export is already in progress")
	ErrFormatUnavailable = errors.New("export format is not available")
)

// Exporter calls the backend export endpoint.
type Exporter interface {
	Export(ctx context.Context, req models.ExportRequest) (*apiclient.Blob, error)
}

// Result is handed straight to the browser as an attachment.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
	Format      models.Format
}

// Controller runs at most one export at a time for one screen.
type Controller struct {
	key      string
	exporter Exporter
	guard    Guard
	formats  []models.Format
	now      func() time.Time
	logger   *logrus.Entry
}

func NewController(key string, exporter Exporter, guard Guard, formats []string) *Controller {
	return &Controller{
		key:      key,
		exporter: exporter,
		guard:    guard,
		formats:  FilterFormats(formats),
		now:      time.Now,
		logger:   utils.Component("export").WithField("screen", key),
	}
}

func (c *Controller) Formats() []models.Format {
	out := make([]models.Format, len(c.formats))
	copy(out, c.formats)
	return out
}

func (c *Controller) Offers(format models.Format) bool {
	for _, f := range c.formats {
		if f == format {
			return true
		}
	}
	return false
}

// Exporting reports the format currently in flight, if any.
func (c *Controller) Exporting(ctx context.Context) (models.Format, bool) {
	format, ok, err := c.guard.Current(ctx, c.key)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read export flag")
		return "", false
	}
	return format, ok
}

// Export requests the report in format using criteria. While an export is
// in flight further calls fail with ErrExportInProgress without reaching
// the backend.
func (c *Controller) Export(ctx context.Context, criteria models.ReportCriteria, format models.Format) (*Result, error) {
	if !c.Offers(format) {
		return nil, ErrFormatUnavailable
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	lease, err := c.guard.Acquire(ctx, c.key, format)
	if err != nil {
		return nil, err
	}
	if lease == "" {
		return nil, ErrExportInProgress
	}
	defer func() {
		if err := c.guard.Release(context.WithoutCancel(ctx), c.key, lease); err != nil {
			c.logger.WithError(err).Error("Failed to release export flag")
		}
	}()

	req := models.NewExportRequest(criteria, format)
	blob, err := c.exporter.Export(ctx, req)
	if err != nil {
		c.logger.WithError(err).WithField("format", format).Warn("Export failed")
		return nil, fmt.Errorf("export %s %s: %w", criteria.ReportType.Slug(), Extension(format), err)
	}

	result := &Result{
		Data:        blob.Data,
		Filename:    ResolveFilename(blob.ContentDisposition, criteria.ReportType, format, c.now()),
		ContentType: ContentType(blob.ContentType, format),
		Format:      format,
	}
	c.logger.WithFields(logrus.Fields{
		"format":   format,
		"filename": result.Filename,
		"bytes":    len(result.Data),
	}).Info("Export completed")

	return result, nil
}
