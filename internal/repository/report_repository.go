package repository

import (
	"context"
	"fmt"
	"net/http"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/models"
)

type ReportRepository struct {
	client *apiclient.Client
}

func NewReportRepository(client *apiclient.Client) *ReportRepository {
	return &ReportRepository{client: client}
}

// Generate posts criteria to the report endpoint for its type and decodes
// the aggregate into out. A success:false envelope is returned as a
// *apiclient.BusinessError.
func (r *ReportRepository) Generate(ctx context.Context, criteria models.ReportCriteria, out interface{}) error {
	path := fmt.Sprintf("/reports/%s", criteria.ReportType.Slug())
	env, err := r.client.Request(ctx, http.MethodPost, path, criteria.Normalized())
	if err != nil {
		return err
	}
	if err := env.Err(); err != nil {
		return err
	}
	return env.Decode(out)
}

// Export fetches the binary rendition of a report.
func (r *ReportRepository) Export(ctx context.Context, req models.ExportRequest) (*apiclient.Blob, error) {
	return r.client.Download(ctx, http.MethodPost, "/reports/export", req)
}
