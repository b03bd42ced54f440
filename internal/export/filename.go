package export

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"workshop-web/internal/models"
)

// SupportedFormats are the binary formats the backend can produce.
var SupportedFormats = []models.Format{models.FormatPDF, models.FormatExcel, models.FormatCSV}

var extensions = map[models.Format]string{
	models.FormatPDF:   "pdf",
	models.FormatExcel: "xlsx",
	models.FormatCSV:   "csv",
}

var contentTypes = map[models.Format]string{
	models.FormatPDF:   "application/pdf",
	models.FormatExcel: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	models.FormatCSV:   "text/csv",
}

// FilterFormats keeps the supported formats from offered, in order, without
// duplicates. Matching is case-insensitive.
func FilterFormats(offered []string) []models.Format {
	out := make([]models.Format, 0, len(SupportedFormats))
	seen := make(map[models.Format]bool)
	for _, raw := range offered {
		f := models.Format(strings.ToUpper(strings.TrimSpace(raw)))
		if _, ok := extensions[f]; !ok || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Extension returns the file extension for a format, without the dot.
func Extension(f models.Format) string {
	if ext, ok := extensions[f]; ok {
		return ext
	}
	return strings.ToLower(string(f))
}

// DefaultFilename is used when the server does not name the file.
func DefaultFilename(reportType models.ReportType, format models.Format, now time.Time) string {
	return fmt.Sprintf("%s_report_%s.%s", reportType.Slug(), now.Format("2006-01-02"), Extension(format))
}

// ResolveFilename prefers the server-provided name from Content-Disposition
// (filename* over filename) and otherwise falls back to DefaultFilename.
func ResolveFilename(disposition string, reportType models.ReportType, format models.Format, now time.Time) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := sanitize(params["filename"]); name != "" {
				return name
			}
		}
	}
	return DefaultFilename(reportType, format, now)
}

func sanitize(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// ContentType falls back to the format's MIME type when the server omits it.
func ContentType(served string, format models.Format) string {
	if served != "" {
		return served
	}
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}
