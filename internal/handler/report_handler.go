package handler

import (
	"errors"
	"strconv"
	"strings"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/export"
	"workshop-web/internal/middleware"
	"workshop-web/internal/models"
	"workshop-web/internal/service"
	"workshop-web/internal/utils"
	"workshop-web/internal/visualizer"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	screens *service.ScreenRegistry
}

func NewReportHandler(screens *service.ScreenRegistry) *ReportHandler {
	return &ReportHandler{screens: screens}
}

func (h *ReportHandler) screen(c *fiber.Ctx) (*service.Screen, error) {
	rt, ok := models.ParseReportType(c.Params("type"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "Report not found")
	}
	s, err := h.screens.Get(middleware.SessionID(c), rt)
	if errors.Is(err, service.ErrUnknownReport) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Report not found")
	}
	return s, err
}

// criteriaForm is the generate form as posted by the browser or as JSON.
type criteriaForm struct {
	TimePeriod string `form:"timePeriod" json:"timePeriod"`
	StartDate  string `form:"startDate" json:"startDate"`
	EndDate    string `form:"endDate" json:"endDate"`
	MechanicID string `form:"mechanicId" json:"mechanicId"`
	CustomerID string `form:"customerId" json:"customerId"`
}

func (f criteriaForm) criteria(rt models.ReportType) (models.ReportCriteria, error) {
	c := models.DefaultCriteria(rt)
	if p := strings.TrimSpace(f.TimePeriod); p != "" {
		c.TimePeriod = models.TimePeriod(strings.ToUpper(p))
	}

	dates := []struct {
		field string
		raw   string
		dst   **models.Date
	}{
		{"startDate", f.StartDate, &c.StartDate},
		{"endDate", f.EndDate, &c.EndDate},
	}
	for _, d := range dates {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		parsed, err := models.ParseDate(d.raw)
		if err != nil {
			return c, &models.ValidationError{Field: d.field, Message: err.Error()}
		}
		*d.dst = &parsed
	}

	ids := []struct {
		field string
		raw   string
		dst   **int
	}{
		{"mechanicId", f.MechanicID, &c.MechanicID},
		{"customerId", f.CustomerID, &c.CustomerID},
	}
	for _, id := range ids {
		if strings.TrimSpace(id.raw) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(id.raw))
		if err != nil {
			return c, &models.ValidationError{Field: id.field, Message: id.field + " must be a number"}
		}
		*id.dst = &n
	}
	return c, nil
}

func (h *ReportHandler) Index(c *fiber.Ctx) error {
	return c.Redirect("/reports/" + service.ReportTypes[0].Slug())
}

func (h *ReportHandler) respond(c *fiber.Ctx, status int, s *service.Screen, validation string) error {
	snap := s.Snapshot(c.UserContext())
	if utils.WantsJSON(c) {
		if validation != "" {
			return utils.ErrorResponse(c, status, validation, nil)
		}
		if snap.State == service.StateFailed {
			return c.Status(status).JSON(utils.Response{Success: false, Message: snap.Message, Data: snap})
		}
		return c.Status(status).JSON(utils.Response{Success: true, Data: snap})
	}

	return c.Status(status).Render("reports/show", page(c, snap.Title, snap.ReportType, fiber.Map{
		"Report":          snap,
		"Slug":            snap.ReportType.Slug(),
		"Periods":         models.TimePeriods,
		"ValidationError": validation,
		"ShowMechanic":    snap.ReportType == models.ReportMechanic,
		"ShowCustomer":    snap.ReportType == models.ReportCustomer,
	}), layout)
}

func (h *ReportHandler) Show(c *fiber.Ctx) error {
	s, err := h.screen(c)
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusOK, s, "")
}

// Generate runs the report for the posted criteria.
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	s, err := h.screen(c)
	if err != nil {
		return err
	}

	var form criteriaForm
	if err := c.BodyParser(&form); err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	criteria, err := form.criteria(s.ReportType())
	if err == nil {
		err = s.Generate(c.UserContext(), criteria)
	}

	var verr *models.ValidationError
	switch {
	case err == nil, errors.Is(err, service.ErrSuperseded):
		return h.respond(c, fiber.StatusOK, s, "")
	case errors.As(err, &verr):
		return h.respond(c, fiber.StatusUnprocessableEntity, s, verr.Message)
	case apiclient.IsUnauthorized(err):
		return err
	default:
		return h.respond(c, fiber.StatusBadGateway, s, "")
	}
}

// SetLens switches the lens of one panel and returns to the screen.
func (h *ReportHandler) SetLens(c *fiber.Ctx) error {
	s, err := h.screen(c)
	if err != nil {
		return err
	}

	kind, ok := visualizer.ParseViewKind(c.Params("lens"))
	if !ok {
		return failure(c, fiber.StatusBadRequest, "Unknown view", nil)
	}
	if err := s.SetLens(c.Params("panel"), kind); err != nil {
		return failure(c, fiber.StatusNotFound, "Panel not found", nil)
	}

	if utils.WantsJSON(c) {
		return h.respond(c, fiber.StatusOK, s, "")
	}
	return c.Redirect("/reports/" + s.ReportType().Slug() + "#" + c.Params("panel"))
}

// Export streams the backend rendition as an attachment.
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	s, err := h.screen(c)
	if err != nil {
		return err
	}

	format := models.Format(strings.ToUpper(c.Params("format")))
	res, err := s.Export(c.UserContext(), format)

	var verr *models.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, export.ErrExportInProgress):
		return failure(c, fiber.StatusConflict, "An export is already in progress for this report", nil)
	case errors.Is(err, export.ErrFormatUnavailable):
		return failure(c, fiber.StatusNotFound, "Export format not available", nil)
	case errors.As(err, &verr):
		return failure(c, fiber.StatusUnprocessableEntity, verr.Message, nil)
	case apiclient.IsUnauthorized(err):
		return err
	default:
		return failure(c, fiber.StatusBadGateway, apiclient.UserMessage(err), err)
	}

	c.Attachment(res.Filename)
	c.Set(fiber.HeaderContentType, res.ContentType)
	return c.Send(res.Data)
}

// TableWorkbook downloads a panel's table lens as XLSX.
func (h *ReportHandler) TableWorkbook(c *fiber.Ctx) error {
	s, err := h.screen(c)
	if err != nil {
		return err
	}

	data, filename, err := s.TableWorkbook(c.Params("panel"))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUnknownPanel):
		return failure(c, fiber.StatusNotFound, "Panel not found", nil)
	case errors.Is(err, service.ErrNoData):
		return failure(c, fiber.StatusConflict, "Generate the report before downloading", nil)
	default:
		return failure(c, fiber.StatusInternalServerError, "Failed to build workbook", err)
	}

	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, export.ContentType("", models.FormatExcel))
	return c.Send(data)
}
