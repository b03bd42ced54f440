package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ReportType string

const (
	ReportFinancial ReportType = "FINANCIAL"
	ReportInventory ReportType = "INVENTORY"
	ReportMechanic  ReportType = "MECHANIC"
	ReportCustomer  ReportType = "CUSTOMER"
)

// ParseReportType accepts the URL slug ("financial") or the enum value.
func ParseReportType(s string) (ReportType, bool) {
	switch rt := ReportType(strings.ToUpper(strings.TrimSpace(s))); rt {
	case ReportFinancial, ReportInventory, ReportMechanic, ReportCustomer:
		return rt, true
	}
	return "", false
}

// Slug is the lower-case form used in URLs and file names.
func (r ReportType) Slug() string {
	return strings.ToLower(string(r))
}

type TimePeriod string

const (
	PeriodDaily     TimePeriod = "DAILY"
	PeriodWeekly    TimePeriod = "WEEKLY"
	PeriodMonthly   TimePeriod = "MONTHLY"
	PeriodQuarterly TimePeriod = "QUARTERLY"
	PeriodYearly    TimePeriod = "YEARLY"
	PeriodCustom    TimePeriod = "CUSTOM"
)

var TimePeriods = []TimePeriod{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly, PeriodCustom}

type Format string

const (
	FormatJSON  Format = "JSON"
	FormatPDF   Format = "PDF"
	FormatCSV   Format = "CSV"
	FormatExcel Format = "EXCEL"
)

const dateLayout = "2006-01-02"

// Date is a calendar day serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ReportCriteria is the set of parameters for one report generation.
type ReportCriteria struct {
	ReportType ReportType `json:"reportType" validate:"required,oneof=FINANCIAL INVENTORY MECHANIC CUSTOMER"`
	TimePeriod TimePeriod `json:"timePeriod" validate:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY YEARLY CUSTOM"`
	StartDate  *Date      `json:"startDate,omitempty"`
	EndDate    *Date      `json:"endDate,omitempty"`
	MechanicID *int       `json:"mechanicId,omitempty" validate:"omitempty,gt=0"`
	CustomerID *int       `json:"customerId,omitempty" validate:"omitempty,gt=0"`
	Format     Format     `json:"format" validate:"required,oneof=JSON PDF CSV EXCEL"`
}

// DefaultCriteria is what a screen starts with on mount.
func DefaultCriteria(reportType ReportType) ReportCriteria {
	return ReportCriteria{
		ReportType: reportType,
		TimePeriod: PeriodMonthly,
		Format:     FormatJSON,
	}
}

// ValidationError is raised before any backend call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(customWindowValidation, ReportCriteria{})
	return v
}

func customWindowValidation(sl validator.StructLevel) {
	c := sl.Current().Interface().(ReportCriteria)
	if c.TimePeriod != PeriodCustom {
		return
	}
	if c.StartDate == nil {
		sl.ReportError(c.StartDate, "startDate", "StartDate", "required_custom", "")
	}
	if c.EndDate == nil {
		sl.ReportError(c.EndDate, "endDate", "EndDate", "required_custom", "")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(c.StartDate.Time) {
		sl.ReportError(c.EndDate, "endDate", "EndDate", "after_start", "")
	}
}

// Validate checks the criteria and returns a *ValidationError with a
// user-facing message for the first problem found.
func (c ReportCriteria) Validate() error {
	return ValidateStruct(c)
}

// ValidateStruct runs the shared validator and reports the first failure
// as a *ValidationError.
func ValidateStruct(s interface{}) error {
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Message: validationMessage(fe)}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required_custom":
		return fmt.Sprintf("%s is required for a custom period", fe.Field())
	case "after_start":
		return "End date must be on or after the start date"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be a positive number", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// Normalized returns the criteria as sent to the backend: dates are only
// kept for CUSTOM, the server resolves every other window.
func (c ReportCriteria) Normalized() ReportCriteria {
	if c.TimePeriod != PeriodCustom {
		c.StartDate = nil
		c.EndDate = nil
	}
	return c
}

// ExportRequest is the criteria plus the requested binary format.
type ExportRequest struct {
	ReportCriteria
}

func NewExportRequest(c ReportCriteria, format Format) ExportRequest {
	c = c.Normalized()
	c.Format = format
	return ExportRequest{ReportCriteria: c}
}
