package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("report category not available for this caller")
	ErrUnsupportedReportType   = errors.New("unsupported report type")
	ErrUnknownField            = errors.New("unknown field or filter")
	ErrInvalidModelOutput      = errors.New("model output failed parsing or validation")
	ErrExternalService         = errors.New("text generation service error")
	ErrMissingExportCapability = errors.New("missing export capability")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)

// InvalidModelOutputError carries the diagnostics of a failed NL-to-spec
// round trip: the model used, its raw output, the parsed specification (if
// parsing succeeded), and the validation errors. Whether this payload is
// returned to the caller or only logged is a configuration choice.
type InvalidModelOutputError struct {
	Model            string
	Raw              string
	Spec             *ReportSpec
	ValidationErrors []string
}

func (e *InvalidModelOutputError) Error() string {
	return fmt.Sprintf("invalid model output from %s: %s", e.Model, strings.Join(e.ValidationErrors, "; "))
}

func (e *InvalidModelOutputError) Unwrap() error {
	return ErrInvalidModelOutput
}
