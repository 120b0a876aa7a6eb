// Package export renders report documents as downloadable files. CSV is
// always available; XLSX and PDF are optional capabilities registered at
// startup, so a build or deployment without them degrades to a clear
// "capability missing" error instead of a panic.
package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"habita/internal/domain"
)

// Result is a rendered export ready to be served as an attachment.
type Result struct {
	Format      string
	Filename    string
	ContentType string
	Data        []byte
}

// Exporter renders one output format.
type Exporter interface {
	Format() string
	Extension() string
	ContentType() string
	Render(doc *domain.ReportDocument) ([]byte, error)
}

// MissingCapabilityError names the export capability a known format needs
// but this deployment does not provide.
type MissingCapabilityError struct {
	Capability string
}

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("export capability %q is not installed", e.Capability)
}

func (e *MissingCapabilityError) Unwrap() error {
	return domain.ErrMissingExportCapability
}

var knownFormats = map[string]bool{"csv": true, "xlsx": true, "pdf": true}

// Registry holds the installed exporters. CSV is always present.
type Registry struct {
	exporters map[string]Exporter
}

func NewRegistry() *Registry {
	r := &Registry{exporters: map[string]Exporter{}}
	r.Register(&CSVExporter{})
	return r
}

func (r *Registry) Register(e Exporter) {
	r.exporters[e.Format()] = e
}

// Formats returns the installed format names.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.exporters))
	for f := range knownFormats {
		if _, ok := r.exporters[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Render produces the document in the requested format. An unknown format
// is a client error; a known format without a registered exporter reports
// the missing capability by name.
func (r *Registry) Render(doc *domain.ReportDocument, format string) (*Result, error) {
	f := normalizeFormat(format)
	if !knownFormats[f] {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedExportFormat, format)
	}
	e, ok := r.exporters[f]
	if !ok {
		return nil, &MissingCapabilityError{Capability: f}
	}
	data, err := e.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", f, err)
	}
	return &Result{
		Format:      f,
		Filename:    Filename(doc.ReportType, doc.GeneratedAt, e.Extension()),
		ContentType: e.ContentType(),
		Data:        data,
	}, nil
}

func normalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "", "csv":
		return "csv"
	case "excel", "xls", "xlsx":
		return "xlsx"
	default:
		return f
	}
}

// Filename builds the canonical download name, timestamped to the second
// so successive exports do not collide.
func Filename(t domain.ReportType, generatedAt time.Time, ext string) string {
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	return fmt.Sprintf("reporte_%s_%s.%s", t, generatedAt.UTC().Format("20060102_150405"), ext)
}

// columns is the header every exporter writes. When the document carries
// no explicit field list the order is inferred from the first row's keys,
// sorted so the output stays deterministic.
func columns(doc *domain.ReportDocument) []string {
	if len(doc.Fields) > 0 {
		return doc.Fields
	}
	if len(doc.Rows) == 0 {
		return nil
	}
	cols := make([]string, 0, len(doc.Rows[0]))
	for k := range doc.Rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// cellString renders a row value for tabular output.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", x)
	}
}
