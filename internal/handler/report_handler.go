package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"habita/internal/catalog"
	"habita/internal/domain"
	"habita/internal/export"
	"habita/internal/middleware"
)

// ReportService is the surface the report endpoints need from the service
// layer.
type ReportService interface {
	Generate(ctx context.Context, caller domain.Caller, spec *domain.ReportSpec) (*domain.ReportDocument, error)
	GenerateFromPrompt(ctx context.Context, caller domain.Caller, prompt, extra string) (*domain.ReportDocument, *domain.ReportSpec, error)
	Export(ctx context.Context, caller domain.Caller, spec *domain.ReportSpec, format string) (*export.Result, error)
	ReservationSummary(ctx context.Context, caller domain.Caller, filters map[string]interface{}) (*domain.ReservationOverview, error)
	History(ctx context.Context, caller domain.Caller, limit int) ([]domain.ReportHistoryRecord, error)
}

type ReportHandler struct {
	svc ReportService
	cat *catalog.Catalog

	// exposeDiagnostics includes the raw model output and validation
	// errors in failed NL generation responses.
	exposeDiagnostics bool
}

func NewReportHandler(svc ReportService, cat *catalog.Catalog, exposeDiagnostics bool) *ReportHandler {
	return &ReportHandler{svc: svc, cat: cat, exposeDiagnostics: exposeDiagnostics}
}

// Meta answers with the report catalog: available types, their fields,
// filters and groupings. The report builder UI drives itself off this.
func (h *ReportHandler) Meta(c *gin.Context) {
	if _, ok := middleware.GetCaller(c); !ok {
		HandleError(c, domain.ErrUnauthorized)
		return
	}
	RespondOK(c, gin.H{"reportes": h.cat.Meta()})
}

// Generate executes a report specification.
func (h *ReportHandler) Generate(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		HandleError(c, domain.ErrUnauthorized)
		return
	}
	var spec domain.ReportSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "cuerpo de solicitud inválido: "+err.Error(), nil)
		return
	}
	doc, err := h.svc.Generate(c.Request.Context(), caller, &spec)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"reporte": doc})
}

// Export executes a specification and streams the rendered file. The
// format comes from the "formato" query parameter and defaults to CSV.
func (h *ReportHandler) Export(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		HandleError(c, domain.ErrUnauthorized)
		return
	}
	var spec domain.ReportSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "cuerpo de solicitud inválido: "+err.Error(), nil)
		return
	}
	res, err := h.svc.Export(c.Request.Context(), caller, &spec, c.DefaultQuery("formato", "csv"))
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

type aiRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Contexto string `json:"contexto"`
}

// GenerateFromPrompt turns a natural-language request into a report. When
// the model output fails validation the response carries the diagnostics,
// if the deployment allows exposing them.
func (h *ReportHandler) GenerateFromPrompt(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		HandleError(c, domain.ErrUnauthorized)
		return
	}
	var req aiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "cuerpo de solicitud inválido: "+err.Error(), nil)
		return
	}

	doc, spec, err := h.svc.GenerateFromPrompt(c.Request.Context(), caller, req.Prompt, req.Contexto)
	if err != nil {
		var invalid *domain.InvalidModelOutputError
		if errors.As(err, &invalid) && h.exposeDiagnostics {
			RespondError(c, http.StatusUnprocessableEntity, "INVALID_MODEL_OUTPUT",
				"el modelo no produjo una configuración válida", gin.H{
					"ai_model":  invalid.Model,
					"ai_raw":    invalid.Raw,
					"ai_config": invalid.Spec,
					"errores":   invalid.ValidationErrors,
				})
			return
		}
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"reporte": doc, "configuracion": spec})
}

// ReservationSummary answers the fixed reservation statistics block for
// the caller's scope: totals, per-status and per-property breakdowns, and
// the recent monthly trend. An optional check-in date range comes from the
// fecha_inicio and fecha_fin query parameters.
func (h *ReportHandler) ReservationSummary(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		HandleError(c, domain.ErrUnauthorized)
		return
	}

	filters := map[string]interface{}{}
	if v := c.Query("fecha_inicio"); v != "" {
		filters["fecha_inicio"] = v
	}
	if v := c.Query("fecha_fin"); v != "" {
		filters["fecha_fin"] = v
	}

	overview, err := h.svc.ReservationSummary(c.Request.Context(), caller, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, overview)
}

// History lists the caller's recent report runs, newest first.
func (h *ReportHandler) History(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		HandleError(c, domain.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limite", "0"))
	records, err := h.svc.History(c.Request.Context(), caller, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if records == nil {
		records = []domain.ReportHistoryRecord{}
	}
	RespondOK(c, gin.H{"historial": records})
}
