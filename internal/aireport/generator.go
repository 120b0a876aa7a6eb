// Package aireport turns natural-language report requests into validated
// report specifications through a chat-completions model. Model output is
// never trusted: everything it returns is re-validated against the
// catalog before execution.
package aireport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"habita/internal/catalog"
	"habita/internal/domain"
	"habita/internal/port"
)

type Config struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Generator calls an OpenAI-compatible chat-completions endpoint and
// validates the returned specification against the catalog.
type Generator struct {
	cfg     Config
	cat     *catalog.Catalog
	client  *http.Client
	nowFunc func() time.Time
}

func NewGenerator(cfg Config, cat *catalog.Catalog) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{
		cfg:     cfg,
		cat:     cat,
		client:  &http.Client{Timeout: timeout},
		nowFunc: time.Now,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `Eres un asistente que convierte solicitudes en español en configuraciones de reportes.
Responde ÚNICAMENTE con un objeto JSON, sin texto adicional ni bloques de código.
El objeto debe tener esta forma:
{"tipo_reporte": "...", "campos_seleccionados": [...], "filtros": {...}, "agrupacion": "...", "ordenamiento": "...", "limite": 100, "incluir_estadisticas": true, "incluir_graficos": true}
Usa solo los tipos de reporte, campos, filtros y agrupaciones listados en "meta_permitido".
Las fechas van en formato YYYY-MM-DD. Omite las claves que no apliquen en lugar de inventar valores.`

func (g *Generator) Generate(ctx context.Context, prompt, extra string) (port.GeneratedSpec, error) {
	userPayload, err := json.Marshal(map[string]interface{}{
		"prompt_usuario":     prompt,
		"contexto_adicional": extra,
		"fecha_actual":       g.nowFunc().UTC().Format("2006-01-02"),
		"meta_permitido":     g.cat.Meta(),
	})
	if err != nil {
		return port.GeneratedSpec{}, fmt.Errorf("aireport.Generate: marshal: %w", err)
	}

	raw, err := g.complete(ctx, string(userPayload))
	if err != nil {
		return port.GeneratedSpec{}, err
	}

	spec, verrs := g.parseAndValidate(raw)
	if len(verrs) > 0 {
		return port.GeneratedSpec{}, &domain.InvalidModelOutputError{
			Model:            g.cfg.Model,
			Raw:              raw,
			Spec:             spec,
			ValidationErrors: verrs,
		}
	}
	return port.GeneratedSpec{Spec: *spec, Raw: raw, Model: g.cfg.Model}, nil
}

func (g *Generator) complete(ctx context.Context, userContent string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("aireport.complete: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("aireport.complete: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrExternalService, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrExternalService, resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrExternalService, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrExternalService)
	}
	return parsed.Choices[0].Message.Content, nil
}

// parseAndValidate decodes model output into a specification. Only an
// unparseable payload or an unknown tipo_reporte is fatal; stray field,
// filter or grouping names ride along and get the same silent-drop
// treatment the executor gives any direct caller.
func (g *Generator) parseAndValidate(raw string) (*domain.ReportSpec, []string) {
	cleaned := stripCodeFence(raw)

	var loose map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &loose); err != nil {
		return nil, []string{"la respuesta no es un objeto JSON válido: " + err.Error()}
	}
	// Models often emit explicit nulls for fields they were told to omit.
	for k, v := range loose {
		if v == nil {
			delete(loose, k)
		}
	}

	normalized, err := json.Marshal(loose)
	if err != nil {
		return nil, []string{"no se pudo normalizar la respuesta: " + err.Error()}
	}
	var spec domain.ReportSpec
	if err := json.Unmarshal(normalized, &spec); err != nil {
		return nil, []string{"la respuesta no coincide con el formato esperado: " + err.Error()}
	}

	if _, err := g.cat.Describe(spec.ReportType); err != nil {
		return &spec, []string{fmt.Sprintf("tipo_reporte %q no es válido", spec.ReportType)}
	}
	return &spec, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
