package port

import (
	"context"

	"habita/internal/domain"
)

// GeneratedSpec is the outcome of a natural-language generation round: the
// validated specification plus the raw model output and model name, kept
// for the audit trail.
type GeneratedSpec struct {
	Spec  domain.ReportSpec
	Raw   string
	Model string
}

// SpecGenerator turns a natural-language request into a validated
// ReportSpec. Implementations must re-validate model output against the
// catalog; a model response is never trusted as-is.
type SpecGenerator interface {
	Generate(ctx context.Context, prompt, context string) (GeneratedSpec, error)
}
