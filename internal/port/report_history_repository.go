package port

import (
	"context"

	"github.com/google/uuid"

	"habita/internal/domain"
)

// ReportHistoryRepository persists the append-only audit trail of generated
// reports. Insert failures are logged by the caller and never propagated to
// the user-facing path.
type ReportHistoryRepository interface {
	Insert(ctx context.Context, rec *domain.ReportHistoryRecord) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ReportHistoryRecord, error)
}
