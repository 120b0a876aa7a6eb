package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"habita/internal/domain"
)

// ReportHistoryRepo persists the generated-report audit trail. Rows are
// only ever inserted and read; there is no update or delete path.
type ReportHistoryRepo struct {
	db *sqlx.DB
}

func NewReportHistoryRepo(db *sqlx.DB) *ReportHistoryRepo {
	return &ReportHistoryRepo{db: db}
}

func (r *ReportHistoryRepo) Insert(ctx context.Context, rec *domain.ReportHistoryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO reportes_generados
		(id, usuario_id, tipo_reporte, configuracion_usada, parametros_filtro,
		 prompt_ia, respuesta_ia, resultado_resumen, formato_exportado,
		 tiempo_generacion, creado_en)
		VALUES (:id, :usuario_id, :tipo_reporte, :configuracion_usada, :parametros_filtro,
		 :prompt_ia, :respuesta_ia, :resultado_resumen, :formato_exportado,
		 :tiempo_generacion, :creado_en)`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("reportHistoryRepo.Insert: %w", err)
	}
	return nil
}

func (r *ReportHistoryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ReportHistoryRecord, error) {
	query := `SELECT id, usuario_id, tipo_reporte, configuracion_usada, parametros_filtro,
		prompt_ia, respuesta_ia, resultado_resumen, formato_exportado,
		tiempo_generacion, creado_en
		FROM reportes_generados
		WHERE usuario_id = $1
		ORDER BY creado_en DESC
		LIMIT $2`

	var out []domain.ReportHistoryRecord
	if err := r.db.SelectContext(ctx, &out, query, userID, limit); err != nil {
		return nil, fmt.Errorf("reportHistoryRepo.ListByUser: %w", err)
	}
	return out, nil
}
