package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

var _ repository.ActivityLogRepository = (*ActivityLogRepo)(nil)

// ActivityLogRepo sink de auditoría sobre PostgreSQL. Solo-agregar.
type ActivityLogRepo struct {
	q Querier
}

// NewActivityLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewActivityLogRepository(q Querier) *ActivityLogRepo {
	return &ActivityLogRepo{q: q}
}

// Create inserta una línea de actividad.
func (r *ActivityLogRepo) Create(ctx context.Context, l *entity.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (id, actor, action, entity_type, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.Actor, l.Action, l.EntityType, l.EntityID, l.Detail, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// ListByEntity devuelve las líneas más recientes de una entidad.
func (r *ActivityLogRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entity.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, actor, action, entity_type, entity_id, detail, created_at
		FROM activity_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC LIMIT $3`
	rows, err := r.q.Query(ctx, query, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()
	var out []*entity.ActivityLog
	for rows.Next() {
		var l entity.ActivityLog
		if err := rows.Scan(&l.ID, &l.Actor, &l.Action, &l.EntityType, &l.EntityID, &l.Detail, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity logs: %w", err)
	}
	return out, nil
}
