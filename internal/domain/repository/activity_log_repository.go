package repository

import (
	"context"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// ActivityLogRepository es el sink de auditoría. Las escrituras son
// best-effort: el llamador nunca propaga un fallo de este puerto.
type ActivityLogRepository interface {
	Create(ctx context.Context, l *entity.ActivityLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entity.ActivityLog, error)
}
