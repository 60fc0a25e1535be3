// Package audit escribe líneas de actividad legibles por humanos en el sink
// de auditoría. Las escrituras son fire-and-forget: un fallo se registra en el
// log estructurado y jamás bloquea ni revierte la mutación principal.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
	"github.com/jhoicas/Suscripta-api/pkg/logger"
)

// Recorder publica eventos de auditoría en segundo plano.
type Recorder struct {
	repo repository.ActivityLogRepository
	log  *logger.Logger
}

// NewRecorder construye el recorder. repo puede ser nil (solo log).
func NewRecorder(repo repository.ActivityLogRepository, log *logger.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

// Record emite una línea de auditoría sin bloquear al llamador.
func (r *Recorder) Record(actor, action, entityType, entityID, detail string) {
	if r == nil {
		return
	}
	l := &entity.ActivityLog{
		ID:         uuid.New().String(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
	r.log.Info().
		Str("actor", actor).
		Str("action", action).
		Str(entityType, entityID).
		Msg(detail)
	if r.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.repo.Create(ctx, l); err != nil {
			r.log.Warn().Err(err).Str("action", action).Msg("auditoría no persistida")
		}
	}()
}
