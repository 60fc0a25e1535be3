package entity

import "time"

// ActivityLog es una línea de auditoría legible por humanos. Se escribe
// fire-and-forget: un fallo del sink nunca bloquea la mutación principal.
type ActivityLog struct {
	ID         string
	Actor      string
	Action     string // ASSIGN, RELEASE, RENEW, REFUND, WARRANTY_*, REPAIR_*
	EntityType string // order | inventory
	EntityID   string
	Detail     string
	CreatedAt  time.Time
}
