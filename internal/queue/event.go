// Package queue defines message payloads exchanged over the message broker.
package queue

// VisitCreatedEvent is published after a visit commits. It carries enough
// for downstream consumers (reporting, notifications) to act without
// querying the primary database.
type VisitCreatedEvent struct {
	VisitID   uint64 `json:"visit_id"`
	UserID    uint64 `json:"user_id"`
	Usuario   string `json:"usuario"`
	Cliente   string `json:"cliente"`
	FotoCount int    `json:"foto_count"`
	CreatedAt string `json:"created_at"`
}
