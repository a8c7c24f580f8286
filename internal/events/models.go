// Package events publishes committed workflow transitions to downstream
// consumers (ops tooling, notification pipelines). Emission happens after
// commit, so an event always describes durable state.
package events

import (
	"time"

	"bloodline/pkg/domain"
)

// Event records one committed status transition. Keep it transport-agnostic
// so sinks can fan out.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	From       domain.Status     `json:"from"`
	To         domain.Status     `json:"to"`
	Role       domain.Role       `json:"role"`
	ActorID    string            `json:"actor_id,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}
