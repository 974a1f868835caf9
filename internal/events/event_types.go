package events

import (
	"time"

	"github.com/spec-kit/provision-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProvisionRequested     EventType = "provision_requested"
	EventProvisionStatusChanged EventType = "provision_status_changed"
	EventServiceCreated         EventType = "service_created"
	EventServiceUpdated         EventType = "service_updated"
	EventServiceDeleted         EventType = "service_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	PersonID string      `json:"person_id"`
	Role     domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProvisionRequestedPayload payload.
type ProvisionRequestedPayload struct {
	ServiceID  string  `json:"service_id"`
	FinalPrice float64 `json:"final_price"`
}

// ProvisionStatusChangedPayload payload.
type ProvisionStatusChangedPayload struct {
	OldStatus domain.ProvisionStatus `json:"old_status"`
	NewStatus domain.ProvisionStatus `json:"new_status"`
	Notes     string                 `json:"notes,omitempty"`
}

// ServiceChangedPayload payload for catalog mutations.
type ServiceChangedPayload struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	BasePrice float64 `json:"base_price"`
}
