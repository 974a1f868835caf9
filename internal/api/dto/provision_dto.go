package dto

import (
	"time"

	"github.com/spec-kit/provision-service/internal/domain"
)

// CreateProvisionRequest payload.
type CreateProvisionRequest struct {
	ServiceID string `json:"service_id"`
	Notes     string `json:"notes"`
}

// UpdateProvisionStatusRequest payload.
type UpdateProvisionStatusRequest struct {
	Status domain.ProvisionStatus `json:"status"`
	Notes  string                 `json:"notes"`
}

// ProvisionResponse represents a provision.
type ProvisionResponse struct {
	ID             string                 `json:"id"`
	ServiceID      string                 `json:"service_id"`
	PersonID       string                 `json:"person_id"`
	RequestDate    time.Time              `json:"request_date"`
	CompletionDate *time.Time             `json:"completion_date,omitempty"`
	FinalPrice     float64                `json:"final_price"`
	Status         domain.ProvisionStatus `json:"status"`
	Notes          string                 `json:"notes"`
	Version        int64                  `json:"version"`
}

// ProvisionHistoryResponse represents one audit entry.
type ProvisionHistoryResponse struct {
	ID        string                 `json:"id"`
	ActorID   string                 `json:"actor_id"`
	ActorRole domain.Role            `json:"actor_role"`
	OldStatus domain.ProvisionStatus `json:"old_status"`
	NewStatus domain.ProvisionStatus `json:"new_status"`
	Notes     string                 `json:"notes,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
