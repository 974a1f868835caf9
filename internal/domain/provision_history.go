package domain

import "time"

// ProvisionHistory records a single status change on a provision.
type ProvisionHistory struct {
	ID          string
	ProvisionID string
	ActorID     string
	ActorRole   Role
	OldStatus   ProvisionStatus
	NewStatus   ProvisionStatus
	Notes       string
	CreatedAt   time.Time
}
