package domain

import "time"

// ProvisionStatus enumerates lifecycle states for provisions.
type ProvisionStatus string

const (
	ProvisionStatusPending    ProvisionStatus = "PENDING"
	ProvisionStatusAccepted   ProvisionStatus = "ACCEPTED"
	ProvisionStatusInProgress ProvisionStatus = "IN_PROGRESS"
	ProvisionStatusCompleted  ProvisionStatus = "COMPLETED"
	ProvisionStatusCancelled  ProvisionStatus = "CANCELLED"
)

// Valid reports whether the status is one of the known values.
func (s ProvisionStatus) Valid() bool {
	switch s {
	case ProvisionStatusPending, ProvisionStatusAccepted, ProvisionStatusInProgress,
		ProvisionStatusCompleted, ProvisionStatusCancelled:
		return true
	}
	return false
}

// Provision is a single instance of a consumer requesting a service, tracked
// through the status lifecycle. FinalPrice is captured from the service's base
// price at request time and never recomputed. Version guards optimistic writes.
type Provision struct {
	ID             string
	PersonID       string
	ServiceID      string
	RequestDate    time.Time
	CompletionDate *time.Time
	FinalPrice     float64
	Status         ProvisionStatus
	Notes          string
	Version        int64
	UpdatedAt      time.Time
}
