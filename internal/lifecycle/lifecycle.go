package lifecycle

import (
	"strings"
	"time"

	"github.com/spec-kit/provision-service/internal/domain"
)

// allowedTransitions maps (role, current status) to the statuses that role may
// move a provision into. Consumers may only withdraw; all forward progress is
// provider-driven. Admin has no entry: admins bypass ownership checks one layer
// up but hold no transition rights of their own. Absent keys deny.
var allowedTransitions = map[domain.Role]map[domain.ProvisionStatus][]domain.ProvisionStatus{
	domain.RoleConsumer: {
		domain.ProvisionStatusPending:    {domain.ProvisionStatusCancelled},
		domain.ProvisionStatusAccepted:   {domain.ProvisionStatusCancelled},
		domain.ProvisionStatusInProgress: {domain.ProvisionStatusCancelled},
		domain.ProvisionStatusCompleted:  {},
		domain.ProvisionStatusCancelled:  {},
	},
	domain.RoleProvider: {
		domain.ProvisionStatusPending:    {domain.ProvisionStatusAccepted, domain.ProvisionStatusCancelled},
		domain.ProvisionStatusAccepted:   {domain.ProvisionStatusInProgress, domain.ProvisionStatusCancelled},
		domain.ProvisionStatusInProgress: {domain.ProvisionStatusCompleted, domain.ProvisionStatusCancelled},
		domain.ProvisionStatusCompleted:  {},
		domain.ProvisionStatusCancelled:  {},
	},
}

// CanTransition reports whether role may move a provision from current to next.
func CanTransition(current, next domain.ProvisionStatus, role domain.Role) bool {
	byStatus, ok := allowedTransitions[role]
	if !ok {
		return false
	}
	for _, candidate := range byStatus[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedTargets returns the statuses role may move a provision into from
// current. The returned slice is a copy.
func AllowedTargets(current domain.ProvisionStatus, role domain.Role) []domain.ProvisionStatus {
	byStatus, ok := allowedTransitions[role]
	if !ok {
		return []domain.ProvisionStatus{}
	}
	targets := make([]domain.ProvisionStatus, len(byStatus[current]))
	copy(targets, byStatus[current])
	return targets
}

// IsTerminal reports whether no role may ever leave the given status.
func IsTerminal(status domain.ProvisionStatus) bool {
	return status == domain.ProvisionStatusCompleted || status == domain.ProvisionStatusCancelled
}

// Apply returns a copy of the provision moved into next, with transition side
// effects applied: the completion timestamp is stamped on entry into Completed,
// and notes replace the stored notes only when non-empty after trimming. The
// input snapshot is never mutated; callers are expected to have validated the
// transition with CanTransition first.
func Apply(provision domain.Provision, next domain.ProvisionStatus, notes string, now time.Time) domain.Provision {
	updated := provision
	updated.Status = next
	if next == domain.ProvisionStatusCompleted {
		completedAt := now
		updated.CompletionDate = &completedAt
	}
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		updated.Notes = trimmed
	}
	return updated
}
