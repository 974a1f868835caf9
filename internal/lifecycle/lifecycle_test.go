package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/provision-service/internal/domain"
)

var allStatuses = []domain.ProvisionStatus{
	domain.ProvisionStatusPending,
	domain.ProvisionStatusAccepted,
	domain.ProvisionStatusInProgress,
	domain.ProvisionStatusCompleted,
	domain.ProvisionStatusCancelled,
}

var allRoles = []domain.Role{domain.RoleConsumer, domain.RoleProvider, domain.RoleAdmin}

func TestCanTransitionDenyByDefault(t *testing.T) {
	allowed := map[domain.Role]map[domain.ProvisionStatus][]domain.ProvisionStatus{
		domain.RoleConsumer: {
			domain.ProvisionStatusPending:    {domain.ProvisionStatusCancelled},
			domain.ProvisionStatusAccepted:   {domain.ProvisionStatusCancelled},
			domain.ProvisionStatusInProgress: {domain.ProvisionStatusCancelled},
		},
		domain.RoleProvider: {
			domain.ProvisionStatusPending:    {domain.ProvisionStatusAccepted, domain.ProvisionStatusCancelled},
			domain.ProvisionStatusAccepted:   {domain.ProvisionStatusInProgress, domain.ProvisionStatusCancelled},
			domain.ProvisionStatusInProgress: {domain.ProvisionStatusCompleted, domain.ProvisionStatusCancelled},
		},
	}

	contains := func(list []domain.ProvisionStatus, status domain.ProvisionStatus) bool {
		for _, s := range list {
			if s == status {
				return true
			}
		}
		return false
	}

	// Every (role, current, next) triple outside the table must deny.
	for _, role := range allRoles {
		for _, current := range allStatuses {
			for _, next := range allStatuses {
				want := contains(allowed[role][current], next)
				got := CanTransition(current, next, role)
				assert.Equal(t, want, got,
					"role=%s current=%s next=%s", role, current, next)
			}
		}
	}
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	for _, terminal := range []domain.ProvisionStatus{domain.ProvisionStatusCompleted, domain.ProvisionStatusCancelled} {
		require.True(t, IsTerminal(terminal))
		for _, role := range allRoles {
			assert.Empty(t, AllowedTargets(terminal, role), "role=%s from=%s", role, terminal)
			for _, next := range allStatuses {
				assert.False(t, CanTransition(terminal, next, role),
					"role=%s terminal=%s next=%s", role, terminal, next)
			}
		}
	}
}

func TestConsumerMayOnlyWithdraw(t *testing.T) {
	cancellable := []domain.ProvisionStatus{
		domain.ProvisionStatusPending,
		domain.ProvisionStatusAccepted,
		domain.ProvisionStatusInProgress,
	}
	for _, current := range cancellable {
		assert.True(t, CanTransition(current, domain.ProvisionStatusCancelled, domain.RoleConsumer),
			"consumer should cancel from %s", current)
		assert.Equal(t, []domain.ProvisionStatus{domain.ProvisionStatusCancelled},
			AllowedTargets(current, domain.RoleConsumer))
	}
	assert.False(t, CanTransition(domain.ProvisionStatusPending, domain.ProvisionStatusAccepted, domain.RoleConsumer))
	assert.False(t, CanTransition(domain.ProvisionStatusInProgress, domain.ProvisionStatusCompleted, domain.RoleConsumer))
}

func TestProviderAdvancesStrictlyInOrder(t *testing.T) {
	assert.True(t, CanTransition(domain.ProvisionStatusPending, domain.ProvisionStatusAccepted, domain.RoleProvider))
	assert.True(t, CanTransition(domain.ProvisionStatusAccepted, domain.ProvisionStatusInProgress, domain.RoleProvider))
	assert.True(t, CanTransition(domain.ProvisionStatusInProgress, domain.ProvisionStatusCompleted, domain.RoleProvider))

	// Skipping a step is rejected.
	assert.False(t, CanTransition(domain.ProvisionStatusPending, domain.ProvisionStatusInProgress, domain.RoleProvider))
	assert.False(t, CanTransition(domain.ProvisionStatusPending, domain.ProvisionStatusCompleted, domain.RoleProvider))
	assert.False(t, CanTransition(domain.ProvisionStatusAccepted, domain.ProvisionStatusCompleted, domain.RoleProvider))
}

func TestAdminHasNoTransitionRights(t *testing.T) {
	for _, current := range allStatuses {
		for _, next := range allStatuses {
			assert.False(t, CanTransition(current, next, domain.RoleAdmin),
				"admin current=%s next=%s", current, next)
		}
	}
}

func TestApplySetsCompletionTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	provision := domain.Provision{
		Status: domain.ProvisionStatusInProgress,
		Notes:  "initial visit scheduled",
	}

	updated := Apply(provision, domain.ProvisionStatusCompleted, "done", now)

	assert.Equal(t, domain.ProvisionStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletionDate)
	assert.Equal(t, now, *updated.CompletionDate)
	assert.Equal(t, "done", updated.Notes)

	// Input snapshot untouched.
	assert.Equal(t, domain.ProvisionStatusInProgress, provision.Status)
	assert.Nil(t, provision.CompletionDate)
	assert.Equal(t, "initial visit scheduled", provision.Notes)
}

func TestApplyKeepsNotesWhenBlank(t *testing.T) {
	now := time.Now()
	provision := domain.Provision{
		Status: domain.ProvisionStatusPending,
		Notes:  "please call ahead",
	}

	for _, blank := range []string{"", "   ", "\t\n"} {
		updated := Apply(provision, domain.ProvisionStatusCancelled, blank, now)
		assert.Equal(t, "please call ahead", updated.Notes)
		assert.Nil(t, updated.CompletionDate, "cancelling must not stamp completion")
	}
}
