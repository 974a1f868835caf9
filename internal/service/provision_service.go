package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/provision-service/internal/domain"
	"github.com/spec-kit/provision-service/internal/events"
	"github.com/spec-kit/provision-service/internal/lifecycle"
	"github.com/spec-kit/provision-service/internal/observability"
	"github.com/spec-kit/provision-service/internal/repository"
	apperrors "github.com/spec-kit/provision-service/pkg/util"
)

// ProvisionService coordinates provision workflows: it authorizes the caller,
// consults the lifecycle engine, and persists accepted transitions with
// optimistic concurrency.
type ProvisionService struct {
	provisions repository.ProvisionRepository
	services   repository.ServiceRepository
	history    repository.ProvisionHistoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        func() time.Time
}

// ProvisionDependencies bundles requirements for the provision service.
type ProvisionDependencies struct {
	ProvisionRepo repository.ProvisionRepository
	ServiceRepo   repository.ServiceRepository
	HistoryRepo   repository.ProvisionHistoryRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
}

// ProvisionCreateInput describes provision creation payload.
type ProvisionCreateInput struct {
	ServiceID string
	Notes     string
}

// NewProvisionService constructs the service.
func NewProvisionService(deps ProvisionDependencies) *ProvisionService {
	return &ProvisionService{
		provisions: deps.ProvisionRepo,
		services:   deps.ServiceRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// CreateProvision requests a service on behalf of a consumer. The provision
// starts Pending with the final price captured from the service's current base
// price; later price changes never propagate.
func (s *ProvisionService) CreateProvision(ctx context.Context, actor *domain.Person, input ProvisionCreateInput) (*domain.Provision, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleConsumer {
		return nil, apperrors.NewForbidden("only consumers may request provisions")
	}

	svc, err := s.services.GetByID(ctx, input.ServiceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewValidationError("invalid service selected", map[string]any{"service_id": input.ServiceID})
		}
		return nil, err
	}

	provision := &domain.Provision{
		PersonID:   actor.ID,
		ServiceID:  svc.ID,
		FinalPrice: svc.BasePrice,
		Status:     domain.ProvisionStatusPending,
		Notes:      strings.TrimSpace(input.Notes),
	}
	if err := s.provisions.Create(ctx, provision); err != nil {
		return nil, err
	}

	s.metrics.RecordProvisionCreated()
	s.publishEvent(ctx, events.Event{
		Type:      events.EventProvisionRequested,
		SubjectID: provision.ID,
		Actor:     events.Actor{PersonID: actor.ID, Role: actor.Role},
		Payload: events.ProvisionRequestedPayload{
			ServiceID:  provision.ServiceID,
			FinalPrice: provision.FinalPrice,
		},
	})
	return provision, nil
}

// GetProvision fetches a provision the caller is allowed to see.
func (s *ProvisionService) GetProvision(ctx context.Context, actor *domain.Person, id string) (*domain.Provision, error) {
	provision, err := s.provisions.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("provision", map[string]any{"id": id})
		}
		return nil, err
	}
	if !canActOnProvision(actor, provision) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return provision, nil
}

// ListProvisions returns the caller's own provisions; admins see all.
func (s *ProvisionService) ListProvisions(ctx context.Context, actor *domain.Person) ([]domain.Provision, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role == domain.RoleAdmin {
		return s.provisions.ListAll(ctx)
	}
	return s.provisions.ListByOwner(ctx, actor.ID)
}

// UpdateStatus moves a provision into requested when the lifecycle table
// permits the transition for the caller's role. Accepted transitions are
// persisted atomically against the version read here; a losing writer gets a
// conflict and must retry from fresh state.
func (s *ProvisionService) UpdateStatus(ctx context.Context, actor *domain.Person, id string, requested domain.ProvisionStatus, notes string) (*domain.Provision, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !requested.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(requested)})
	}

	provision, err := s.provisions.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("provision", map[string]any{"id": id})
		}
		return nil, err
	}
	if !canActOnProvision(actor, provision) {
		return nil, apperrors.NewForbidden("access denied")
	}

	if !lifecycle.CanTransition(provision.Status, requested, actor.Role) {
		s.metrics.RecordTransition("rejected")
		return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
			"current":   string(provision.Status),
			"requested": string(requested),
			"role":      string(actor.Role),
		})
	}

	oldStatus := provision.Status
	updated := lifecycle.Apply(*provision, requested, notes, s.now())

	if err := s.provisions.UpdateStatusIfUnchanged(ctx, &updated, provision.Version); err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, apperrors.NewNotFound("provision", map[string]any{"id": id})
		case repository.ErrVersionConflict:
			s.metrics.RecordTransition("conflict")
			return nil, apperrors.NewConflict("provision was modified concurrently; re-fetch and retry", map[string]any{"id": id})
		default:
			return nil, err
		}
	}

	s.metrics.RecordTransition("accepted")
	s.recordStatusChange(ctx, actor, &updated, oldStatus, notes)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventProvisionStatusChanged,
		SubjectID: updated.ID,
		Actor:     events.Actor{PersonID: actor.ID, Role: actor.Role},
		Payload: events.ProvisionStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: updated.Status,
			Notes:     updated.Notes,
		},
	})
	return &updated, nil
}

// GetHistory returns the status-change audit trail for a provision.
func (s *ProvisionService) GetHistory(ctx context.Context, actor *domain.Person, provisionID string) ([]domain.ProvisionHistory, error) {
	if s.history == nil {
		return []domain.ProvisionHistory{}, nil
	}
	provision, err := s.provisions.GetByID(ctx, provisionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("provision", map[string]any{"id": provisionID})
		}
		return nil, err
	}
	if !canActOnProvision(actor, provision) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return s.history.ListByProvision(ctx, provisionID)
}

// canActOnProvision gates provision access: the owning consumer, any admin, or
// any provider. There is no assigned-provider concept, so every provider may
// view and advance every provision; known limitation carried over from the
// original workflow.
func canActOnProvision(actor *domain.Person, provision *domain.Provision) bool {
	if actor == nil {
		return false
	}
	if actor.ID == provision.PersonID {
		return true
	}
	return actor.Role == domain.RoleAdmin || actor.Role == domain.RoleProvider
}

func (s *ProvisionService) recordStatusChange(ctx context.Context, actor *domain.Person, provision *domain.Provision, oldStatus domain.ProvisionStatus, notes string) {
	if s.history == nil {
		return
	}
	entry := &domain.ProvisionHistory{
		ProvisionID: provision.ID,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		OldStatus:   oldStatus,
		NewStatus:   provision.Status,
		Notes:       strings.TrimSpace(notes),
	}
	_ = s.history.Create(ctx, entry)
}

func (s *ProvisionService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
