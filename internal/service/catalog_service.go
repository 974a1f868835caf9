package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/provision-service/internal/domain"
	"github.com/spec-kit/provision-service/internal/events"
	"github.com/spec-kit/provision-service/internal/persistence"
	"github.com/spec-kit/provision-service/internal/repository"
	apperrors "github.com/spec-kit/provision-service/pkg/util"
)

const (
	catalogListCacheKey = "catalog:services"
	catalogCacheKeybase = "catalog:service:"
	maxServiceName      = 100
	maxServiceDesc      = 500
	maxServiceCategory  = 50
	maxServiceBasePrice = 10000.0
)

// CatalogService manages the offerable-service catalog. Reads go through a
// redis cache; every mutation invalidates it.
type CatalogService struct {
	services   repository.ServiceRepository
	provisions repository.ProvisionRepository
	cache      *persistence.Redis
	cacheTTL   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CatalogDependencies bundles requirements for the catalog service.
type CatalogDependencies struct {
	ServiceRepo   repository.ServiceRepository
	ProvisionRepo repository.ProvisionRepository
	Cache         *persistence.Redis
	CacheTTL      time.Duration
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// ServiceInput describes create/update payloads.
type ServiceInput struct {
	Name        string
	Description string
	Category    string
	BasePrice   float64
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		services:   deps.ServiceRepo,
		provisions: deps.ProvisionRepo,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ListServices returns the catalog, served from cache when warm.
func (s *CatalogService) ListServices(ctx context.Context) ([]domain.Service, error) {
	if cached, ok := s.cacheGetList(ctx); ok {
		return cached, nil
	}
	services, err := s.services.List(ctx)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = []domain.Service{}
	}
	s.cacheSet(ctx, catalogListCacheKey, services)
	return services, nil
}

// GetService returns a single catalog entry.
func (s *CatalogService) GetService(ctx context.Context, id string) (*domain.Service, error) {
	if cached, ok := s.cacheGetOne(ctx, id); ok {
		return cached, nil
	}
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return nil, err
	}
	s.cacheSet(ctx, catalogCacheKeybase+id, svc)
	return svc, nil
}

// CreateService adds a catalog entry. Role enforcement happens at the route.
func (s *CatalogService) CreateService(ctx context.Context, actor *domain.Person, input ServiceInput) (*domain.Service, error) {
	if err := validateServiceInput(input); err != nil {
		return nil, err
	}
	svc := &domain.Service{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		BasePrice:   input.BasePrice,
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, err
	}
	s.invalidate(ctx, svc.ID)
	s.publish(ctx, actor, events.EventServiceCreated, svc)
	return svc, nil
}

// UpdateService replaces a catalog entry's mutable fields.
func (s *CatalogService) UpdateService(ctx context.Context, actor *domain.Person, id string, input ServiceInput) (*domain.Service, error) {
	if err := validateServiceInput(input); err != nil {
		return nil, err
	}
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return nil, err
	}

	svc.Name = strings.TrimSpace(input.Name)
	svc.Description = strings.TrimSpace(input.Description)
	svc.Category = strings.TrimSpace(input.Category)
	svc.BasePrice = input.BasePrice

	if err := s.services.Update(ctx, svc); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	s.publish(ctx, actor, events.EventServiceUpdated, svc)
	return svc, nil
}

// DeleteService removes a catalog entry unless provisions reference it.
func (s *CatalogService) DeleteService(ctx context.Context, actor *domain.Person, id string) error {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return err
	}

	inUse, err := s.provisions.ExistsByService(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.NewResourceInUse("cannot delete service as it is currently in use", map[string]any{"id": id})
	}

	if err := s.services.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return err
	}
	s.invalidate(ctx, id)
	s.publish(ctx, actor, events.EventServiceDeleted, svc)
	return nil
}

func validateServiceInput(input ServiceInput) error {
	details := map[string]any{}
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > maxServiceName {
		details["name"] = fmt.Sprintf("required, at most %d characters", maxServiceName)
	}
	desc := strings.TrimSpace(input.Description)
	if desc == "" || len(desc) > maxServiceDesc {
		details["description"] = fmt.Sprintf("required, at most %d characters", maxServiceDesc)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" || len(category) > maxServiceCategory {
		details["category"] = fmt.Sprintf("required, at most %d characters", maxServiceCategory)
	}
	if input.BasePrice <= 0 || input.BasePrice > maxServiceBasePrice {
		details["base_price"] = fmt.Sprintf("must be within (0, %.0f]", maxServiceBasePrice)
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid service payload", details)
	}
	return nil
}

func (s *CatalogService) cacheGetList(ctx context.Context) ([]domain.Service, bool) {
	if s.cache == nil || s.cache.Client == nil {
		return nil, false
	}
	raw, err := s.cache.Client.Get(ctx, catalogListCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var services []domain.Service
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, false
	}
	return services, true
}

func (s *CatalogService) cacheGetOne(ctx context.Context, id string) (*domain.Service, bool) {
	if s.cache == nil || s.cache.Client == nil {
		return nil, false
	}
	raw, err := s.cache.Client.Get(ctx, catalogCacheKeybase+id).Bytes()
	if err != nil {
		return nil, false
	}
	var svc domain.Service
	if err := json.Unmarshal(raw, &svc); err != nil {
		return nil, false
	}
	return &svc, true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Debug("catalog cache set failed", zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, catalogListCacheKey, catalogCacheKeybase+id).Err(); err != nil && s.logger != nil {
		s.logger.Debug("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *CatalogService) publish(ctx context.Context, actor *domain.Person, eventType events.EventType, svc *domain.Service) {
	if s.dispatcher == nil {
		return
	}
	actorMeta := events.Actor{}
	if actor != nil {
		actorMeta = events.Actor{PersonID: actor.ID, Role: actor.Role}
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		SubjectID: svc.ID,
		Actor:     actorMeta,
		Timestamp: time.Now(),
		Payload: events.ServiceChangedPayload{
			Name:      svc.Name,
			Category:  svc.Category,
			BasePrice: svc.BasePrice,
		},
	})
}
