package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/provision-service/internal/domain"
	"github.com/spec-kit/provision-service/internal/repository"
	apperrors "github.com/spec-kit/provision-service/pkg/util"
)

type fakeProvisionRepo struct {
	items map[string]domain.Provision
}

func newFakeProvisionRepo() *fakeProvisionRepo {
	return &fakeProvisionRepo{items: map[string]domain.Provision{}}
}

func (f *fakeProvisionRepo) Create(_ context.Context, provision *domain.Provision) error {
	provision.ID = uuid.NewString()
	provision.RequestDate = time.Now()
	provision.Version = 1
	provision.UpdatedAt = provision.RequestDate
	f.items[provision.ID] = *provision
	return nil
}

func (f *fakeProvisionRepo) GetByID(_ context.Context, id string) (*domain.Provision, error) {
	stored, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (f *fakeProvisionRepo) ListByOwner(_ context.Context, personID string) ([]domain.Provision, error) {
	var result []domain.Provision
	for _, p := range f.items {
		if p.PersonID == personID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *fakeProvisionRepo) ListAll(_ context.Context) ([]domain.Provision, error) {
	var result []domain.Provision
	for _, p := range f.items {
		result = append(result, p)
	}
	return result, nil
}

func (f *fakeProvisionRepo) UpdateStatusIfUnchanged(_ context.Context, provision *domain.Provision, expectedVersion int64) error {
	stored, ok := f.items[provision.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	provision.Version = stored.Version + 1
	provision.UpdatedAt = time.Now()
	f.items[provision.ID] = *provision
	return nil
}

func (f *fakeProvisionRepo) ExistsByService(_ context.Context, serviceID string) (bool, error) {
	for _, p := range f.items {
		if p.ServiceID == serviceID {
			return true, nil
		}
	}
	return false, nil
}

type fakeServiceRepo struct {
	items map[string]domain.Service
}

func newFakeServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{items: map[string]domain.Service{}}
}

func (f *fakeServiceRepo) Create(_ context.Context, service *domain.Service) error {
	service.ID = uuid.NewString()
	service.CreatedAt = time.Now()
	service.UpdatedAt = service.CreatedAt
	f.items[service.ID] = *service
	return nil
}

func (f *fakeServiceRepo) Update(_ context.Context, service *domain.Service) error {
	if _, ok := f.items[service.ID]; !ok {
		return pgx.ErrNoRows
	}
	service.UpdatedAt = time.Now()
	f.items[service.ID] = *service
	return nil
}

func (f *fakeServiceRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeServiceRepo) GetByID(_ context.Context, id string) (*domain.Service, error) {
	stored, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (f *fakeServiceRepo) List(_ context.Context) ([]domain.Service, error) {
	var result []domain.Service
	for _, s := range f.items {
		result = append(result, s)
	}
	return result, nil
}

func (f *fakeServiceRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.items)), nil
}

type fakeHistoryRepo struct {
	entries []domain.ProvisionHistory
}

func (f *fakeHistoryRepo) Create(_ context.Context, entry *domain.ProvisionHistory) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByProvision(_ context.Context, provisionID string) ([]domain.ProvisionHistory, error) {
	var result []domain.ProvisionHistory
	for _, e := range f.entries {
		if e.ProvisionID == provisionID {
			result = append(result, e)
		}
	}
	return result, nil
}

type provisionFixture struct {
	svc        *ProvisionService
	provisions *fakeProvisionRepo
	services   *fakeServiceRepo
	history    *fakeHistoryRepo
	consumer   *domain.Person
	provider   *domain.Person
	admin      *domain.Person
	catalog    *domain.Service
}

func newProvisionFixture(t *testing.T) *provisionFixture {
	t.Helper()

	provisions := newFakeProvisionRepo()
	services := newFakeServiceRepo()
	history := &fakeHistoryRepo{}

	svc := NewProvisionService(ProvisionDependencies{
		ProvisionRepo: provisions,
		ServiceRepo:   services,
		HistoryRepo:   history,
	})

	catalog := &domain.Service{Name: "House Cleaning", Description: "Cleaning", Category: "Home", BasePrice: 75}
	require.NoError(t, services.Create(context.Background(), catalog))

	return &provisionFixture{
		svc:        svc,
		provisions: provisions,
		services:   services,
		history:    history,
		consumer:   &domain.Person{ID: uuid.NewString(), Role: domain.RoleConsumer},
		provider:   &domain.Person{ID: uuid.NewString(), Role: domain.RoleProvider},
		admin:      &domain.Person{ID: uuid.NewString(), Role: domain.RoleAdmin},
		catalog:    catalog,
	}
}

func (fx *provisionFixture) createProvision(t *testing.T) *domain.Provision {
	t.Helper()
	provision, err := fx.svc.CreateProvision(context.Background(), fx.consumer, ProvisionCreateInput{ServiceID: fx.catalog.ID})
	require.NoError(t, err)
	return provision
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestCreateProvisionStartsPendingWithPriceSnapshot(t *testing.T) {
	fx := newProvisionFixture(t)

	provision := fx.createProvision(t)

	assert.Equal(t, domain.ProvisionStatusPending, provision.Status)
	assert.Equal(t, fx.catalog.BasePrice, provision.FinalPrice)
	assert.Equal(t, fx.consumer.ID, provision.PersonID)
	assert.Nil(t, provision.CompletionDate)
	assert.EqualValues(t, 1, provision.Version)

	// Raising the catalog price later must not touch the captured final price.
	fx.catalog.BasePrice = 120
	require.NoError(t, fx.services.Update(context.Background(), fx.catalog))

	reloaded, err := fx.svc.GetProvision(context.Background(), fx.consumer, provision.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, reloaded.FinalPrice)
}

func TestCreateProvisionRejectsNonConsumers(t *testing.T) {
	fx := newProvisionFixture(t)

	for _, actor := range []*domain.Person{fx.provider, fx.admin} {
		_, err := fx.svc.CreateProvision(context.Background(), actor, ProvisionCreateInput{ServiceID: fx.catalog.ID})
		assert.Equal(t, "FORBIDDEN", errorCode(t, err))
	}
}

func TestCreateProvisionUnknownService(t *testing.T) {
	fx := newProvisionFixture(t)

	_, err := fx.svc.CreateProvision(context.Background(), fx.consumer, ProvisionCreateInput{ServiceID: uuid.NewString()})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestOwnerConsumerMayCancel(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	updated, err := fx.svc.UpdateStatus(context.Background(), fx.consumer, provision.ID, domain.ProvisionStatusCancelled, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.ProvisionStatusCancelled, updated.Status)
	assert.Equal(t, "changed my mind", updated.Notes)
	assert.EqualValues(t, 2, updated.Version)
}

func TestConsumerMayNotAdvance(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.consumer, provision.ID, domain.ProvisionStatusAccepted, "")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestAnyProviderMayAccept(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	// The acting provider has no relationship to the provision at all.
	updated, err := fx.svc.UpdateStatus(context.Background(), fx.provider, provision.ID, domain.ProvisionStatusAccepted, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ProvisionStatusAccepted, updated.Status)
}

func TestProviderMayNotSkipSteps(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.provider, provision.ID, domain.ProvisionStatusCompleted, "")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	stored, getErr := fx.provisions.GetByID(context.Background(), provision.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.ProvisionStatusPending, stored.Status)
}

func TestCompletionStampsTimestampAndKeepsNotes(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	ctx := context.Background()
	for _, step := range []domain.ProvisionStatus{domain.ProvisionStatusAccepted, domain.ProvisionStatusInProgress} {
		_, err := fx.svc.UpdateStatus(ctx, fx.provider, provision.ID, step, "")
		require.NoError(t, err)
	}

	updated, err := fx.svc.UpdateStatus(ctx, fx.provider, provision.ID, domain.ProvisionStatusCompleted, "done")
	require.NoError(t, err)
	assert.Equal(t, domain.ProvisionStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletionDate)
	assert.Equal(t, "done", updated.Notes)
	assert.EqualValues(t, 4, updated.Version)
}

func TestBlankNotesLeaveExistingNotes(t *testing.T) {
	fx := newProvisionFixture(t)
	provision, err := fx.svc.CreateProvision(context.Background(), fx.consumer, ProvisionCreateInput{
		ServiceID: fx.catalog.ID,
		Notes:     "please come in the morning",
	})
	require.NoError(t, err)

	updated, err := fx.svc.UpdateStatus(context.Background(), fx.provider, provision.ID, domain.ProvisionStatusAccepted, "   ")
	require.NoError(t, err)
	assert.Equal(t, "please come in the morning", updated.Notes)
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	ctx := context.Background()
	_, err := fx.svc.UpdateStatus(ctx, fx.consumer, provision.ID, domain.ProvisionStatusCancelled, "")
	require.NoError(t, err)

	for _, next := range []domain.ProvisionStatus{
		domain.ProvisionStatusPending,
		domain.ProvisionStatusAccepted,
		domain.ProvisionStatusCompleted,
		domain.ProvisionStatusCancelled,
	} {
		_, err := fx.svc.UpdateStatus(ctx, fx.provider, provision.ID, next, "")
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
	}

	stored, err := fx.provisions.GetByID(ctx, provision.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvisionStatusCancelled, stored.Status)
	assert.EqualValues(t, 2, stored.Version)
}

func TestAdminHasNoTransitionRights(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.admin, provision.ID, domain.ProvisionStatusAccepted, "")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.provider, provision.ID, domain.ProvisionStatus("SHIPPED"), "")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestUpdateStatusMissingProvision(t *testing.T) {
	fx := newProvisionFixture(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.provider, uuid.NewString(), domain.ProvisionStatusAccepted, "")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestConcurrentWriterGetsConflict(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	// Simulate another writer bumping the version between read and write.
	stored := fx.provisions.items[provision.ID]
	stored.Version++
	fx.provisions.items[provision.ID] = stored

	_, err := fx.svc.UpdateStatus(context.Background(), fx.provider, provision.ID, domain.ProvisionStatusAccepted, "")
	assert.Equal(t, "CONFLICT", errorCode(t, err))
}

func TestListProvisionsScoping(t *testing.T) {
	fx := newProvisionFixture(t)
	ctx := context.Background()

	otherConsumer := &domain.Person{ID: uuid.NewString(), Role: domain.RoleConsumer}
	fx.createProvision(t)
	_, err := fx.svc.CreateProvision(ctx, otherConsumer, ProvisionCreateInput{ServiceID: fx.catalog.ID})
	require.NoError(t, err)

	mine, err := fx.svc.ListProvisions(ctx, fx.consumer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := fx.svc.ListProvisions(ctx, fx.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetProvisionDeniedForUnrelatedConsumer(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	stranger := &domain.Person{ID: uuid.NewString(), Role: domain.RoleConsumer}
	_, err := fx.svc.GetProvision(context.Background(), stranger, provision.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestAcceptedTransitionRecordsHistory(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.provider, provision.ID, domain.ProvisionStatusAccepted, "on my way")
	require.NoError(t, err)

	entries, err := fx.svc.GetHistory(context.Background(), fx.consumer, provision.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ProvisionStatusPending, entries[0].OldStatus)
	assert.Equal(t, domain.ProvisionStatusAccepted, entries[0].NewStatus)
	assert.Equal(t, fx.provider.ID, entries[0].ActorID)
	assert.Equal(t, "on my way", entries[0].Notes)
}

func TestRejectedTransitionLeavesNoHistory(t *testing.T) {
	fx := newProvisionFixture(t)
	provision := fx.createProvision(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.admin, provision.ID, domain.ProvisionStatusAccepted, "")
	require.Error(t, err)

	entries, err := fx.svc.GetHistory(context.Background(), fx.consumer, provision.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
