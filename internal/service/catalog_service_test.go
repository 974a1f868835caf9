package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/provision-service/internal/domain"
)

type catalogFixture struct {
	svc        *CatalogService
	services   *fakeServiceRepo
	provisions *fakeProvisionRepo
	admin      *domain.Person
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	services := newFakeServiceRepo()
	provisions := newFakeProvisionRepo()
	svc := NewCatalogService(CatalogDependencies{
		ServiceRepo:   services,
		ProvisionRepo: provisions,
		Logger:        zap.NewNop(),
	})

	return &catalogFixture{
		svc:        svc,
		services:   services,
		provisions: provisions,
		admin:      &domain.Person{ID: uuid.NewString(), Role: domain.RoleAdmin},
	}
}

func validInput() ServiceInput {
	return ServiceInput{
		Name:        "Window Washing",
		Description: "Interior and exterior window washing",
		Category:    "Home",
		BasePrice:   40,
	}
}

func TestCreateServiceTrimsAndStores(t *testing.T) {
	fx := newCatalogFixture(t)

	input := validInput()
	input.Name = "  Window Washing  "
	svc, err := fx.svc.CreateService(context.Background(), fx.admin, input)
	require.NoError(t, err)
	assert.Equal(t, "Window Washing", svc.Name)
	assert.NotEmpty(t, svc.ID)

	listed, err := fx.svc.ListServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCreateServiceValidation(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	cases := map[string]func(*ServiceInput){
		"empty name":        func(in *ServiceInput) { in.Name = "  " },
		"name too long":     func(in *ServiceInput) { in.Name = strings.Repeat("x", 101) },
		"empty description": func(in *ServiceInput) { in.Description = "" },
		"category too long": func(in *ServiceInput) { in.Category = strings.Repeat("x", 51) },
		"zero price":        func(in *ServiceInput) { in.BasePrice = 0 },
		"negative price":    func(in *ServiceInput) { in.BasePrice = -5 },
		"price above cap":   func(in *ServiceInput) { in.BasePrice = 10001 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			_, err := fx.svc.CreateService(ctx, fx.admin, input)
			assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
		})
	}
}

func TestUpdateServiceNotFound(t *testing.T) {
	fx := newCatalogFixture(t)

	_, err := fx.svc.UpdateService(context.Background(), fx.admin, uuid.NewString(), validInput())
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestUpdateServiceReplacesFields(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	created, err := fx.svc.CreateService(ctx, fx.admin, validInput())
	require.NoError(t, err)

	input := validInput()
	input.Name = "Deep Window Washing"
	input.BasePrice = 60
	updated, err := fx.svc.UpdateService(ctx, fx.admin, created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Deep Window Washing", updated.Name)
	assert.Equal(t, 60.0, updated.BasePrice)
}

func TestDeleteServiceBlockedWhileReferenced(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	created, err := fx.svc.CreateService(ctx, fx.admin, validInput())
	require.NoError(t, err)

	provision := &domain.Provision{
		PersonID:  uuid.NewString(),
		ServiceID: created.ID,
		Status:    domain.ProvisionStatusCancelled,
	}
	require.NoError(t, fx.provisions.Create(ctx, provision))

	// Even a terminal provision keeps the service pinned.
	err = fx.svc.DeleteService(ctx, fx.admin, created.ID)
	assert.Equal(t, "RESOURCE_IN_USE", errorCode(t, err))

	_, err = fx.svc.GetService(ctx, created.ID)
	assert.NoError(t, err)
}

func TestDeleteServiceWithoutReferences(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	created, err := fx.svc.CreateService(ctx, fx.admin, validInput())
	require.NoError(t, err)

	require.NoError(t, fx.svc.DeleteService(ctx, fx.admin, created.ID))

	_, err = fx.svc.GetService(ctx, created.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestGetServiceNotFound(t *testing.T) {
	fx := newCatalogFixture(t)

	_, err := fx.svc.GetService(context.Background(), uuid.NewString())
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}
