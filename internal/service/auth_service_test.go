package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/provision-service/internal/config"
	"github.com/spec-kit/provision-service/internal/domain"
	"github.com/spec-kit/provision-service/internal/repository"
)

type fakePersonRepo struct {
	items map[string]domain.Person
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{items: map[string]domain.Person{}}
}

func (f *fakePersonRepo) Create(_ context.Context, person *domain.Person) error {
	person.ID = uuid.NewString()
	person.CreatedAt = time.Now()
	person.UpdatedAt = person.CreatedAt
	f.items[person.ID] = *person
	return nil
}

func (f *fakePersonRepo) Update(_ context.Context, person *domain.Person) error {
	if _, ok := f.items[person.ID]; !ok {
		return pgx.ErrNoRows
	}
	person.UpdatedAt = time.Now()
	f.items[person.ID] = *person
	return nil
}

func (f *fakePersonRepo) GetByID(_ context.Context, id string) (*domain.Person, error) {
	stored, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (f *fakePersonRepo) GetByEmail(_ context.Context, email string) (*domain.Person, error) {
	for _, p := range f.items {
		if p.Email == email {
			copied := p
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeResetRepo struct {
	items map[string]repository.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{items: map[string]repository.PasswordResetToken{}}
}

func (f *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	f.items[token.ID] = *token
	return nil
}

func (f *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	for _, t := range f.items {
		if t.Token == tokenStr {
			copied := t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	stored, ok := f.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	stored.UsedAt = &now
	f.items[id] = stored
	return nil
}

func newAuthFixture() (*AuthService, *fakePersonRepo, *fakeResetRepo) {
	persons := newFakePersonRepo()
	resets := newFakeResetRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              4,
		},
	}
	return NewAuthService(cfg, AuthDependencies{PersonRepo: persons, PasswordResetRepo: resets}), persons, resets
}

func registerInput(role domain.Role) RegisterInput {
	return RegisterInput{
		FirstName: "Jamie",
		LastName:  "Doe",
		Email:     "jamie@example.com",
		Password:  "s3cret-pass",
		Role:      role,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	person, token, exp, err := svc.Register(ctx, registerInput(domain.RoleConsumer))
	require.NoError(t, err)
	assert.NotEmpty(t, person.ID)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))
	assert.NotEqual(t, "s3cret-pass", person.PasswordHash, "password must never be stored in clear")

	loggedIn, loginToken, _, err := svc.Login(ctx, "Jamie@Example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, person.ID, loggedIn.ID)
	assert.NotEmpty(t, loginToken)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, _, _, err := svc.Register(context.Background(), registerInput(domain.RoleAdmin))
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, registerInput(domain.RoleConsumer))
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, registerInput(domain.RoleProvider))
	assert.Equal(t, "CONFLICT", errorCode(t, err))
}

func TestLoginBadPassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, registerInput(domain.RoleConsumer))
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "jamie@example.com", "wrong")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	_, _, _, err = svc.Login(ctx, "unknown@example.com", "whatever")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	person, _, _, err := svc.Register(ctx, registerInput(domain.RoleProvider))
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(ctx, person.Email)
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token.Token, "brand-new-pass"))

	_, _, _, err = svc.Login(ctx, person.Email, "brand-new-pass")
	assert.NoError(t, err)

	// A token is single use.
	err = svc.ConfirmPasswordReset(ctx, token.Token, "another-pass")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	person, _, _, err := svc.Register(ctx, registerInput(domain.RoleConsumer))
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, person.ID, "wrong", "new-pass")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	require.NoError(t, svc.ChangePassword(ctx, person.ID, "s3cret-pass", "new-pass"))
	_, _, _, err = svc.Login(ctx, person.Email, "new-pass")
	assert.NoError(t, err)
}
