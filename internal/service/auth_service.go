package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/provision-service/internal/auth"
	"github.com/spec-kit/provision-service/internal/config"
	"github.com/spec-kit/provision-service/internal/domain"
	"github.com/spec-kit/provision-service/internal/repository"
	apperrors "github.com/spec-kit/provision-service/pkg/util"
)

// AuthService coordinates registration, login and profile flows.
type AuthService struct {
	persons    repository.PersonRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	PersonRepo        repository.PersonRepository
	PasswordResetRepo repository.PasswordResetRepository
}

// RegisterInput describes a registration payload. Role is chosen at
// registration and immutable afterwards; admins are seeded, never registered.
type RegisterInput struct {
	FirstName          string
	LastName           string
	Email              string
	Password           string
	Role               domain.Role
	ProfileDescription string
}

// ProfileInput describes a profile update payload.
type ProfileInput struct {
	FirstName          string
	LastName           string
	ProfileDescription string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		persons:    deps.PersonRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// Register creates a new consumer or provider account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.Person, string, time.Time, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("first_name, last_name, email, password required", nil)
	}
	if input.Role != domain.RoleConsumer && input.Role != domain.RoleProvider {
		return nil, "", time.Time{}, apperrors.NewValidationError("role must be CONSUMER or PROVIDER", map[string]any{"role": string(input.Role)})
	}

	if _, err := s.persons.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	person := &domain.Person{
		FirstName:          strings.TrimSpace(input.FirstName),
		LastName:           strings.TrimSpace(input.LastName),
		Email:              email,
		PasswordHash:       hash,
		Role:               input.Role,
		ProfileDescription: strings.TrimSpace(input.ProfileDescription),
	}
	if err := s.persons.Create(ctx, person); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(person)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return person, token, exp, nil
}

// Login authenticates a person by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Person, string, time.Time, error) {
	person, err := s.persons.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(person.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(person)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return person, token, exp, nil
}

// GetProfile returns the person's account data.
func (s *AuthService) GetProfile(ctx context.Context, personID string) (*domain.Person, error) {
	person, err := s.persons.GetByID(ctx, personID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("person", map[string]any{"id": personID})
		}
		return nil, err
	}
	return person, nil
}

// UpdateProfile mutates profile fields. Role and email stay fixed.
func (s *AuthService) UpdateProfile(ctx context.Context, personID string, input ProfileInput) (*domain.Person, error) {
	person, err := s.persons.GetByID(ctx, personID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("person", map[string]any{"id": personID})
		}
		return nil, err
	}

	person.FirstName = strings.TrimSpace(input.FirstName)
	person.LastName = strings.TrimSpace(input.LastName)
	person.ProfileDescription = strings.TrimSpace(input.ProfileDescription)

	if err := s.persons.Update(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, personID, currentPassword, newPassword string) error {
	person, err := s.persons.GetByID(ctx, personID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(person.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	person.PasswordHash = hash
	return s.persons.Update(ctx, person)
}

// RequestPasswordReset persists a single-use reset token for the email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	person, err := s.persons.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("person", map[string]any{"email": email})
		}
		return nil, err
	}

	token := &repository.PasswordResetToken{
		PersonID:  person.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewValidationError("unknown reset token", nil)
		}
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("token expired or used", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	person, err := s.persons.GetByID(ctx, token.PersonID)
	if err != nil {
		return err
	}
	person.PasswordHash = hash
	if err := s.persons.Update(ctx, person); err != nil {
		return err
	}
	return s.resets.MarkUsed(ctx, token.ID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
