package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/provision-service/internal/auth"
	"github.com/spec-kit/provision-service/internal/config"
	"github.com/spec-kit/provision-service/internal/domain"
	"github.com/spec-kit/provision-service/internal/repository"
)

// BootstrapService performs the one-time deployment setup: the admin account
// and a starter catalog. Every step is idempotent so the service can run it on
// each boot.
type BootstrapService struct {
	persons  repository.PersonRepository
	services repository.ServiceRepository
	cfg      config.Config
	logger   *zap.Logger
}

// NewBootstrapService constructs the service.
func NewBootstrapService(persons repository.PersonRepository, services repository.ServiceRepository, cfg config.Config, logger *zap.Logger) *BootstrapService {
	return &BootstrapService{persons: persons, services: services, cfg: cfg, logger: logger}
}

// Run seeds the admin account and sample services.
func (s *BootstrapService) Run(ctx context.Context) error {
	if !s.cfg.Seed.Enabled {
		s.logger.Info("seeding disabled")
		return nil
	}
	if err := s.seedAdmin(ctx); err != nil {
		return err
	}
	return s.seedServices(ctx)
}

func (s *BootstrapService) seedAdmin(ctx context.Context) error {
	seed := s.cfg.Seed
	if _, err := s.persons.GetByEmail(ctx, seed.AdminEmail); err == nil {
		return nil
	} else if err != pgx.ErrNoRows {
		return err
	}

	if seed.AdminPassword == "" {
		s.logger.Warn("SEED_ADMIN_PASSWORD not set; skipping admin account seed")
		return nil
	}

	hash, err := auth.HashPassword(seed.AdminPassword, s.cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.Person{
		FirstName:    seed.AdminFirstName,
		LastName:     seed.AdminLastName,
		Email:        seed.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.persons.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("seeded admin account", zap.String("email", seed.AdminEmail))
	return nil
}

func (s *BootstrapService) seedServices(ctx context.Context) error {
	count, err := s.services.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	samples := []domain.Service{
		{Name: "House Cleaning", Description: "Professional house cleaning service", Category: "Home", BasePrice: 75.00},
		{Name: "Lawn Mowing", Description: "Lawn mowing and trimming service", Category: "Garden", BasePrice: 50.00},
		{Name: "Computer Repair", Description: "PC and laptop repair service", Category: "Technology", BasePrice: 85.00},
	}
	for i := range samples {
		if err := s.services.Create(ctx, &samples[i]); err != nil {
			return err
		}
	}
	s.logger.Info("seeded sample services", zap.Int("count", len(samples)))
	return nil
}
