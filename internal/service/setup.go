package service

import (
	"context"
	"strings"

	"karya/internal/domain"
	"karya/internal/logger"
)

// SetupService runs the one-time provisioning routines.
type SetupService struct {
	identity IdentityProvider
	policies PolicyStore
}

func NewSetupService(identity IdentityProvider, policies PolicyStore) *SetupService {
	return &SetupService{identity: identity, policies: policies}
}

// CreateUser creates username with a temporary password and immediately makes
// the password permanent so the user is not forced through a reset.
func (s *SetupService) CreateUser(ctx context.Context, username, password string) error {
	const op = "create user"
	if strings.TrimSpace(username) == "" || password == "" {
		return domain.Validation(op, "username and password are required")
	}
	if err := s.identity.CreateUser(ctx, username, password); err != nil {
		return domain.Dependency(op, err)
	}
	if err := s.identity.SetPermanentPassword(ctx, username, password); err != nil {
		return domain.Dependency(op, err)
	}
	logger.Info("user created", "username", username)
	return nil
}

// SeedPolicy stores the API invoke policy for group.
func (s *SetupService) SeedPolicy(ctx context.Context, group, apiARN string) error {
	const op = "seed policy"
	if group == "" || apiARN == "" {
		return domain.Validation(op, "group and api arn are required")
	}
	if err := s.policies.PutPolicy(ctx, domain.APIPolicy(group, apiARN)); err != nil {
		return domain.Dependency(op, err)
	}
	logger.Info("policy seeded", "group", group)
	return nil
}
