package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/pkg/logging"
)

// AccountService fronts the external identity provider: it relays
// verification-email requests and exchanges provider assertions for relay
// tokens. Verification itself happens entirely on the provider side.
type AccountService struct {
	log      *slog.Logger
	provider contracts.IdentityProvider
	tokens   *TokenService
}

func NewAccountService(log *slog.Logger, provider contracts.IdentityProvider, tokens *TokenService) *AccountService {
	return &AccountService{
		log:      log,
		provider: provider,
		tokens:   tokens,
	}
}

// RequestVerification asks the provider to send a verification link.
func (s *AccountService) RequestVerification(ctx context.Context, email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if err := s.provider.SendVerificationEmail(ctx, email); err != nil {
		s.log.ErrorContext(ctx, "account - request verification - provider call failed",
			slog.String("email", email), logging.Err(err))
		return fmt.Errorf("send verification email: %w", err)
	}
	s.log.InfoContext(ctx, "account - request verification - email sent", slog.String("email", email))
	return nil
}

// Login exchanges a provider assertion for a signed relay token. The returned
// user identity is what connections register under.
func (s *AccountService) Login(ctx context.Context, assertion string) (string, string, error) {
	if assertion == "" {
		return "", "", errors.New("assertion is required")
	}
	userID, err := s.provider.VerifyAssertion(ctx, assertion)
	if err != nil {
		s.log.ErrorContext(ctx, "account - login - assertion rejected", logging.Err(err))
		return "", "", fmt.Errorf("verify assertion: %w", err)
	}
	if !domain.ValidIdentity(userID) {
		s.log.ErrorContext(ctx, "account - login - identity outside allowed alphabet", logging.User(userID))
		return "", "", domain.ErrInvalidIdentity
	}
	token, err := s.tokens.GenerateToken(userID)
	if err != nil {
		s.log.ErrorContext(ctx, "account - login - token generation failed", logging.User(userID), logging.Err(err))
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	s.log.InfoContext(ctx, "account - login - token issued", logging.User(userID))
	return userID, token, nil
}
