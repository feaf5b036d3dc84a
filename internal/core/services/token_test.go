package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"courier/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	req := require.New(t)
	svc := NewTokenService("test-secret", "courier", time.Hour)

	token, err := svc.GenerateToken("u1")
	req.NoError(err)

	sub, err := svc.ValidateToken(token)
	req.NoError(err)
	req.Equal("u1", sub)
}

func TestTokenService_RejectsTampered(t *testing.T) {
	req := require.New(t)
	svc := NewTokenService("test-secret", "courier", time.Hour)
	other := NewTokenService("other-secret", "courier", time.Hour)

	token, err := other.GenerateToken("u1")
	req.NoError(err)

	_, err = svc.ValidateToken(token)
	req.Error(err)

	_, err = svc.ValidateToken("not.a.token")
	req.Error(err)
}

type fakeProvider struct {
	userID  string
	sendErr error
	sent    []string
}

func (p *fakeProvider) SendVerificationEmail(_ context.Context, email string) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, email)
	return nil
}

func (p *fakeProvider) VerifyAssertion(_ context.Context, assertion string) (string, error) {
	if p.userID == "" {
		return "", errors.New("unknown assertion")
	}
	return p.userID, nil
}

func TestAccountService_Login(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenService("test-secret", "courier", time.Hour)
	svc := NewAccountService(slog.Default(), &fakeProvider{userID: "u1"}, tokens)

	userID, token, err := svc.Login(context.Background(), "assertion-abc")
	req.NoError(err)
	req.Equal("u1", userID)

	sub, err := tokens.ValidateToken(token)
	req.NoError(err)
	req.Equal("u1", sub)
}

func TestAccountService_LoginRejectsBadIdentity(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenService("test-secret", "courier", time.Hour)

	// provider hands back an identity containing the key separator
	svc := NewAccountService(slog.Default(), &fakeProvider{userID: "u_1"}, tokens)
	_, _, err := svc.Login(context.Background(), "assertion-abc")
	req.ErrorIs(err, domain.ErrInvalidIdentity)

	_, _, err = svc.Login(context.Background(), "")
	req.Error(err)
}

func TestAccountService_RequestVerification(t *testing.T) {
	req := require.New(t)
	provider := &fakeProvider{}
	svc := NewAccountService(slog.Default(), provider, nil)

	req.NoError(svc.RequestVerification(context.Background(), "a@example.com"))
	req.Equal([]string{"a@example.com"}, provider.sent)
	req.Error(svc.RequestVerification(context.Background(), ""))
}
