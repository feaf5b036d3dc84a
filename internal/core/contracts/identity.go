package contracts

import "context"

// IdentityProvider is the external auth collaborator. It issues verification
// emails and turns identity assertions into stable user identities;
// verification mechanics themselves live entirely on the provider side.
type IdentityProvider interface {
	SendVerificationEmail(ctx context.Context, email string) error
	VerifyAssertion(ctx context.Context, assertion string) (string, error)
}
