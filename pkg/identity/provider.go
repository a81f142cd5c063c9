// Package identity talks to the external identity provider and tracks the
// signed-in session for interactive clients.
package identity

import (
	"context"

	"github.com/m-mizutani/digitnote/pkg/model"
)

// Credential is a token issued by a federated identity provider
type Credential struct {
	// ProviderID such as "google.com"
	ProviderID  string
	IDToken     string
	AccessToken string
}

// Provider is the identity collaborator contract. Every error it returns is
// an *AuthError.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignInWithProvider(ctx context.Context, cred Credential) (*model.Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	SendVerification(ctx context.Context, session *model.Session) error
	UpdateDisplayName(ctx context.Context, session *model.Session, name string) (*model.Session, error)
	// Reload fetches the latest profile, e.g. after the email was verified
	Reload(ctx context.Context, session *model.Session) (*model.Session, error)
}
