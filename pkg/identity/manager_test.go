package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/digitnote/pkg/identity"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/gt"
)

type mockProvider struct {
	users        map[string]string
	verifyErr    error
	verified     []string
	resetEmails  []string
	reloadVerify bool
}

func newMockProvider() *mockProvider {
	return &mockProvider{users: map[string]string{}}
}

func (p *mockProvider) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	if _, ok := p.users[email]; ok {
		return nil, &identity.AuthError{Code: identity.CodeEmailAlreadyInUse}
	}
	if len(password) < 6 {
		return nil, &identity.AuthError{Code: identity.CodeWeakPassword}
	}
	p.users[email] = password
	return &model.Session{UID: "uid-" + email, Email: email, IDToken: "token-" + email}, nil
}

func (p *mockProvider) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if pw, ok := p.users[email]; !ok || pw != password {
		return nil, &identity.AuthError{Code: identity.CodeInvalidLoginCredentials}
	}
	return &model.Session{UID: "uid-" + email, Email: email, IDToken: "token-" + email}, nil
}

func (p *mockProvider) SignInWithProvider(ctx context.Context, cred identity.Credential) (*model.Session, error) {
	if cred.IDToken == "" {
		return nil, &identity.AuthError{Code: identity.CodeInvalidCredential}
	}
	return &model.Session{UID: "google-user", Email: "g@example.com", EmailVerified: true}, nil
}

func (p *mockProvider) SendPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return &identity.AuthError{Code: identity.CodeMissingEmail}
	}
	p.resetEmails = append(p.resetEmails, email)
	return nil
}

func (p *mockProvider) SendVerification(ctx context.Context, session *model.Session) error {
	if p.verifyErr != nil {
		return p.verifyErr
	}
	p.verified = append(p.verified, session.Email)
	return nil
}

func (p *mockProvider) UpdateDisplayName(ctx context.Context, session *model.Session, name string) (*model.Session, error) {
	updated := *session
	updated.DisplayName = name
	return &updated, nil
}

func (p *mockProvider) Reload(ctx context.Context, session *model.Session) (*model.Session, error) {
	updated := *session
	updated.EmailVerified = p.reloadVerify
	return &updated, nil
}

func TestManagerSubscribe(t *testing.T) {
	ctx := context.Background()
	m := identity.NewManager(newMockProvider())

	var seen []*model.Session
	unsubscribe := m.Subscribe(func(s *model.Session) {
		seen = append(seen, s)
	})

	// called immediately with the current (empty) session
	gt.A(t, seen).Length(1)
	gt.True(t, seen[0] == nil)

	s, err := m.SignUp(ctx, "a@example.com", "secret123")
	gt.NoError(t, err)
	gt.Equal(t, s.Email, "a@example.com")
	gt.A(t, seen).Length(2)
	gt.Equal(t, seen[1].Email, "a@example.com")

	_, err = m.UpdateDisplayName(ctx, s, "Alice")
	gt.NoError(t, err)
	gt.A(t, seen).Length(3)
	gt.Equal(t, seen[2].DisplayName, "Alice")
	gt.Equal(t, m.Current().Name(), "Alice")

	m.SignOut()
	gt.A(t, seen).Length(4)
	gt.True(t, seen[3] == nil)
	gt.True(t, m.Current() == nil)

	unsubscribe()
	unsubscribe()
	_, err = m.SignIn(ctx, "a@example.com", "secret123")
	gt.NoError(t, err)
	gt.A(t, seen).Length(4)
}

func TestManagerSignUpSendsVerification(t *testing.T) {
	p := newMockProvider()
	m := identity.NewManager(p)

	_, err := m.SignUp(context.Background(), "b@example.com", "secret123")
	gt.NoError(t, err)
	gt.A(t, p.verified).Length(1)
	gt.Equal(t, p.verified[0], "b@example.com")
}

func TestManagerSignUpVerificationFailureKeepsSession(t *testing.T) {
	p := newMockProvider()
	p.verifyErr = &identity.AuthError{Code: identity.CodeTooManyRequests}
	m := identity.NewManager(p)

	s, err := m.SignUp(context.Background(), "c@example.com", "secret123")
	gt.NoError(t, err)
	gt.NotNil(t, s)
	gt.NotNil(t, m.Current())
}

func TestManagerErrors(t *testing.T) {
	ctx := context.Background()
	p := newMockProvider()
	m := identity.NewManager(p)

	_, err := m.SignUp(ctx, "d@example.com", "123")
	gt.Equal(t, model.DisplayMessage(err), "Password is too weak. Please use at least 6 characters.")

	_, err = m.SignIn(ctx, "nobody@example.com", "secret123")
	gt.Equal(t, model.DisplayMessage(err), "Invalid email or password. Please try again.")
	gt.True(t, m.Current() == nil)

	err = m.SendPasswordReset(ctx, "")
	gt.Equal(t, model.DisplayMessage(err), "Please enter your email address.")

	err = m.ResendVerification(ctx, nil)
	gt.True(t, errors.Is(err, identity.ErrNoCurrentUser))
	gt.Equal(t, model.DisplayMessage(err), "No user logged in")

	_, err = m.UpdateDisplayName(ctx, nil, "x")
	gt.Equal(t, model.DisplayMessage(err), "No user logged in")
}

func TestManagerResendVerificationTooManyRequests(t *testing.T) {
	p := newMockProvider()
	p.verifyErr = &identity.AuthError{Code: identity.CodeTooManyRequests}
	m := identity.NewManager(p)

	err := m.ResendVerification(context.Background(), &model.Session{Email: "e@example.com"})
	gt.Error(t, err)
	gt.Equal(t, model.DisplayMessage(err), "Too many requests. Please wait a few minutes before trying again.")
}

func TestManagerReload(t *testing.T) {
	p := newMockProvider()
	p.reloadVerify = true
	m := identity.NewManager(p)

	s, err := m.Reload(context.Background(), &model.Session{UID: "u", Email: "f@example.com"})
	gt.NoError(t, err)
	gt.True(t, s.EmailVerified)
	gt.True(t, m.Current().EmailVerified)
}

func TestManagerSignInWithProvider(t *testing.T) {
	m := identity.NewManager(newMockProvider())

	_, err := m.SignInWithProvider(context.Background(), identity.Credential{ProviderID: "google.com"})
	gt.Equal(t, model.DisplayMessage(err), "Invalid email or password. Please try again.")

	s, err := m.SignInWithProvider(context.Background(), identity.Credential{ProviderID: "google.com", IDToken: "tok"})
	gt.NoError(t, err)
	gt.Equal(t, s.UID, "google-user")
}

func TestManagerCurrentIsCopy(t *testing.T) {
	m := identity.NewManager(newMockProvider())
	_, err := m.SignUp(context.Background(), "g@example.com", "secret123")
	gt.NoError(t, err)

	s := m.Current()
	s.DisplayName = "changed"
	gt.Equal(t, m.Current().DisplayName, "")
}
