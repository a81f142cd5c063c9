package identity

import (
	"context"
	"sync"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
)

// Listener is called with the new session, or nil after sign out
type Listener func(session *model.Session)

// Manager keeps the session of an interactive client and notifies listeners
// on every change. Callers still pass the session explicitly to the
// operations that need it.
type Manager struct {
	provider Provider

	mu        sync.Mutex
	session   *model.Session
	listeners map[int]Listener
	nextID    int
}

func NewManager(provider Provider) *Manager {
	return &Manager{
		provider:  provider,
		listeners: make(map[int]Listener),
	}
}

// Current returns a copy of the current session, or nil
func (m *Manager) Current() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySession(m.session)
}

// Subscribe registers fn and calls it once with the current session. The
// returned function removes the subscription.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	current := copySession(m.session)
	m.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// SignUp creates the account and sends the verification email
func (m *Manager) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	session, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		logFailure(ctx, "sign up failed", err)
		return nil, err
	}

	// The account exists at this point; a failed email is reported but the
	// user can ask for it again later.
	if err := m.provider.SendVerification(ctx, session); err != nil {
		logFailure(ctx, "failed to send verification email", err)
	}

	m.set(session)
	return copySession(session), nil
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	session, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		logFailure(ctx, "sign in failed", err)
		return nil, err
	}
	m.set(session)
	return copySession(session), nil
}

func (m *Manager) SignInWithProvider(ctx context.Context, cred Credential) (*model.Session, error) {
	session, err := m.provider.SignInWithProvider(ctx, cred)
	if err != nil {
		logFailure(ctx, "provider sign in failed", err, "provider", cred.ProviderID)
		return nil, err
	}
	m.set(session)
	return copySession(session), nil
}

// SignOut drops the current session. Tokens are not revoked at the provider.
func (m *Manager) SignOut() {
	m.set(nil)
}

func (m *Manager) SendPasswordReset(ctx context.Context, email string) error {
	if err := m.provider.SendPasswordReset(ctx, email); err != nil {
		logFailure(ctx, "password reset failed", err)
		return err
	}
	return nil
}

func (m *Manager) ResendVerification(ctx context.Context, session *model.Session) error {
	if session == nil {
		return ErrNoCurrentUser
	}
	if err := m.provider.SendVerification(ctx, session); err != nil {
		logFailure(ctx, "verification email failed", err)
		if ae := toAuthError(err); ae.Code == CodeTooManyRequests {
			return &AuthError{
				Code:    ae.Code,
				Message: "Too many requests. Please wait a few minutes before trying again.",
				Err:     err,
			}
		}
		return err
	}
	return nil
}

func (m *Manager) UpdateDisplayName(ctx context.Context, session *model.Session, name string) (*model.Session, error) {
	if session == nil {
		return nil, ErrNoCurrentUser
	}
	updated, err := m.provider.UpdateDisplayName(ctx, session, name)
	if err != nil {
		logFailure(ctx, "update profile failed", err)
		return nil, err
	}
	m.set(updated)
	return copySession(updated), nil
}

func (m *Manager) Reload(ctx context.Context, session *model.Session) (*model.Session, error) {
	if session == nil {
		return nil, ErrNoCurrentUser
	}
	updated, err := m.provider.Reload(ctx, session)
	if err != nil {
		logFailure(ctx, "reload session failed", err)
		return nil, err
	}
	m.set(updated)
	return copySession(updated), nil
}

func (m *Manager) set(session *model.Session) {
	m.mu.Lock()
	m.session = copySession(session)
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(copySession(session))
	}
}

func copySession(s *model.Session) *model.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func logFailure(ctx context.Context, msg string, err error, args ...any) {
	code := ""
	if ae := toAuthError(err); ae != nil {
		code = ae.Code
	}
	logging.From(ctx).Warn(msg, append([]any{"code", code, "error", err}, args...)...)
}
