package model

// Session is the authenticated user context issued by the identity provider.
// It is passed explicitly to every operation that needs an owner.
type Session struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool

	IDToken      string
	RefreshToken string
}

// Name returns DisplayName, or Email when no display name is set
func (s *Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}
