package identity

import (
	"context"
	"net/url"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const (
	oobPasswordReset = "PASSWORD_RESET"
	oobVerifyEmail   = "VERIFY_EMAIL"

	// requestURI is required by verifyAssertion; the value is only echoed back
	requestURI = "http://localhost"
)

// Toolkit implements Provider with the Identity Toolkit API of a Firebase
// project, authenticated by the project's Web API key
type Toolkit struct {
	relyingparty *identitytoolkit.RelyingpartyService
}

// NewToolkit creates a Provider. Extra client options (endpoint, HTTP client)
// are appended after the API key.
func NewToolkit(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Toolkit, error) {
	if apiKey == "" {
		return nil, goerr.New("firebase API key is required")
	}

	svc, err := identitytoolkit.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create identity toolkit client")
	}

	return &Toolkit{relyingparty: svc.Relyingparty}, nil
}

func (t *Toolkit) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	resp, err := t.relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toAuthError(err)
	}

	return &model.Session{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (t *Toolkit) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	resp, err := t.relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toAuthError(err)
	}

	// verifyPassword does not report the verification state
	return t.Reload(ctx, &model.Session{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	})
}

func (t *Toolkit) SignInWithProvider(ctx context.Context, cred Credential) (*model.Session, error) {
	if cred.ProviderID == "" || (cred.IDToken == "" && cred.AccessToken == "") {
		return nil, &AuthError{Code: CodeInvalidCredential}
	}

	body := url.Values{}
	body.Set("providerId", cred.ProviderID)
	if cred.IDToken != "" {
		body.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		body.Set("access_token", cred.AccessToken)
	}

	resp, err := t.relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        requestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toAuthError(err)
	}
	if resp.NeedConfirmation {
		return nil, &AuthError{Code: CodeAccountExistsWithOtherIdp}
	}
	if resp.ErrorMessage != "" {
		return nil, &AuthError{Code: CodeInvalidCredential, ProviderMessage: resp.ErrorMessage}
	}

	return &model.Session{
		UID:           resp.LocalId,
		Email:         resp.Email,
		DisplayName:   resp.DisplayName,
		EmailVerified: resp.EmailVerified,
		IDToken:       resp.IdToken,
		RefreshToken:  resp.RefreshToken,
	}, nil
}

func (t *Toolkit) SendPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return &AuthError{Code: CodeMissingEmail}
	}
	_, err := t.relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: oobPasswordReset,
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return toAuthError(err)
	}
	return nil
}

func (t *Toolkit) SendVerification(ctx context.Context, session *model.Session) error {
	if session == nil {
		return ErrNoCurrentUser
	}
	_, err := t.relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: oobVerifyEmail,
		IdToken:     session.IDToken,
	}).Context(ctx).Do()
	if err != nil {
		return toAuthError(err)
	}
	return nil
}

func (t *Toolkit) UpdateDisplayName(ctx context.Context, session *model.Session, name string) (*model.Session, error) {
	if session == nil {
		return nil, ErrNoCurrentUser
	}

	resp, err := t.relyingparty.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:           session.IDToken,
		DisplayName:       name,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toAuthError(err)
	}

	updated := *session
	updated.DisplayName = resp.DisplayName
	updated.EmailVerified = resp.EmailVerified
	if resp.IdToken != "" {
		updated.IDToken = resp.IdToken
	}
	if resp.RefreshToken != "" {
		updated.RefreshToken = resp.RefreshToken
	}
	return &updated, nil
}

func (t *Toolkit) Reload(ctx context.Context, session *model.Session) (*model.Session, error) {
	if session == nil {
		return nil, ErrNoCurrentUser
	}

	resp, err := t.relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: session.IDToken,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toAuthError(err)
	}
	if len(resp.Users) == 0 {
		return nil, &AuthError{Code: CodeUserNotFound}
	}

	user := resp.Users[0]
	updated := *session
	updated.UID = user.LocalId
	updated.Email = user.Email
	updated.DisplayName = user.DisplayName
	updated.EmailVerified = user.EmailVerified
	return &updated, nil
}
