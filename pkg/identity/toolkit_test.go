package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	"github.com/m-mizutani/digitnote/pkg/identity"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/gt"
	"google.golang.org/api/option"
)

type toolkitCall struct {
	method string
	key    string
	body   map[string]any
}

func newToolkit(t *testing.T, responses map[string]func(body map[string]any) (int, any)) (*identity.Toolkit, *[]toolkitCall) {
	t.Helper()
	var calls []toolkitCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := path.Base(r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, toolkitCall{method: method, key: r.URL.Query().Get("key"), body: body})

		fn, ok := responses[method]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		status, resp := fn(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	tk, err := identity.NewToolkit(context.Background(), "test-api-key", option.WithEndpoint(srv.URL+"/"))
	gt.NoError(t, err)
	return tk, &calls
}

func providerError(message string) (int, any) {
	return http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":    400,
			"message": message,
			"errors":  []any{map[string]any{"message": message, "domain": "global", "reason": "invalid"}},
		},
	}
}

func TestToolkitSignIn(t *testing.T) {
	tk, calls := newToolkit(t, map[string]func(map[string]any) (int, any){
		"verifyPassword": func(body map[string]any) (int, any) {
			if body["password"] != "secret123" {
				return providerError("INVALID_LOGIN_CREDENTIALS")
			}
			return http.StatusOK, map[string]any{
				"localId":      "uid-1",
				"email":        body["email"],
				"idToken":      "id-token",
				"refreshToken": "refresh-token",
				"registered":   true,
			}
		},
		"getAccountInfo": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{
				"users": []any{map[string]any{
					"localId":       "uid-1",
					"email":         "a@example.com",
					"displayName":   "Alice",
					"emailVerified": true,
				}},
			}
		},
	})

	s, err := tk.SignIn(context.Background(), "a@example.com", "secret123")
	gt.NoError(t, err)
	gt.Equal(t, s.UID, "uid-1")
	gt.Equal(t, s.DisplayName, "Alice")
	gt.True(t, s.EmailVerified)
	gt.Equal(t, s.IDToken, "id-token")
	gt.Equal(t, (*calls)[0].key, "test-api-key")
	gt.Equal(t, (*calls)[1].body["idToken"], any("id-token"))

	_, err = tk.SignIn(context.Background(), "a@example.com", "wrong")
	gt.Error(t, err)
	gt.Equal(t, model.DisplayMessage(err), "Invalid email or password. Please try again.")
}

func TestToolkitSignUp(t *testing.T) {
	tk, _ := newToolkit(t, map[string]func(map[string]any) (int, any){
		"signupNewUser": func(body map[string]any) (int, any) {
			if body["email"] == "taken@example.com" {
				return providerError("EMAIL_EXISTS")
			}
			return http.StatusOK, map[string]any{
				"localId": "uid-2",
				"email":   body["email"],
				"idToken": "id-token-2",
			}
		},
	})

	s, err := tk.SignUp(context.Background(), "new@example.com", "secret123")
	gt.NoError(t, err)
	gt.Equal(t, s.UID, "uid-2")
	gt.False(t, s.EmailVerified)

	_, err = tk.SignUp(context.Background(), "taken@example.com", "secret123")
	gt.Equal(t, model.DisplayMessage(err), "This email is already registered. Please sign in instead.")
}

func TestToolkitOobCodes(t *testing.T) {
	tk, calls := newToolkit(t, map[string]func(map[string]any) (int, any){
		"getOobConfirmationCode": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"email": body["email"]}
		},
	})
	ctx := context.Background()

	gt.NoError(t, tk.SendPasswordReset(ctx, "a@example.com"))
	gt.NoError(t, tk.SendVerification(ctx, &model.Session{IDToken: "id-token"}))

	gt.A(t, *calls).Length(2)
	gt.Equal(t, (*calls)[0].body["requestType"], any("PASSWORD_RESET"))
	gt.Equal(t, (*calls)[0].body["email"], any("a@example.com"))
	gt.Equal(t, (*calls)[1].body["requestType"], any("VERIFY_EMAIL"))
	gt.Equal(t, (*calls)[1].body["idToken"], any("id-token"))

	err := tk.SendPasswordReset(ctx, "")
	gt.Equal(t, model.DisplayMessage(err), "Please enter your email address.")
	gt.A(t, *calls).Length(2)
}

func TestToolkitUpdateDisplayName(t *testing.T) {
	tk, _ := newToolkit(t, map[string]func(map[string]any) (int, any){
		"setAccountInfo": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{
				"localId":     "uid-1",
				"displayName": body["displayName"],
				"idToken":     "new-token",
			}
		},
	})

	s, err := tk.UpdateDisplayName(context.Background(), &model.Session{UID: "uid-1", IDToken: "old"}, "Bob")
	gt.NoError(t, err)
	gt.Equal(t, s.DisplayName, "Bob")
	gt.Equal(t, s.IDToken, "new-token")

	_, err = tk.UpdateDisplayName(context.Background(), nil, "Bob")
	gt.Equal(t, model.DisplayMessage(err), "No user logged in")
}

func TestToolkitSignInWithProvider(t *testing.T) {
	tk, calls := newToolkit(t, map[string]func(map[string]any) (int, any){
		"verifyAssertion": func(body map[string]any) (int, any) {
			return http.StatusOK, map[string]any{
				"localId":       "google-uid",
				"email":         "g@example.com",
				"emailVerified": true,
				"idToken":       "gid",
			}
		},
	})

	s, err := tk.SignInWithProvider(context.Background(), identity.Credential{ProviderID: "google.com", IDToken: "google-jwt"})
	gt.NoError(t, err)
	gt.Equal(t, s.UID, "google-uid")
	gt.True(t, s.EmailVerified)
	gt.S(t, (*calls)[0].body["postBody"].(string)).Contains("id_token=google-jwt")

	_, err = tk.SignInWithProvider(context.Background(), identity.Credential{})
	gt.Error(t, err)
}

func TestNewToolkitRequiresKey(t *testing.T) {
	_, err := identity.NewToolkit(context.Background(), "")
	gt.Error(t, err)
}
