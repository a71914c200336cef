package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	apperrors "github.com/target/secretshare/internal/errors"
	"github.com/target/secretshare/internal/service"
)

// AuthServiceInterface defines the auth operations the browser handlers need.
type AuthServiceInterface interface {
	SessionRestorer
	Register(ctx context.Context, creds service.LocalCredentials) (*service.LoginResult, error)
	LoginLocal(ctx context.Context, email, password string) (*service.LoginResult, error)
	BeginFederatedLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteFederatedLogin(ctx context.Context, input service.CompleteLoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	SessionMaxAge() int
}

// AuthHandlers provides HTTP handlers for registration, login and logout.
type AuthHandlers struct {
	Svc      AuthServiceInterface
	Renderer *TemplateRenderer
	Cookies  CookieWriter
	// CallbackURL is the absolute federated callback URL registered with the provider.
	CallbackURL string
	Logger      *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Register creates a local account and logs it in.
// POST /register (username, password).
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderRegisterError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	result, err := h.Svc.Register(r.Context(), service.LocalCredentials{
		Email:    r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
	switch {
	case err == nil:
	case errors.Is(err, domainauth.ErrEmailTaken):
		h.renderRegisterError(w, r, http.StatusConflict, msgEmailTaken)
		return
	case apperrors.IsValidation(err):
		h.renderRegisterError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	default:
		writeInternalError(w, r, h.logger(), err)
		return
	}

	h.startSession(w, r, result.Session)
	http.Redirect(w, r, pathSecrets, http.StatusFound)
}

// Login verifies a local email/password pair.
// POST /login (username, password). Every rejection redirects back to the login page.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, pathLogin, http.StatusFound)
		return
	}

	result, err := h.Svc.LoginLocal(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if domainauth.IsRejection(err) {
			http.Redirect(w, r, pathLogin, http.StatusFound)
			return
		}
		writeInternalError(w, r, h.logger(), err)
		return
	}

	h.startSession(w, r, result.Session)
	http.Redirect(w, r, pathSecrets, http.StatusFound)
}

// GoogleBegin starts the federated login flow.
// GET /auth/google.
func (h *AuthHandlers) GoogleBegin(w http.ResponseWriter, r *http.Request) {
	result, err := h.Svc.BeginFederatedLogin(r.Context(), h.CallbackURL)
	if err != nil {
		h.logger().WarnContext(r.Context(), "federated login begin failed", slog.Any("error", err))
		http.Redirect(w, r, pathLogin, http.StatusFound)
		return
	}

	h.Cookies.SetOAuth(w, r, result.State, result.Nonce)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// GoogleCallback completes the federated login flow.
// GET /auth/google/secrets?code=<code>&state=<state>. Denials and provider failures land on the login page.
func (h *AuthHandlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.Cookies.Clear(w, r, OAuthStateCookieName)
	h.Cookies.Clear(w, r, OAuthNonceCookieName)

	if providerErr := q.Get("error"); providerErr != "" {
		h.logger().InfoContext(r.Context(), "federated login denied by provider", slog.String("error", providerErr))
		http.Redirect(w, r, pathLogin, http.StatusFound)
		return
	}

	state := q.Get("state")
	stateCookie, err := r.Cookie(OAuthStateCookieName)
	if state == "" || err != nil || stateCookie.Value != state {
		h.logger().InfoContext(r.Context(), "federated login state mismatch")
		http.Redirect(w, r, pathLogin, http.StatusFound)
		return
	}
	nonceCookie, err := r.Cookie(OAuthNonceCookieName)
	if err != nil {
		h.logger().InfoContext(r.Context(), "federated login nonce missing")
		http.Redirect(w, r, pathLogin, http.StatusFound)
		return
	}

	result, err := h.Svc.CompleteFederatedLogin(r.Context(), service.CompleteLoginInput{
		Code:  q.Get("code"),
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		var pe *domainauth.ProviderError
		if errors.As(err, &pe) {
			http.Redirect(w, r, pathLogin, http.StatusFound)
			return
		}
		writeInternalError(w, r, h.logger(), err)
		return
	}

	h.startSession(w, r, result.Session)
	http.Redirect(w, r, pathSecrets, http.StatusFound)
}

// Logout ends the current session and always redirects home.
// GET|POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.Svc.Logout(r.Context(), token); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", slog.Any("error", err))
		}
	}
	h.Cookies.Clear(w, r, SessionCookieName)
	http.Redirect(w, r, pathRoot, http.StatusFound)
}

// startSession drops any session the browser already holds and sets the new cookie.
func (h *AuthHandlers) startSession(w http.ResponseWriter, r *http.Request, sess domainauth.Session) {
	if old := sessionToken(r); old != "" && old != sess.ID {
		if err := h.Svc.Logout(r.Context(), old); err != nil {
			h.logger().WarnContext(r.Context(), "discard previous session failed", slog.Any("error", err))
		}
	}
	h.Cookies.SetSession(w, r, sess.ID, h.Svc.SessionMaxAge())
}

func (h *AuthHandlers) renderRegisterError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data := PageData{
		Title:       "Register",
		CurrentPage: PageRegister,
		CSRFToken:   GetCSRFToken(r),
		Error:       msg,
	}
	if err := h.Renderer.Render(w, status, data); err != nil {
		writeInternalError(w, r, h.logger(), err)
	}
}

// validationMessage returns the user-facing text of a validation AppError.
func validationMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Invalid input."
}
