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

// SecretServiceInterface reads and writes the caller's secret.
type SecretServiceInterface interface {
	View(ident *domainauth.Identity) string
	Submit(ctx context.Context, ident *domainauth.Identity, in service.SecretSubmission) error
}

// SecretHandlers serves the guarded secret pages. Routes must sit behind RequireAuthBrowser.
type SecretHandlers struct {
	Svc      SecretServiceInterface
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

func (h *SecretHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var errNoIdentity = errors.New("no identity in request context")

// View shows the caller's secret or the placeholder.
// GET /secrets.
func (h *SecretHandlers) View(w http.ResponseWriter, r *http.Request) {
	ident, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeInternalError(w, r, h.logger(), errNoIdentity)
		return
	}
	h.render(w, r, http.StatusOK, PageData{
		Title:         "Secrets",
		CurrentPage:   PageSecrets,
		Authenticated: true,
		Secret:        h.Svc.View(ident),
	})
}

// SubmitForm renders the secret submission form.
// GET /submit.
func (h *SecretHandlers) SubmitForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, PageData{
		Title:         "Submit",
		CurrentPage:   PageSubmit,
		Authenticated: true,
	})
}

// Submit replaces the caller's secret and redirects to it.
// POST /submit (secret).
func (h *SecretHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	ident, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeInternalError(w, r, h.logger(), errNoIdentity)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderSubmitError(w, r, "Invalid form submission.")
		return
	}

	err := h.Svc.Submit(r.Context(), ident, service.SecretSubmission{Secret: r.PostFormValue("secret")})
	if err != nil {
		if apperrors.IsValidation(err) {
			h.renderSubmitError(w, r, validationMessage(err))
			return
		}
		writeInternalError(w, r, h.logger(), err)
		return
	}
	http.Redirect(w, r, pathSecrets, http.StatusFound)
}

func (h *SecretHandlers) renderSubmitError(w http.ResponseWriter, r *http.Request, msg string) {
	h.render(w, r, http.StatusBadRequest, PageData{
		Title:         "Submit",
		CurrentPage:   PageSubmit,
		Authenticated: true,
		Error:         msg,
	})
}

func (h *SecretHandlers) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	data.CSRFToken = GetCSRFToken(r)
	if err := h.Renderer.Render(w, status, data); err != nil {
		writeInternalError(w, r, h.logger(), err)
	}
}
