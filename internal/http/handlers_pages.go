package httpx

import (
	"log/slog"
	"net/http"
)

// PageHandlers serves the public pages.
type PageHandlers struct {
	Auth     SessionRestorer
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Root sends authenticated visitors to their secret and everyone else to the home page.
// GET /.
func (h *PageHandlers) Root(w http.ResponseWriter, r *http.Request) {
	ident, err := restoreIdentity(r, h.Auth)
	if err != nil {
		h.logger().WarnContext(r.Context(), "session check failed", slog.Any("error", err))
	}
	if ident != nil {
		http.Redirect(w, r, pathSecrets, http.StatusFound)
		return
	}
	http.Redirect(w, r, pathHome, http.StatusFound)
}

// Home renders the landing page. GET /home.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageData{Title: "Home", CurrentPage: PageHome})
}

// Login renders the login form. GET /login.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageData{Title: "Login", CurrentPage: PageLogin})
}

// Register renders the registration form. GET /register.
func (h *PageHandlers) Register(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageData{Title: "Register", CurrentPage: PageRegister})
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, data PageData) {
	data.CSRFToken = GetCSRFToken(r)
	if err := h.Renderer.Render(w, http.StatusOK, data); err != nil {
		writeInternalError(w, r, h.logger(), err)
	}
}
