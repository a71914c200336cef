package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

var pageNames = []string{PageHome, PageLogin, PageRegister, PageSecrets, PageSubmit}

// PageData is the data every page template receives.
type PageData struct {
	Title         string
	CurrentPage   string
	CSRFToken     string
	Authenticated bool
	Secret        string
	Error         string
}

// TemplateRenderer renders HTML pages. Each page is the shared layout plus one pages/<name>.tmpl file.
type TemplateRenderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing layout.tmpl and pages/ (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer parses the layout once and clones it per page so page blocks cannot collide.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base, err := template.New("root").ParseFS(cfg.TemplateFS, "layout.tmpl")
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "layout"))
		return nil, err
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		t, err := clone.ParseFS(cfg.TemplateFS, "pages/"+name+".tmpl")
		if err != nil {
			logger.Error("template parsing failed", slog.Any("error", err), slog.String("page", name))
			return nil, err
		}
		pages[name] = t
	}

	return &TemplateRenderer{pages: pages, logger: logger}, nil
}

// Render executes the layout for data.CurrentPage and writes it with the given status.
// Output is buffered so a failing template never produces a partial page.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, data PageData) error {
	t, ok := r.pages[data.CurrentPage]
	if !ok {
		return fmt.Errorf("unknown page %q", data.CurrentPage)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("page", data.CurrentPage),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("page", data.CurrentPage),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
