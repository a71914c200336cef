package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/target/secretshare/internal/domain/auth"
)

// SessionRestorer resolves a session token to the identity it belongs to.
type SessionRestorer interface {
	Restore(ctx context.Context, token string) (*domainauth.Identity, *domainauth.Session, error)
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					writePlainText(w, http.StatusInternalServerError, msgInternalError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthBrowser admits only requests whose session cookie restores to an existing identity.
// Unauthenticated requests are redirected to the login page; registry faults produce a 500.
// The restored identity is placed in the request context.
func RequireAuthBrowser(auth SessionRestorer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := restoreIdentity(r, auth)
			if err != nil {
				writeInternalError(w, r, logger, err)
				return
			}
			if ident == nil {
				http.Redirect(w, r, pathLogin, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetIdentityInContext(r.Context(), ident)))
		})
	}
}

// restoreIdentity returns (nil, nil) for unauthenticated requests and a non-nil error only for backend faults.
func restoreIdentity(r *http.Request, auth SessionRestorer) (*domainauth.Identity, error) {
	token := sessionToken(r)
	if token == "" {
		return nil, nil
	}
	ident, _, err := auth.Restore(r.Context(), token)
	if err != nil {
		var restoreErr *domainauth.SessionRestoreError
		if errors.As(err, &restoreErr) {
			return nil, nil
		}
		return nil, err
	}
	return ident, nil
}
