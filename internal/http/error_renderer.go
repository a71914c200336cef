package httpx

import (
	"io"
	"log/slog"
	"net/http"

	obserrors "github.com/target/secretshare/internal/observability/errors"
)

// writeInternalError logs err with its class and answers with the generic 500 body.
// Error details never reach the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error_class", obserrors.Classify(err)),
		slog.Any("error", err),
	)
	writePlainText(w, http.StatusInternalServerError, msgInternalError)
}

func writePlainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}
