package api

import (
	"fmt"
	"net/http"

	"github.com/ignite/constituent-service/internal/pkg/httputil"
	"github.com/ignite/constituent-service/internal/pkg/logger"
)

// =============================================================================
// ERROR SANITIZER
// Ensures internal errors (database details, file paths, bucket names) are
// NEVER leaked to API consumers. 5xx responses carry a fixed public message
// while the full error is logged server-side.
// =============================================================================

// respondSafeError logs the internal error and sends a sanitized JSON error
// response to the client.
func respondSafeError(w http.ResponseWriter, r *http.Request, code int, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error(publicMsg,
			"status", code,
			"method", r.Method,
			"path", r.URL.Path,
			"error", internalErr,
		)
	}
	respondError(w, code, publicMsg)
}

// respondInternalError is the catch-all for unexpected failures.
func respondInternalError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.InternalError(w, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, err))
}
