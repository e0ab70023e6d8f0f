package api

import (
	"net/http"

	"github.com/ignite/constituent-service/internal/config"
	"github.com/ignite/constituent-service/internal/export"
	"github.com/ignite/constituent-service/internal/pkg/httputil"
	"github.com/ignite/constituent-service/internal/service/constituent"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	constituents *constituent.Service
	exports      *export.Service
	listing      config.ListingConfig
	metrics      *Metrics
}

// NewHandlers creates a new Handlers instance
func NewHandlers(constituents *constituent.Service, exports *export.Service, listing config.ListingConfig, metrics *Metrics) *Handlers {
	if listing.DefaultLimit <= 0 {
		listing.DefaultLimit = 20
	}
	return &Handlers{
		constituents: constituents,
		exports:      exports,
		listing:      listing,
		metrics:      metrics,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.JSON(w, status, data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	httputil.Error(w, status, message)
}
