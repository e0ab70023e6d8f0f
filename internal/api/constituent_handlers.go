package api

import (
	"errors"
	"net/http"

	"github.com/ignite/constituent-service/internal/domain"
	"github.com/ignite/constituent-service/internal/pkg/httputil"
	"github.com/ignite/constituent-service/internal/pkg/logger"
	"github.com/ignite/constituent-service/internal/service/constituent"
)

const msgMissingField = "Missing a required field"

// ListConstituentsResponse is the envelope of GET /constituents.
type ListConstituentsResponse struct {
	Results []domain.Constituent `json:"results"`
	Offset  int                  `json:"offset"`
	Limit   int                  `json:"limit"`
}

// ListConstituents returns one page of constituents, optionally by county.
//
//	GET /constituents?limit=20&offset=0&county=Sussex
func (h *Handlers) ListConstituents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, ok := parseOffsetLimit(q, h.listing.DefaultLimit)
	if !ok {
		respondError(w, http.StatusBadRequest, constituent.ErrInvalidPagination.Error())
		return
	}

	filter := constituent.ListFilter{Limit: limit, Offset: offset}
	if county := q.Get(constituent.FilterCounty); county != "" {
		filter.Filters = map[string]string{constituent.FilterCounty: county}
	}

	results, effective, err := h.constituents.List(r.Context(), filter)
	if errors.Is(err, constituent.ErrInvalidPagination) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondInternalError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ListConstituentsResponse{
		Results: results,
		Offset:  effective.Offset,
		Limit:   effective.Limit,
	})
}

// CreateConstituent creates a constituent, or merges into the existing one
// with the same email. Both outcomes return 200 with the stored record.
//
//	POST /constituents
func (h *Handlers) CreateConstituent(w http.ResponseWriter, r *http.Request) {
	var in domain.ConstituentInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	c, outcome, err := h.constituents.Upsert(r.Context(), in)
	if errors.Is(err, domain.ErrMissingField) {
		var mf *domain.MissingFieldError
		if errors.As(err, &mf) {
			logger.Debug("constituent rejected", "missing", mf.Field)
		}
		respondError(w, http.StatusBadRequest, msgMissingField)
		return
	}
	if err != nil {
		respondInternalError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveUpsert(string(outcome))
	}
	logger.Info("constituent saved", "email", c.Email, "outcome", string(outcome))
	respondJSON(w, http.StatusOK, c)
}
