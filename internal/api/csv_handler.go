package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ignite/constituent-service/internal/export"
	"github.com/ignite/constituent-service/internal/pkg/logger"
)

const (
	msgMonthWithoutYear = "Must provide year when providing month"
	msgYearRequired     = "Must provide year and optionally month"
	msgInvalidPeriod    = "Invalid year or month"
	msgCSVUnavailable   = "Unable to retrieve CSV file"
)

// GetConstituentsCSV streams the pre-generated export for a year or month.
//
//	GET /constituents/csv?year=2025&month=04
func (h *Handlers) GetConstituentsCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, month := q.Get("year"), q.Get("month")

	switch {
	case year == "" && month != "":
		respondError(w, http.StatusBadRequest, msgMonthWithoutYear)
		return
	case year == "":
		respondError(w, http.StatusBadRequest, msgYearRequired)
		return
	}

	period, err := export.ParsePeriod(year, month)
	if err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidPeriod)
		return
	}

	if h.exports == nil {
		respondSafeError(w, r, http.StatusInternalServerError, errors.New("export service not configured"), msgCSVUnavailable)
		return
	}

	f, err := h.exports.Open(r.Context(), period)
	if err != nil {
		respondSafeError(w, r, http.StatusInternalServerError, err, msgCSVUnavailable)
		return
	}
	defer f.Body.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f.Body); err != nil {
		logger.Warn("csv stream interrupted", "period", period.String(), "error", err)
	}
}
