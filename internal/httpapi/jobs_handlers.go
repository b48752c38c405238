package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"jobfeed-engine/internal/service"
	"jobfeed-engine/internal/store"
)

type JobsHandler struct {
	Engine *service.Engine
}

// List serves the aggregated snapshot: cached when fresh, re-crawled when
// not, ?refresh=true to force.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.Filters{
		CompanyID: strings.TrimSpace(q.Get("company")),
		Country:   strings.ToUpper(strings.TrimSpace(q.Get("country"))),
		Query:     q.Get("q"),
	}
	force := q.Get("refresh") == "true" || q.Get("refresh") == "1"

	res, err := h.Engine.Jobs(r.Context(), f, force)
	if err != nil {
		if errors.Is(err, service.ErrNoJobs) {
			WriteError(w, r, http.StatusBadGateway, "aggregation_failed", err.Error())
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, res)
}

// ListStored serves persisted records from the store, active ones unless
// ?include_inactive=true.
func (h JobsHandler) ListStored(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOpts{
		CompanyID:  strings.TrimSpace(q.Get("company")),
		Country:    strings.ToUpper(strings.TrimSpace(q.Get("country"))),
		ActiveOnly: q.Get("include_inactive") != "true",
	}

	recs, err := h.Engine.StoredJobs(r.Context(), opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"jobs": recs, "total": len(recs)})
}
