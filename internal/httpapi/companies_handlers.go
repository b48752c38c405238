package httpapi

import (
	"net/http"

	"jobfeed-engine/internal/service"
)

type CompaniesHandler struct {
	Engine *service.Engine
}

func (h CompaniesHandler) Status(w http.ResponseWriter, r *http.Request) {
	statuses, stats := h.Engine.CompanyStatuses()
	writeJSON(w, map[string]any{
		"companies": statuses,
		"stats":     stats,
	})
}
