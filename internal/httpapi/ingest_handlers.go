package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"jobfeed-engine/internal/service"
)

type IngestHandler struct {
	Engine       *service.Engine
	IngestStatus *atomic.Value // httpapi.IngestStatus
}

func (h IngestHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.IngestStatus.Load().(IngestStatus)
	writeJSON(w, st)
}

// Run kicks off one ingestion pass in the background. The engine itself
// rejects overlap; this endpoint also checks the published status so the
// caller gets a clean answer instead of racing the lock.
func (h IngestHandler) Run(w http.ResponseWriter, r *http.Request) {
	st := h.IngestStatus.Load().(IngestStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	h.IngestStatus.Store(IngestStatus{
		LastRunID: st.LastRunID,
		LastRunAt: time.Now().Format(time.RFC3339),
		LastOkAt:  st.LastOkAt,
		Running:   true,
	})

	go func() {
		rep, err := h.Engine.Ingest(context.Background())

		now := time.Now().Format(time.RFC3339)
		next := h.IngestStatus.Load().(IngestStatus)
		next.Running = false
		next.LastRunAt = now
		if err != nil {
			if !errors.Is(err, service.ErrIngestRunning) {
				next.LastError = err.Error()
			}
		} else {
			next.LastRunID = rep.RunID
			next.LastInserted = rep.Inserted
			next.LastUpdated = rep.Updated
			next.LastDeactivated = rep.Deactivated
			if len(rep.Errors) > 0 {
				next.LastError = rep.Errors[0].Reason
			} else {
				next.LastError = ""
				next.LastOkAt = now
			}
		}
		h.IngestStatus.Store(next)
	}()

	writeJSON(w, map[string]any{"ok": true})
}
