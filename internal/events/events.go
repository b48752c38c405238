package events

import (
	"encoding/json"
	"time"
)

// Event types published by the engine.
const (
	TypeIngestStarted  = "ingest_started"
	TypeIngestFinished = "ingest_finished"
	TypeJobsRefreshed  = "jobs_refreshed"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent serializes one event envelope. Marshal failures on the
// payload degrade to an envelope without data rather than an error.
func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err == nil {
			raw = b
		}
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
