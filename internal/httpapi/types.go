package httpapi

type IngestStatus struct {
	LastRunID       string `json:"last_run_id"`
	LastRunAt       string `json:"last_run_at"`
	LastOkAt        string `json:"last_ok_at"`
	LastError       string `json:"last_error"`
	LastInserted    int    `json:"last_inserted"`
	LastUpdated     int    `json:"last_updated"`
	LastDeactivated int    `json:"last_deactivated"`
	Running         bool   `json:"running"`
}
