package domain

import "github.com/google/uuid"

// ScanStats are the per-user scan counters shown on the dashboard.
type ScanStats struct {
	TotalScans int `json:"total_scans"`
	Safe       int `json:"safe"`
	Suspicious int `json:"suspicious"`
	Malicious  int `json:"malicious"`
}

// ScanRecord is a single entry in a user's scan history.
type ScanRecord struct {
	ID       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Date     string    `json:"date"`
	Size     string    `json:"size"`
	Status   string    `json:"status"`
	Threats  int       `json:"threats"`
}

// StatusLabel normalizes the record status for display, defaulting to "safe".
func (r ScanRecord) StatusLabel() string {
	if r.Status == "" {
		return "safe"
	}
	return r.Status
}
