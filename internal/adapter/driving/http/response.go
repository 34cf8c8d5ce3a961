package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/atomicserver/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the JSON representation of the device status endpoint.
type StatusResponse struct {
	IP   string `json:"ip"`
	Host string `json:"host"`
}

// BootRecordResponse is the JSON representation of a boot journal entry.
type BootRecordResponse struct {
	ID         int64  `json:"id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	DurationMS int64  `json:"duration_ms"`
	Outcome    string `json:"outcome"`
	SSID       string `json:"ssid"`
	IP         string `json:"ip"`
	Hostname   string `json:"hostname"`
	MDNSActive bool   `json:"mdns_active"`
	Error      string `json:"error,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toBootRecordResponse converts a domain BootRecord to its JSON representation.
func toBootRecordResponse(rec model.BootRecord) BootRecordResponse {
	return BootRecordResponse{
		ID:         rec.ID,
		StartedAt:  rec.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: rec.FinishedAt.UTC().Format(time.RFC3339),
		DurationMS: rec.Duration().Milliseconds(),
		Outcome:    string(rec.Outcome),
		SSID:       rec.SSID,
		IP:         rec.IP,
		Hostname:   rec.Hostname,
		MDNSActive: rec.MDNSActive,
		Error:      rec.Error,
	}
}
