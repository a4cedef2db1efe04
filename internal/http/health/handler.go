// Package health serves the liveness probe.
package health

import (
	"encoding/json"
	"net/http"
)

// Response is the liveness payload.
type Response struct {
	OK bool `json:"ok"`
}

// Handler reports that the process is serving requests.
func Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(Response{OK: true})
}
