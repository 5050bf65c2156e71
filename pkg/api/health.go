package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/foliodb/folio/pkg/metrics"
	"github.com/foliodb/folio/pkg/store"
)

// HealthServer provides HTTP health check endpoints over a RecordStore.
type HealthServer struct {
	store   *store.RecordStore
	version string
	mux     *http.ServeMux
}

// NewHealthServer creates a health check HTTP server. store may be nil
// before the underlying engine has finished starting up; the /ready
// endpoint reports that explicitly rather than panicking.
func NewHealthServer(s *store.RecordStore, version string) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{store: s, version: version, mux: mux}

	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Start starts the health check HTTP server. It blocks until the
// server stops or fails.
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ReadyResponse is the /ready response body.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// healthHandler is a liveness check: 200 if the process is alive,
// independent of the store's state.
func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// readyHandler reports ready once a store (which has completed startup
// sync) is attached. It runs the pool's health check, which replaces
// failed free clients, and reports the pool as ok whatever that check
// found.
func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	if hs.store == nil {
		checks["store"] = "not initialized"
		ready = false
		message = "store not initialized"
	} else {
		checks["store"] = "ok"
		checks["version"] = formatVersion(hs.store.CurVer())

		hs.store.Pool().CheckHealth()
		checks["pool"] = "ok"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadyResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
		Message:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// GetHandler returns the HTTP handler for embedding in other servers.
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}

func formatVersion(v int64) string { return strconv.FormatInt(v, 10) }
