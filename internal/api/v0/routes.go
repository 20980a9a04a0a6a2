// Package v0 provides the REST API handlers for registration intake.
package v0

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/enrollment-server/internal/registration"
	"github.com/attendly/enrollment-server/internal/versions"
)

// maxRequestSize bounds intake request bodies
const maxRequestSize = 64 * 1024

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRequest represents the intake request body
type RegisterRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstname,omitempty"`
	LastName    string `json:"lastname,omitempty"`
	Phone       string `json:"phone,omitempty"`
	SequenceID  *int64 `json:"sequence_id,omitempty"`
	SessionDate string `json:"session_date"`
}

// RegisterResponse represents the intake response body
type RegisterResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	SessionDate string `json:"session_date"`
	Status      string `json:"status"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the intake API with dependency injection
type Routes struct {
	store registration.Store
}

// NewRoutes creates a new Routes instance with the provided store
func NewRoutes(store registration.Store) *Routes {
	return &Routes{
		store: store,
	}
}

// Router creates a new router for the intake API
func Router(store registration.Store, pinger Pinger) http.Handler {
	routes := NewRoutes(store)

	r := chi.NewRouter()

	r.Post("/register", routes.register)

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(pinger))
	r.Get("/version", versionHandler)

	return r
}

// register handles POST /api/register
func (rr *Routes) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err := decoder.Decode(&req); err != nil {
		rr.writeErrorResponse(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	newReg := &registration.NewRegistration{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		SequenceID: req.SequenceID,
	}

	if req.SessionDate != "" {
		sessionDate, err := time.Parse(registration.SessionDateFormat, req.SessionDate)
		if err != nil {
			rr.writeErrorResponse(w, "session_date must use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		newReg.SessionDate = sessionDate
	}

	created, err := rr.store.Create(r.Context(), newReg)
	if err != nil {
		if errors.Is(err, registration.ErrValidation) {
			rr.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Failed to create registration", "error", err)
		rr.writeErrorResponse(w, "Failed to create registration", http.StatusInternalServerError)
		return
	}

	resp := RegisterResponse{
		ID:          created.ID.String(),
		Email:       created.Email,
		SessionDate: created.SessionDate.Format(registration.SessionDateFormat),
		Status:      string(created.Status),
	}

	rr.writeJSONResponse(w, resp, http.StatusCreated)
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler handles readiness check requests
func readinessHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			errorResp := ErrorResponse{
				Error: "Database not ready: " + err.Error(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if encodeErr := json.NewEncoder(w).Encode(errorResp); encodeErr != nil {
				slog.Error("Failed to encode readiness error response", "error", encodeErr)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode version info", "error", err)
	}
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
