package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/response"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if err := h.systemService.CheckHealth(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: "connected",
	})
}

// VersionInfoResponse represents the version check response containing application
// and database version information, feature availability, and migration status.
type VersionInfoResponse struct {
	AppVersion       string          `json:"app_version"`
	DbVersion        string          `json:"db_version"`
	Features         map[string]bool `json:"features"`
	MigrationNeeded  bool            `json:"migration_needed"`
	MigrationMessage *string         `json:"migration_message"`
}

// Version handles GET requests to retrieve version information and feature availability.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with VersionInfoResponse
// Error: 500 Internal Server Error if the schema version cannot be read
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	info, err := h.systemService.GetVersionInfo()
	if err != nil {
		response.RespondErrorWithCode(w, http.StatusInternalServerError, response.CodeInternal, apperrors.ErrFailedToGetVersionInfo.Error(), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, VersionInfoResponse{
		AppVersion:       info.AppVersion,
		DbVersion:        info.DbVersion,
		Features:         info.Features,
		MigrationNeeded:  info.MigrationNeeded,
		MigrationMessage: info.MigrationMessage,
	})
}

// Runs handles GET requests for recent run journal entries, newest first.
//
// Endpoint: GET /api/system/runs?kind=acquire&outcome=ok&limit=20
// Response: 200 OK with []Run
// Error: 400 Bad Request if a filter is invalid
// Error: 500 Internal Server Error if the journal cannot be read
func (h *SystemHandler) Runs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, err := request.ParseRunFilters(q.Get("kind"), q.Get("outcome"), q.Get("limit"))
	if err != nil {
		response.RespondErrorWithCode(w, http.StatusBadRequest, response.CodeValidation, "invalid filter", err.Error())
		return
	}

	runs, err := h.systemService.GetRuns(r.Context(), filters)
	if err != nil {
		response.RespondErrorWithCode(w, http.StatusInternalServerError, response.CodeInternal, apperrors.ErrFailedToRetrieveRuns.Error(), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, runs)
}

// Run handles GET requests for a single run journal entry.
//
// Endpoint: GET /api/system/runs/{uuid}
// Response: 200 OK with Run
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if no such run exists
// Error: 500 Internal Server Error if the journal cannot be read
func (h *SystemHandler) Run(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "uuid")

	run, err := h.systemService.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRunNotFound) {
			response.RespondErrorWithCode(w, http.StatusNotFound, response.CodeNotFound, err.Error(), "")
			return
		}
		response.RespondErrorWithCode(w, http.StatusInternalServerError, response.CodeInternal, apperrors.ErrFailedToRetrieveRuns.Error(), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, run)
}
