package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/response"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
)

// BaselineHandler handles category baseline HTTP requests
type BaselineHandler struct {
	baselineService *service.BaselineService
}

// NewBaselineHandler creates a new BaselineHandler. baselineService may be nil
// when baselines are disabled.
func NewBaselineHandler(baselineService *service.BaselineService) *BaselineHandler {
	return &BaselineHandler{
		baselineService: baselineService,
	}
}

// Baselines handles GET requests for the current category baselines.
//
// Endpoint: GET /api/baselines
// Response: 200 OK with Baselines, or an empty object when baselines are disabled
// or no index quote could be fetched
// Error: 500 Internal Server Error on any other failure
func (h *BaselineHandler) Baselines(w http.ResponseWriter, r *http.Request) {
	if h.baselineService == nil {
		response.RespondJSON(w, http.StatusOK, struct{}{})
		return
	}

	baselines, err := h.baselineService.Current(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrBaselinesUnavailable) {
			response.RespondJSON(w, http.StatusOK, struct{}{})
			return
		}
		response.RespondErrorWithCode(w, http.StatusInternalServerError, response.CodeInternal, apperrors.ErrFailedToRetrieveBaselines.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, baselines)
}
