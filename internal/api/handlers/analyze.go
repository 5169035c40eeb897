package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/response"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/validation"
)

// AnalyzeHandler handles recommendation HTTP requests
type AnalyzeHandler struct {
	recommendationService *service.RecommendationService
}

// NewAnalyzeHandler creates a new AnalyzeHandler
func NewAnalyzeHandler(recommendationService *service.RecommendationService) *AnalyzeHandler {
	return &AnalyzeHandler{
		recommendationService: recommendationService,
	}
}

// Analyze handles POST requests that rank submitted funds.
// The report comes from the AI path when it is configured and answers usably,
// and from local scoring otherwise. Either way the response is 200.
//
// Endpoint: POST /api/analyze
// Request Body: AnalyzeRequest ({"funds": [FundRecord, ...]})
// Response: 200 OK with RecommendationReport
// Error: 400 Bad Request if the body is invalid or fewer than 2 funds are given
// Error: 500 Internal Server Error if the analysis fails unexpectedly
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AnalyzeRequest](r)
	if err != nil {
		response.RespondErrorWithCode(w, http.StatusBadRequest, response.CodeValidation, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAnalyzeRequest(req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			response.RespondErrorWithCode(w, http.StatusBadRequest, response.CodeValidation, "validation failed", verr.Fields)
			return
		}
		response.RespondErrorWithCode(w, http.StatusBadRequest, response.CodeValidation, "validation failed", err.Error())
		return
	}

	report, err := h.recommendationService.Recommend(r.Context(), req.Normalized())
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientCandidates) {
			response.RespondErrorWithCode(w, http.StatusBadRequest, response.CodeValidation, err.Error(), "")
			return
		}
		response.RespondErrorWithCode(w, http.StatusInternalServerError, response.CodeInternal, apperrors.ErrFailedToAnalyzeFunds.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, report)
}
