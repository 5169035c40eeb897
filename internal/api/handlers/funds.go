package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/response"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/validation"
)

// FundHandler handles fund quote HTTP requests
type FundHandler struct {
	acquisitionService *service.AcquisitionService
}

// NewFundHandler creates a new FundHandler
func NewFundHandler(acquisitionService *service.AcquisitionService) *FundHandler {
	return &FundHandler{
		acquisitionService: acquisitionService,
	}
}

// Funds handles GET requests for normalized fund records.
// Without a symbols parameter the configured universe is fetched.
//
// Endpoint: GET /api/funds?symbols=AAPL,SPY
// Response: 200 OK with []FundRecord in request order
// Error: 400 Bad Request if the symbol list is invalid
// Error: 503 Service Unavailable with code DATA_UNAVAILABLE if no quote could be fetched
// Error: 500 Internal Server Error otherwise
func (h *FundHandler) Funds(w http.ResponseWriter, r *http.Request) {
	symbols := config.SplitList(r.URL.Query().Get("symbols"))

	if err := validation.ValidateSymbols(symbols); err != nil {
		response.RespondErrorWithCode(w, http.StatusBadRequest, response.CodeValidation, "validation failed", err.Error())
		return
	}

	funds, err := h.acquisitionService.Acquire(r.Context(), symbols)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNoSymbols):
			response.RespondErrorWithCode(w, http.StatusBadRequest, response.CodeValidation, err.Error(), "")
		case errors.Is(err, apperrors.ErrDataUnavailable):
			response.RespondErrorWithCode(w, http.StatusServiceUnavailable, response.CodeDataUnavailable, err.Error(), "")
		default:
			response.RespondErrorWithCode(w, http.StatusInternalServerError, response.CodeInternal, apperrors.ErrFailedToRetrieveFunds.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, funds)
}
