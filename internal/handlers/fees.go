package handlers

import (
	"net/http"
	"strconv"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/pricing"
)

// FeeHandler prices parcel requests.
type FeeHandler struct {
	calc *pricing.Calculator
}

// NewFeeHandler creates a fee quoting handler.
func NewFeeHandler(calc *pricing.Calculator) *FeeHandler {
	return &FeeHandler{calc: calc}
}

// QuoteResponse wraps a fee quote with a display string. ManualQuote
// outcomes come back with HTTP 200: they are an expected, user-facing
// result, not a failure.
type QuoteResponse struct {
	pricing.Quote
	Display string `json:"display,omitempty"`
}

// Quote handles GET /api/fees/quote?weight=&from=&to=.
func (h *FeeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	weight, err := strconv.ParseFloat(r.URL.Query().Get("weight"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "weight must be a number")
		return
	}

	quote, err := h.calc.Quote(weight, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := QuoteResponse{Quote: quote}
	if !quote.RequiresManualQuote {
		resp.Display = pricing.FormatFee(quote.Fee)
	}
	writeJSON(w, http.StatusOK, resp)
}
