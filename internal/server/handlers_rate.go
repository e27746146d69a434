package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"splitledger/internal/models"
)

type rateView struct {
	ID             string `json:"id"`
	FromCurrencyID string `json:"from_currency_id"`
	ToCurrencyID   string `json:"to_currency_id"`
	Rate           string `json:"rate"`
	EffectiveAt    int64  `json:"effective_at"`
}

func toRateView(rate *models.ConversionRate) rateView {
	return rateView{
		ID:             rate.ID,
		FromCurrencyID: rate.FromCurrencyID,
		ToCurrencyID:   rate.ToCurrencyID,
		Rate:           rate.Rate.String(),
		EffectiveAt:    rate.EffectiveAt,
	}
}

type createRateRequest struct {
	FromCurrencyID string `json:"from_currency_id"`
	ToCurrencyID   string `json:"to_currency_id"`
	Rate           string `json:"rate"`
	EffectiveAt    int64  `json:"effective_at,omitempty"`
}

func (s *Server) handleCreateRate(w http.ResponseWriter, r *http.Request) {
	var req createRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	// Rates arrive as exact decimal strings, never floats.
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "rate must be a decimal string"})
		return
	}

	row, err := s.ratesSvc.CreateRate(r.Context(), req.FromCurrencyID, req.ToCurrencyID, rate, req.EffectiveAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateView(row))
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from and to query parameters required"})
		return
	}

	rateRows, err := s.ratesSvc.ListRates(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]rateView, len(rateRows))
	for i, row := range rateRows {
		views[i] = toRateView(row)
	}
	writeJSON(w, http.StatusOK, map[string][]rateView{"rates": views})
}

func (s *Server) handleLatestRate(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from and to query parameters required"})
		return
	}

	asOf := time.Now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "as_of must be a unix timestamp"})
			return
		}
		asOf = time.Unix(secs, 0)
	}

	rate, err := s.ratesSvc.LatestRate(r.Context(), from, to, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"rate": rate.String()})
}
