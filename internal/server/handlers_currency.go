package server

import (
	"encoding/json"
	"net/http"

	"splitledger/internal/models"
)

type currencyView struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	MinorUnits int32  `json:"minor_units"`
}

func toCurrencyView(c *models.Currency) currencyView {
	return currencyView{ID: c.ID, Code: c.Code, Name: c.Name, MinorUnits: c.MinorUnits}
}

type createCurrencyRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	MinorUnits int32  `json:"minor_units"`
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req createCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	currency, err := s.currencies.CreateCurrency(r.Context(), req.Code, req.Name, req.MinorUnits)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCurrencyView(currency))
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.currencies.ListCurrencies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]currencyView, len(currencies))
	for i, c := range currencies {
		views[i] = toCurrencyView(c)
	}
	writeJSON(w, http.StatusOK, map[string][]currencyView{"currencies": views})
}
