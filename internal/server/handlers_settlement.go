package server

import (
	"encoding/json"
	"net/http"

	"splitledger/internal/middleware"
	"splitledger/internal/models"
)

type settleRequest struct {
	ParticipantIDs []string `json:"participant_ids"`
	CurrencyID     string   `json:"currency_id"`
}

type transactionView struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	CurrencyID string `json:"currency_id"`
	CreatedAt  int64  `json:"created_at"`
}

type settleResponse struct {
	Transaction         transactionView   `json:"transaction"`
	SettledParticipants []participantView `json:"settled_participants"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if len(req.ParticipantIDs) == 0 || req.CurrencyID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "participant_ids and currency_id required"})
		return
	}

	txn, participants, err := s.coordinator.Settle(r.Context(), req.ParticipantIDs, req.CurrencyID)
	if err != nil {
		middleware.SettlementsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	middleware.SettlementsTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusCreated, settleResponse{
		Transaction:         toTransactionView(txn),
		SettledParticipants: toParticipantViews(participants),
	})
}

func toTransactionView(txn *models.Transaction) transactionView {
	return transactionView{
		ID:         txn.ID,
		Amount:     txn.Amount,
		CurrencyID: txn.CurrencyID,
		CreatedAt:  txn.CreatedAt,
	}
}
