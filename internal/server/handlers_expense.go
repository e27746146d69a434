package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"splitledger/internal/models"
	"splitledger/internal/service"
)

type participantView struct {
	ID                   string `json:"id"`
	UserID               string `json:"user_id"`
	Share                int64  `json:"share"`
	SettledTransactionID string `json:"settled_transaction_id,omitempty"`
	SettledAmount        *int64 `json:"settled_amount,omitempty"`
	SettledCurrencyID    string `json:"settled_currency_id,omitempty"`
}

func toParticipantView(p *models.ExpenseParticipant) participantView {
	v := participantView{
		ID:     p.ID,
		UserID: p.UserID,
		Share:  p.Share,
	}
	if p.Settled() {
		amount := p.SettledAmount
		v.SettledTransactionID = p.SettledTransactionID
		v.SettledAmount = &amount
		v.SettledCurrencyID = p.SettledCurrencyID
	}
	return v
}

func toParticipantViews(participants []*models.ExpenseParticipant) []participantView {
	views := make([]participantView, len(participants))
	for i, p := range participants {
		views[i] = toParticipantView(p)
	}
	return views
}

type expenseResponse struct {
	ID           string            `json:"id"`
	Description  string            `json:"description"`
	Amount       int64             `json:"amount"`
	CurrencyID   string            `json:"currency_id"`
	GroupID      string            `json:"group_id,omitempty"`
	PayerUserID  string            `json:"payer_user_id"`
	Date         int64             `json:"date"`
	CreatedAt    int64             `json:"created_at"`
	Participants []participantView `json:"participants"`
}

func toExpenseResponse(e *models.Expense, participants []*models.ExpenseParticipant) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		CurrencyID:   e.CurrencyID,
		GroupID:      e.GroupID,
		PayerUserID:  e.PayerID,
		Date:         e.Date,
		CreatedAt:    e.CreatedAt,
		Participants: toParticipantViews(participants),
	}
}

type createExpenseRequest struct {
	Description        string   `json:"description"`
	Amount             int64    `json:"amount"`
	CurrencyID         string   `json:"currency_id"`
	GroupID            string   `json:"group_id,omitempty"`
	PayerUserID        string   `json:"payer_user_id"`
	ParticipantUserIDs []string `json:"participant_user_ids"`
	Date               int64    `json:"date,omitempty"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	expense, participants, err := s.expenses.CreateExpense(r.Context(), &service.CreateExpenseInput{
		Description:        req.Description,
		Amount:             req.Amount,
		CurrencyID:         req.CurrencyID,
		GroupID:            req.GroupID,
		PayerUserID:        req.PayerUserID,
		ParticipantUserIDs: req.ParticipantUserIDs,
		Date:               req.Date,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseResponse(expense, participants))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, participants, err := s.expenses.GetExpense(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense, participants))
}

type reviseParticipantsRequest struct {
	ParticipantUserIDs []string `json:"participant_user_ids"`
}

func (s *Server) handleReviseParticipants(w http.ResponseWriter, r *http.Request) {
	var req reviseParticipantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	id := mux.Vars(r)["id"]
	participants, err := s.expenses.ReviseParticipants(r.Context(), id, req.ParticipantUserIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]participantView{
		"participants": toParticipantViews(participants),
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.DeleteExpense(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
