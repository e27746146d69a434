package server

import (
	"net/http"

	"splitledger/internal/middleware"
)

type balanceView struct {
	Currency      string `json:"currency"`
	TotalPaid     int64  `json:"total_paid"`
	NetOwedToUser int64  `json:"net_owed_to_user"`
	NetUserOwes   int64  `json:"net_user_owes"`
}

type balancesResponse struct {
	Balances []balanceView `json:"balances"`
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	balances, err := s.balances.BalancesFor(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]balanceView, len(balances))
	for i, b := range balances {
		views[i] = balanceView{
			Currency:      b.CurrencyCode,
			TotalPaid:     b.TotalPaid,
			NetOwedToUser: b.NetOwedToUser,
			NetUserOwes:   b.NetUserOwes,
		}
	}
	writeJSON(w, http.StatusOK, balancesResponse{Balances: views})
}
