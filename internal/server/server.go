// Package server exposes the ledger engine over a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"splitledger/internal/auth"
	"splitledger/internal/middleware"
	"splitledger/internal/service"
	"splitledger/internal/settlement"
)

// Server holds the services behind the HTTP handlers.
type Server struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	currencies    *service.CurrencyService
	groups        *service.GroupService
	expenses      *service.ExpenseService
	balances      *service.BalanceService
	ratesSvc      *service.RateService
	coordinator   *settlement.Coordinator
}

// New creates a server over the given services.
func New(
	authenticator auth.Authenticator,
	jwtManager *auth.JWTManager,
	currencies *service.CurrencyService,
	groups *service.GroupService,
	expenses *service.ExpenseService,
	balances *service.BalanceService,
	ratesSvc *service.RateService,
	coordinator *settlement.Coordinator,
) *Server {
	return &Server{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		currencies:    currencies,
		groups:        groups,
		expenses:      expenses,
		balances:      balances,
		ratesSvc:      ratesSvc,
		coordinator:   coordinator,
	}
}

// Router builds the full route table with middleware applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// mux runs Use middleware after route matching, so the metrics
	// middleware can read the matched template.
	r.Use(middleware.Logging, middleware.Metrics(routeName))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)

	// Everything below requires a valid session.
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequireAuth(s.jwtManager))

	api.HandleFunc("/currencies", s.handleCreateCurrency).Methods(http.MethodPost)
	api.HandleFunc("/currencies", s.handleListCurrencies).Methods(http.MethodGet)

	api.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}", s.handleGetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/members", s.handleAddGroupMembers).Methods(http.MethodPost)

	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", s.handleGetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}/participants", s.handleReviseParticipants).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/balances", s.handleGetBalances).Methods(http.MethodGet)

	api.HandleFunc("/settlements", s.handleSettle).Methods(http.MethodPost)

	api.HandleFunc("/rates", s.handleCreateRate).Methods(http.MethodPost)
	api.HandleFunc("/rates", s.handleListRates).Methods(http.MethodGet)
	api.HandleFunc("/rates/latest", s.handleLatestRate).Methods(http.MethodGet)

	return r
}

// routeName returns the matched route template for metric labels.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
