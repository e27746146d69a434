package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"splitledger/internal/auth"
	"splitledger/internal/rates"
	"splitledger/internal/service"
	"splitledger/internal/settlement"
	"splitledger/internal/storage/sqlite"
)

// setupTestServer creates a full server over a temp SQLite database.
func setupTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	resolver := rates.NewResolver(store)
	srv := New(
		auth.NewPasswordAuthenticator(store),
		auth.NewJWTManager("test-secret", time.Hour),
		service.NewCurrencyService(store),
		service.NewGroupService(store),
		service.NewExpenseService(store),
		service.NewBalanceService(store),
		service.NewRateService(store, resolver),
		settlement.NewCoordinator(store, resolver),
	)

	server := httptest.NewServer(srv.Router())

	cleanup := func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}
	return server, cleanup
}

// doRequest sends a JSON request and decodes the JSON response body, if any.
func doRequest(t *testing.T, server *httptest.Server, token, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		// Ignore decode errors for empty bodies.
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp.StatusCode, decoded
}

// registerUser registers a user and returns their ID and session token.
func registerUser(t *testing.T, server *httptest.Server, email, name string) (string, string) {
	t.Helper()

	status, body := doRequest(t, server, "", http.MethodPost, "/api/register", map[string]any{
		"email":        email,
		"display_name": name,
		"password":     "correct-horse",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%v)", email, status, body)
	}
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string)
}

// createCurrency creates a currency and returns its ID.
func createCurrency(t *testing.T, server *httptest.Server, token, code string, minorUnits int) string {
	t.Helper()

	status, body := doRequest(t, server, token, http.MethodPost, "/api/currencies", map[string]any{
		"code":        code,
		"name":        code,
		"minor_units": minorUnits,
	})
	if status != http.StatusCreated {
		t.Fatalf("create currency %s: expected 201, got %d (%v)", code, status, body)
	}
	return body["id"].(string)
}

func TestRegisterAndLogin(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	status, body := doRequest(t, server, "", http.MethodPost, "/api/register", map[string]any{
		"email":        "alice@example.com",
		"display_name": "Alice",
		"password":     "correct-horse",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", status, body)
	}
	if body["token"] == "" {
		t.Error("expected non-empty token")
	}
	user := body["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %v", user["email"])
	}

	// Duplicate email is rejected.
	status, _ = doRequest(t, server, "", http.MethodPost, "/api/register", map[string]any{
		"email":        "alice@example.com",
		"display_name": "Alice Again",
		"password":     "correct-horse",
	})
	if status != http.StatusConflict {
		t.Errorf("duplicate register: expected 409, got %d", status)
	}

	// Short password is rejected.
	status, _ = doRequest(t, server, "", http.MethodPost, "/api/register", map[string]any{
		"email":        "bob@example.com",
		"display_name": "Bob",
		"password":     "short",
	})
	if status != http.StatusBadRequest {
		t.Errorf("weak password: expected 400, got %d", status)
	}

	status, body = doRequest(t, server, "", http.MethodPost, "/api/login", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse",
	})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%v)", status, body)
	}
	if body["token"] == "" {
		t.Error("expected non-empty token on login")
	}

	status, _ = doRequest(t, server, "", http.MethodPost, "/api/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("bad password: expected 401, got %d", status)
	}
}

func TestAuthRequired(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	status, _ := doRequest(t, server, "", http.MethodGet, "/api/currencies", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", status)
	}

	status, _ = doRequest(t, server, "not-a-token", http.MethodGet, "/api/currencies", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", status)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	aliceID, aliceToken := registerUser(t, server, "alice@example.com", "Alice")
	bobID, bobToken := registerUser(t, server, "bob@example.com", "Bob")
	carolID, _ := registerUser(t, server, "carol@example.com", "Carol")

	eur := createCurrency(t, server, aliceToken, "EUR", 2)

	status, body := doRequest(t, server, aliceToken, http.MethodPost, "/api/expenses", map[string]any{
		"description":          "Dinner",
		"amount":               1000,
		"currency_id":          eur,
		"payer_user_id":        aliceID,
		"participant_user_ids": []string{aliceID, bobID, carolID},
	})
	if status != http.StatusCreated {
		t.Fatalf("create expense: expected 201, got %d (%v)", status, body)
	}
	expenseID := body["id"].(string)

	// Remainder cents go to the earliest participants.
	participants := body["participants"].([]any)
	if len(participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(participants))
	}
	wantShares := []int64{334, 333, 333}
	for i, p := range participants {
		share := int64(p.(map[string]any)["share"].(float64))
		if share != wantShares[i] {
			t.Errorf("participant %d: expected share %d, got %d", i, wantShares[i], share)
		}
	}

	status, body = doRequest(t, server, aliceToken, http.MethodGet, "/api/expenses/"+expenseID, nil)
	if status != http.StatusOK {
		t.Fatalf("get expense: expected 200, got %d", status)
	}
	if body["description"] != "Dinner" {
		t.Errorf("expected description Dinner, got %v", body["description"])
	}

	// Alice paid 1000 and is owed the other two shares.
	status, body = doRequest(t, server, aliceToken, http.MethodGet, "/api/balances", nil)
	if status != http.StatusOK {
		t.Fatalf("balances: expected 200, got %d", status)
	}
	balances := body["balances"].([]any)
	if len(balances) != 1 {
		t.Fatalf("expected 1 balance, got %d", len(balances))
	}
	alice := balances[0].(map[string]any)
	if alice["currency"] != "EUR" {
		t.Errorf("expected currency EUR, got %v", alice["currency"])
	}
	if int64(alice["total_paid"].(float64)) != 1000 {
		t.Errorf("expected total_paid 1000, got %v", alice["total_paid"])
	}
	if int64(alice["net_owed_to_user"].(float64)) != 666 {
		t.Errorf("expected net_owed_to_user 666, got %v", alice["net_owed_to_user"])
	}

	status, body = doRequest(t, server, bobToken, http.MethodGet, "/api/balances", nil)
	if status != http.StatusOK {
		t.Fatalf("balances: expected 200, got %d", status)
	}
	bob := body["balances"].([]any)[0].(map[string]any)
	if int64(bob["net_user_owes"].(float64)) != 333 {
		t.Errorf("expected net_user_owes 333, got %v", bob["net_user_owes"])
	}

	// Revising the participant set recomputes shares from scratch.
	status, body = doRequest(t, server, aliceToken, http.MethodPut, "/api/expenses/"+expenseID+"/participants", map[string]any{
		"participant_user_ids": []string{aliceID, bobID},
	})
	if status != http.StatusOK {
		t.Fatalf("revise participants: expected 200, got %d (%v)", status, body)
	}
	revised := body["participants"].([]any)
	if len(revised) != 2 {
		t.Fatalf("expected 2 participants after revision, got %d", len(revised))
	}
	for i, p := range revised {
		share := int64(p.(map[string]any)["share"].(float64))
		if share != 500 {
			t.Errorf("revised participant %d: expected share 500, got %d", i, share)
		}
	}

	// Dropping the payer is not allowed.
	status, _ = doRequest(t, server, aliceToken, http.MethodPut, "/api/expenses/"+expenseID+"/participants", map[string]any{
		"participant_user_ids": []string{bobID, carolID},
	})
	if status != http.StatusBadRequest {
		t.Errorf("revision without payer: expected 400, got %d", status)
	}

	status, _ = doRequest(t, server, aliceToken, http.MethodDelete, "/api/expenses/"+expenseID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete expense: expected 204, got %d", status)
	}
	status, _ = doRequest(t, server, aliceToken, http.MethodGet, "/api/expenses/"+expenseID, nil)
	if status != http.StatusNotFound {
		t.Errorf("get deleted expense: expected 404, got %d", status)
	}
}

func TestCreateExpense_InvalidInput(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	aliceID, aliceToken := registerUser(t, server, "alice@example.com", "Alice")
	bobID, _ := registerUser(t, server, "bob@example.com", "Bob")
	eur := createCurrency(t, server, aliceToken, "EUR", 2)

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "payer not a participant",
			body: map[string]any{
				"description":          "Dinner",
				"amount":               1000,
				"currency_id":          eur,
				"payer_user_id":        aliceID,
				"participant_user_ids": []string{bobID},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "no participants",
			body: map[string]any{
				"description":          "Dinner",
				"amount":               1000,
				"currency_id":          eur,
				"payer_user_id":        aliceID,
				"participant_user_ids": []string{},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "negative amount",
			body: map[string]any{
				"description":          "Dinner",
				"amount":               -5,
				"currency_id":          eur,
				"payer_user_id":        aliceID,
				"participant_user_ids": []string{aliceID},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown currency",
			body: map[string]any{
				"description":          "Dinner",
				"amount":               1000,
				"currency_id":          "nonexistent-id",
				"payer_user_id":        aliceID,
				"participant_user_ids": []string{aliceID},
			},
			want: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doRequest(t, server, aliceToken, http.MethodPost, "/api/expenses", tc.body)
			if status != tc.want {
				t.Errorf("expected %d, got %d (%v)", tc.want, status, body)
			}
		})
	}
}

func TestSettlementFlow(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	aliceID, aliceToken := registerUser(t, server, "alice@example.com", "Alice")
	bobID, bobToken := registerUser(t, server, "bob@example.com", "Bob")
	eur := createCurrency(t, server, aliceToken, "EUR", 2)

	status, body := doRequest(t, server, aliceToken, http.MethodPost, "/api/expenses", map[string]any{
		"description":          "Dinner",
		"amount":               1000,
		"currency_id":          eur,
		"payer_user_id":        aliceID,
		"participant_user_ids": []string{aliceID, bobID},
	})
	if status != http.StatusCreated {
		t.Fatalf("create expense: expected 201, got %d (%v)", status, body)
	}
	expenseID := body["id"].(string)
	participants := body["participants"].([]any)
	bobParticipantID := participants[1].(map[string]any)["id"].(string)

	status, body = doRequest(t, server, bobToken, http.MethodPost, "/api/settlements", map[string]any{
		"participant_ids": []string{bobParticipantID},
		"currency_id":     eur,
	})
	if status != http.StatusCreated {
		t.Fatalf("settle: expected 201, got %d (%v)", status, body)
	}
	txn := body["transaction"].(map[string]any)
	if int64(txn["amount"].(float64)) != 500 {
		t.Errorf("expected transaction amount 500, got %v", txn["amount"])
	}
	settled := body["settled_participants"].([]any)
	if len(settled) != 1 {
		t.Fatalf("expected 1 settled participant, got %d", len(settled))
	}
	snapshot := settled[0].(map[string]any)
	if snapshot["settled_transaction_id"] != txn["id"] {
		t.Errorf("expected settlement to reference transaction %v, got %v", txn["id"], snapshot["settled_transaction_id"])
	}

	// Bob's debt is gone from his balances.
	status, body = doRequest(t, server, bobToken, http.MethodGet, "/api/balances", nil)
	if status != http.StatusOK {
		t.Fatalf("balances: expected 200, got %d", status)
	}
	for _, b := range body["balances"].([]any) {
		if owes := int64(b.(map[string]any)["net_user_owes"].(float64)); owes != 0 {
			t.Errorf("expected net_user_owes 0 after settlement, got %d", owes)
		}
	}

	// Settling the same participant again is rejected.
	status, _ = doRequest(t, server, bobToken, http.MethodPost, "/api/settlements", map[string]any{
		"participant_ids": []string{bobParticipantID},
		"currency_id":     eur,
	})
	if status != http.StatusConflict {
		t.Errorf("double settle: expected 409, got %d", status)
	}

	// So is deleting or revising an expense with settled participants.
	status, _ = doRequest(t, server, aliceToken, http.MethodDelete, "/api/expenses/"+expenseID, nil)
	if status != http.StatusConflict {
		t.Errorf("delete settled expense: expected 409, got %d", status)
	}
	status, _ = doRequest(t, server, aliceToken, http.MethodPut, "/api/expenses/"+expenseID+"/participants", map[string]any{
		"participant_user_ids": []string{aliceID, bobID},
	})
	if status != http.StatusConflict {
		t.Errorf("revise settled expense: expected 409, got %d", status)
	}
}

func TestSettlementCrossCurrency(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	aliceID, aliceToken := registerUser(t, server, "alice@example.com", "Alice")
	bobID, bobToken := registerUser(t, server, "bob@example.com", "Bob")
	eur := createCurrency(t, server, aliceToken, "EUR", 2)
	usd := createCurrency(t, server, aliceToken, "USD", 2)
	jpy := createCurrency(t, server, aliceToken, "JPY", 0)

	status, body := doRequest(t, server, aliceToken, http.MethodPost, "/api/rates", map[string]any{
		"from_currency_id": eur,
		"to_currency_id":   usd,
		"rate":             "1.08",
	})
	if status != http.StatusCreated {
		t.Fatalf("create rate: expected 201, got %d (%v)", status, body)
	}

	status, body = doRequest(t, server, aliceToken, http.MethodPost, "/api/expenses", map[string]any{
		"description":          "Hotel",
		"amount":               1000,
		"currency_id":          eur,
		"payer_user_id":        aliceID,
		"participant_user_ids": []string{aliceID, bobID},
	})
	if status != http.StatusCreated {
		t.Fatalf("create expense: expected 201, got %d (%v)", status, body)
	}
	participants := body["participants"].([]any)
	bobParticipantID := participants[1].(map[string]any)["id"].(string)

	// 500 EUR cents at 1.08 settles as 540 USD cents.
	status, body = doRequest(t, server, bobToken, http.MethodPost, "/api/settlements", map[string]any{
		"participant_ids": []string{bobParticipantID},
		"currency_id":     usd,
	})
	if status != http.StatusCreated {
		t.Fatalf("settle: expected 201, got %d (%v)", status, body)
	}
	txn := body["transaction"].(map[string]any)
	if int64(txn["amount"].(float64)) != 540 {
		t.Errorf("expected transaction amount 540, got %v", txn["amount"])
	}
	if txn["currency_id"] != usd {
		t.Errorf("expected transaction currency %s, got %v", usd, txn["currency_id"])
	}
	snapshot := body["settled_participants"].([]any)[0].(map[string]any)
	if int64(snapshot["settled_amount"].(float64)) != 540 {
		t.Errorf("expected settled_amount 540, got %v", snapshot["settled_amount"])
	}

	// No EUR to JPY rate exists in either direction.
	status, body = doRequest(t, server, aliceToken, http.MethodPost, "/api/expenses", map[string]any{
		"description":          "Taxi",
		"amount":               2000,
		"currency_id":          eur,
		"payer_user_id":        aliceID,
		"participant_user_ids": []string{aliceID, bobID},
	})
	if status != http.StatusCreated {
		t.Fatalf("create expense: expected 201, got %d", status)
	}
	taxiBob := body["participants"].([]any)[1].(map[string]any)["id"].(string)

	status, _ = doRequest(t, server, bobToken, http.MethodPost, "/api/settlements", map[string]any{
		"participant_ids": []string{taxiBob},
		"currency_id":     jpy,
	})
	if status != http.StatusUnprocessableEntity {
		t.Errorf("settle without rate: expected 422, got %d", status)
	}
}

func TestRates(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	_, token := registerUser(t, server, "alice@example.com", "Alice")
	eur := createCurrency(t, server, token, "EUR", 2)
	usd := createCurrency(t, server, token, "USD", 2)

	status, body := doRequest(t, server, token, http.MethodPost, "/api/rates", map[string]any{
		"from_currency_id": eur,
		"to_currency_id":   usd,
		"rate":             "1.25",
	})
	if status != http.StatusCreated {
		t.Fatalf("create rate: expected 201, got %d (%v)", status, body)
	}
	if body["rate"] != "1.25" {
		t.Errorf("expected rate 1.25, got %v", body["rate"])
	}

	status, body = doRequest(t, server, token, http.MethodGet,
		fmt.Sprintf("/api/rates?from=%s&to=%s", eur, usd), nil)
	if status != http.StatusOK {
		t.Fatalf("list rates: expected 200, got %d", status)
	}
	if got := len(body["rates"].([]any)); got != 1 {
		t.Errorf("expected 1 rate, got %d", got)
	}

	status, body = doRequest(t, server, token, http.MethodGet,
		fmt.Sprintf("/api/rates/latest?from=%s&to=%s", eur, usd), nil)
	if status != http.StatusOK {
		t.Fatalf("latest rate: expected 200, got %d", status)
	}
	if body["rate"] != "1.25" {
		t.Errorf("expected latest rate 1.25, got %v", body["rate"])
	}

	// The reverse direction falls back to the reciprocal.
	status, body = doRequest(t, server, token, http.MethodGet,
		fmt.Sprintf("/api/rates/latest?from=%s&to=%s", usd, eur), nil)
	if status != http.StatusOK {
		t.Fatalf("reciprocal rate: expected 200, got %d", status)
	}
	if body["rate"] != "0.8" {
		t.Errorf("expected reciprocal rate 0.8, got %v", body["rate"])
	}

	status, _ = doRequest(t, server, token, http.MethodPost, "/api/rates", map[string]any{
		"from_currency_id": eur,
		"to_currency_id":   usd,
		"rate":             "0",
	})
	if status != http.StatusBadRequest {
		t.Errorf("zero rate: expected 400, got %d", status)
	}

	status, _ = doRequest(t, server, token, http.MethodPost, "/api/rates", map[string]any{
		"from_currency_id": eur,
		"to_currency_id":   eur,
		"rate":             "1.0",
	})
	if status != http.StatusBadRequest {
		t.Errorf("same-currency rate: expected 400, got %d", status)
	}
}

func TestGroups(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	aliceID, aliceToken := registerUser(t, server, "alice@example.com", "Alice")
	bobID, _ := registerUser(t, server, "bob@example.com", "Bob")
	carolID, _ := registerUser(t, server, "carol@example.com", "Carol")

	status, body := doRequest(t, server, aliceToken, http.MethodPost, "/api/groups", map[string]any{
		"name":    "Trip",
		"members": []string{aliceID},
	})
	if status != http.StatusCreated {
		t.Fatalf("create group: expected 201, got %d (%v)", status, body)
	}
	groupID := body["id"].(string)
	if len(body["members"].([]any)) != 1 {
		t.Errorf("expected 1 member, got %d", len(body["members"].([]any)))
	}

	status, body = doRequest(t, server, aliceToken, http.MethodPost, "/api/groups/"+groupID+"/members", map[string]any{
		"user_ids": []string{bobID},
	})
	if status != http.StatusOK {
		t.Fatalf("add members: expected 200, got %d (%v)", status, body)
	}
	if len(body["members"].([]any)) != 2 {
		t.Errorf("expected 2 members, got %d", len(body["members"].([]any)))
	}

	// Participants of a group expense join the group automatically.
	eur := createCurrency(t, server, aliceToken, "EUR", 2)
	status, _ = doRequest(t, server, aliceToken, http.MethodPost, "/api/expenses", map[string]any{
		"description":          "Dinner",
		"amount":               900,
		"currency_id":          eur,
		"group_id":             groupID,
		"payer_user_id":        aliceID,
		"participant_user_ids": []string{aliceID, bobID, carolID},
	})
	if status != http.StatusCreated {
		t.Fatalf("create group expense: expected 201, got %d", status)
	}

	status, body = doRequest(t, server, aliceToken, http.MethodGet, "/api/groups/"+groupID, nil)
	if status != http.StatusOK {
		t.Fatalf("get group: expected 200, got %d", status)
	}
	members := body["members"].([]any)
	if len(members) != 3 {
		t.Fatalf("expected 3 members after group expense, got %d: %v", len(members), members)
	}
	found := false
	for _, m := range members {
		if m == carolID {
			found = true
		}
	}
	if !found {
		t.Errorf("carol not auto-added to group: %v", members)
	}

	status, _ = doRequest(t, server, aliceToken, http.MethodGet, "/api/groups/nonexistent-id", nil)
	if status != http.StatusNotFound {
		t.Errorf("get unknown group: expected 404, got %d", status)
	}
}

func TestHealthz(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
