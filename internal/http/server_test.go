package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moneymind/internal/auth"
	"moneymind/internal/core"
	"moneymind/internal/log"
	"moneymind/internal/metrics"
	"moneymind/internal/services"
	"moneymind/internal/storage/memory"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testEnv struct {
	srv     *Server
	store   *memory.Store
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokens("test-secret-0123456789", time.Hour, 24*time.Hour)
	m := metrics.New()
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 10000
	}
	if opts.InrPerUSD.IsZero() {
		opts.InrPerUSD = decimal.RequireFromString("90.23")
	}

	srv := NewServer(":0", Deps{
		Users:        services.NewUserService(store, auth.NewHasher(bcrypt.MinCost), tokens, nil),
		Transactions: services.NewTransactionService(store, nil),
		Goals:        services.NewGoalService(store, nil),
		Dashboard:    services.NewDashboardService(store),
		Activity:     services.NewActivityService(store),
		Tokens:       tokens,
		Store:        store,
		Metrics:      m,
		Logger:       log.Discard(),
	}, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

// signup creates an account and returns its access token.
func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name": "Test User", "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode(t, rr)["token"].(string)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	env.srv.deps.Store = failingPinger{}
	rr := env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "not_ready", decode(t, rr)["status"])
}

func TestSignupLoginRefresh(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "User created successfully", body["message"])
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refreshToken"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "asha@example.com", user["email"])
	assert.NotContains(t, rr.Body.String(), "password")

	rr = env.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name": "Asha", "email": "ASHA@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "User already exists", decode(t, rr)["error"])

	rr = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "asha@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rr)["error"])

	rr = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "asha@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	login := decode(t, rr)
	assert.Equal(t, "Login successful", login["message"])

	rr = env.do(t, http.MethodPost, "/api/token/refresh", "", map[string]string{
		"refreshToken": login["refreshToken"].(string),
	})
	require.Equal(t, http.StatusOK, rr.Code)
	refreshed := decode(t, rr)
	assert.NotEmpty(t, refreshed["token"])

	// An access token cannot be used to refresh, nor a refresh token to call the API.
	rr = env.do(t, http.MethodPost, "/api/token/refresh", "", map[string]string{
		"refreshToken": login["token"].(string),
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = env.do(t, http.MethodGet, "/api/profile", login["refreshToken"].(string), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"short password", map[string]string{"name": "A", "email": "a@example.com", "password": "123"}, "password"},
		{"bad email", map[string]string{"name": "A", "email": "not-an-email", "password": "secret1"}, "email"},
		{"missing name", map[string]string{"email": "a@example.com", "password": "secret1"}, "name"},
		{"empty body", "", "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantField, decode(t, rr)["field"])
		})
	}

	rr := env.do(t, http.MethodPost, "/api/signup", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodGet, "/api/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	rr = env.do(t, http.MethodGet, "/api/transactions", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, rr)["error"])
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signup(t, "asha@example.com")

	rr := env.do(t, http.MethodPut, "/api/profile", token, map[string]string{
		"name": "Asha K", "email": "asha@example.com", "phone": "+91 555", "bio": "saver",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	user := decode(t, rr)["user"].(map[string]any)
	assert.Equal(t, "Asha K", user["name"])
	assert.Equal(t, "+91 555", user["phone"])
	assert.Equal(t, "saver", user["bio"])
}

func TestTransactionsCRUD(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signup(t, "asha@example.com")

	rr := env.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"amount": "12.50", "type": "expense", "category": "Food", "date": "2024-03-05",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode(t, rr)
	assert.Equal(t, 12.5, created["amount"])
	assert.Equal(t, "", created["note"])
	assert.Equal(t, "2024-03-05", created["date"])
	id := int64(created["id"].(float64))
	path := "/api/transactions/" + itoa(id)

	rr = env.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Food", decode(t, rr)["category"])

	rr = env.do(t, http.MethodPut, path, token, map[string]any{
		"amount": 40, "type": "income", "category": "Salary", "note": "bonus", "date": "2024-03-06",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode(t, rr)
	assert.Equal(t, 40.0, updated["amount"])
	assert.Equal(t, "income", updated["type"])
	assert.Equal(t, "bonus", updated["note"])

	rr = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Transaction deleted successfully", decode(t, rr)["message"])

	rr = env.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Transaction not found", decode(t, rr)["error"])

	rr = env.do(t, http.MethodGet, "/api/transactions/abc", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionsOwnerScoped(t *testing.T) {
	env := newTestEnv(t, Options{})
	owner := env.signup(t, "owner@example.com")
	other := env.signup(t, "other@example.com")

	rr := env.do(t, http.MethodPost, "/api/transactions", owner, map[string]any{
		"amount": 10, "type": "expense", "category": "Food", "date": "2024-03-05",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	path := "/api/transactions/" + itoa(int64(decode(t, rr)["id"].(float64)))

	update := map[string]any{"amount": 1, "type": "expense", "category": "Hijack", "date": "2024-03-05"}
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, path, other, update).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, other, nil).Code)

	rr = env.do(t, http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Food", decode(t, rr)["category"])

	rr = env.do(t, http.MethodGet, "/api/transactions", other, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode(t, rr)["transactions"])
}

func TestTransactionValidation(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signup(t, "asha@example.com")

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{"missing amount", map[string]any{"type": "expense", "category": "Food", "date": "2024-01-01"}, "amount"},
		{"negative amount", map[string]any{"amount": -5, "type": "expense", "category": "Food", "date": "2024-01-01"}, "amount"},
		{"garbage amount", map[string]any{"amount": "ten", "type": "expense", "category": "Food", "date": "2024-01-01"}, "amount"},
		{"huge exponent", map[string]any{"amount": "1e100000000", "type": "expense", "category": "Food", "date": "2024-01-01"}, "amount"},
		{"tiny exponent", map[string]any{"amount": "1e-100000000", "type": "expense", "category": "Food", "date": "2024-01-01"}, "amount"},
		{"bad type", map[string]any{"amount": 5, "type": "gift", "category": "Food", "date": "2024-01-01"}, "type"},
		{"missing category", map[string]any{"amount": 5, "type": "income", "date": "2024-01-01"}, "category"},
		{"bad date", map[string]any{"amount": 5, "type": "income", "category": "Pay", "date": "01/02/2024"}, "date"},
		{"missing date", map[string]any{"amount": 5, "type": "income", "category": "Pay"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/transactions", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, tt.wantField, decode(t, rr)["field"])
		})
	}
}

func TestTransactionsListing(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signup(t, "asha@example.com")

	for i := 1; i <= 12; i++ {
		typ := "expense"
		if i%3 == 0 {
			typ = "income"
		}
		rr := env.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
			"amount": i * 10, "type": typ, "category": "Cat" + itoa(int64(i)), "date": "2024-01-" + pad(i),
		})
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := env.do(t, http.MethodGet, "/api/transactions?page=2&limit=5", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Len(t, body["transactions"], 5)
	assert.Equal(t, map[string]any{"total": 12.0, "page": 2.0, "limit": 5.0, "totalPages": 3.0}, body["pagination"])

	// Newest date first by default.
	first := body["transactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "2024-01-07", first["date"])

	rr = env.do(t, http.MethodGet, "/api/transactions?type=income&sortBy=amount&order=asc", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode(t, rr)
	items := body["transactions"].([]any)
	require.Len(t, items, 4)
	assert.Equal(t, 30.0, items[0].(map[string]any)["amount"])
	assert.Equal(t, 120.0, items[3].(map[string]any)["amount"])

	rr = env.do(t, http.MethodGet, "/api/transactions?page=abc&limit=-1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 10.0, decode(t, rr)["pagination"].(map[string]any)["limit"])

	rr = env.do(t, http.MethodGet, "/api/transactions?page=9", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode(t, rr)
	assert.Empty(t, body["transactions"])
	assert.Equal(t, 12.0, body["pagination"].(map[string]any)["total"])
}

func TestGoals(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signup(t, "asha@example.com")
	other := env.signup(t, "other@example.com")

	rr := env.do(t, http.MethodPost, "/api/goals", token, map[string]any{
		"title": "Laptop", "targetAmount": 1000, "currentAmount": "250", "deadline": "2999-12-31",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	goal := decode(t, rr)
	assert.Equal(t, "active", goal["status"])
	assert.InDelta(t, 25.0, goal["progress"], 0.001)
	assert.Equal(t, 750.0, goal["remaining"])
	path := "/api/goals/" + itoa(int64(goal["id"].(float64)))

	rr = env.do(t, http.MethodPost, "/api/goals", token, map[string]any{
		"title": "Trip", "targetAmount": 500, "deadline": "2000-01-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	trip := decode(t, rr)
	assert.Equal(t, 0.0, trip["currentAmount"])
	assert.Equal(t, "overdue", trip["status"])

	rr = env.do(t, http.MethodPost, path+"/contribute", token, map[string]any{"amount": 800})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	goal = decode(t, rr)
	assert.Equal(t, 1050.0, goal["currentAmount"])
	assert.Equal(t, "completed", goal["status"])
	assert.Equal(t, 100.0, goal["progress"])
	assert.Equal(t, 105.0, goal["rawProgress"])

	rr = env.do(t, http.MethodPost, path+"/contribute", token, map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = env.do(t, http.MethodPost, path+"/contribute", other, map[string]any{"amount": 5})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, path+"/contribute", token, map[string]any{"amount": "9999999999999.99"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	assert.Equal(t, "amount", decode(t, rr)["field"])
	rr = env.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1050.0, decode(t, rr)["currentAmount"])

	rr = env.do(t, http.MethodGet, "/api/goals?status=completed", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	require.Len(t, body["goals"], 1)
	assert.Equal(t, "Laptop", body["goals"].([]any)[0].(map[string]any)["title"])
	assert.Equal(t, 1.0, body["pagination"].(map[string]any)["total"])

	rr = env.do(t, http.MethodPut, path, token, map[string]any{
		"title": "Laptop", "targetAmount": 2000, "deadline": "2999-12-31",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 0.0, decode(t, rr)["currentAmount"], "update replaces every field")

	rr = env.do(t, http.MethodPost, "/api/goals", token, map[string]any{
		"title": "Zero", "targetAmount": 0, "deadline": "2999-12-31",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "targetAmount", decode(t, rr)["field"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, other, nil).Code)
	rr = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Goal deleted successfully", decode(t, rr)["message"])
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signup(t, "asha@example.com")

	for _, tx := range []map[string]any{
		{"amount": 1000, "type": "income", "category": "Salary", "date": "2024-01-10"},
		{"amount": 250.25, "type": "expense", "category": "Rent", "date": "2024-01-15"},
		{"amount": 100, "type": "expense", "category": "Food", "date": "2024-03-02"},
		{"amount": 50, "type": "expense", "category": "Food", "date": "2023-03-02"},
	} {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/transactions", token, tx).Code)
	}

	rr := env.do(t, http.MethodGet, "/api/dashboard/summary", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"income": 1000.0, "expense": 400.25, "balance": 599.75}, decode(t, rr))

	rr = env.do(t, http.MethodGet, "/api/dashboard/monthly?year=2024", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	months := decode(t, rr)["months"].([]any)
	require.Len(t, months, 12)
	assert.Equal(t, map[string]any{"month": "Jan", "income": 1000.0, "expense": 250.25}, months[0])
	assert.Equal(t, map[string]any{"month": "Mar", "income": 0.0, "expense": 100.0}, months[2])

	rr = env.do(t, http.MethodGet, "/api/dashboard/monthly?year=0", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	months = decode(t, rr)["months"].([]any)
	assert.Equal(t, 150.0, months[2].(map[string]any)["expense"])

	rr = env.do(t, http.MethodGet, "/api/dashboard/monthly?year=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/dashboard/monthly.png?year=2024&type=expense", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	rr = env.do(t, http.MethodGet, "/api/dashboard/monthly.png?type=gift", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestActivity(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signup(t, "asha@example.com")

	ctx := context.Background()
	u, err := env.store.GetUserByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := env.store.RecordActivity(ctx, core.Activity{
			EventID:    "evt-" + itoa(int64(i)),
			UserID:     u.ID,
			Kind:       "transaction.created",
			EntityID:   int64(i + 1),
			OccurredAt: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	rr := env.do(t, http.MethodGet, "/api/activity?limit=2", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	items := body["activity"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "evt-2", items[0].(map[string]any)["eventId"])
	assert.Equal(t, 2.0, body["pagination"].(map[string]any)["totalPages"])
}

func TestTools(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signup(t, "asha@example.com")

	rr := env.do(t, http.MethodPost, "/api/tools/calculate", token, map[string]string{"expression": "2 + 3 × 4"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 14.0, decode(t, rr)["result"])

	rr = env.do(t, http.MethodPost, "/api/tools/calculate", token, map[string]string{"expression": "1/0"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "expression", decode(t, rr)["field"])

	rr = env.do(t, http.MethodPost, "/api/tools/sip", token, map[string]any{
		"monthlyAmount": 1000, "annualRate": 0, "years": 2,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"invested": 24000.0, "returns": 0.0, "futureValue": 24000.0}, decode(t, rr))

	rr = env.do(t, http.MethodPost, "/api/tools/sip", token, map[string]any{
		"monthlyAmount": 1000, "annualRate": 12, "years": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/tools/convert?amount=9023&from=inr&to=USD", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 100.0, decode(t, rr)["result"])

	rr = env.do(t, http.MethodGet, "/api/tools/convert?amount=1&from=EUR&to=USD", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "from", decode(t, rr)["field"])

	for _, amount := range []string{"1e100000000", "1e-100000000"} {
		rr = env.do(t, http.MethodGet, "/api/tools/convert?amount="+amount+"&from=USD&to=INR", token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, amount)
		assert.Equal(t, "amount", decode(t, rr)["field"])
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		rr := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "a@example.com", "password": "x"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}
	rr := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "a@example.com", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, decode(t, rr)["error"], "Too many requests")

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "", nil).Code)
}

func TestMiddlewareStack(t *testing.T) {
	env := newTestEnv(t, Options{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	token := env.signup(t, "asha@example.com")
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/transactions", token, nil).Code)

	rr = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `route="GET /api/transactions"`), "route label recorded")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func pad(n int) string {
	return fmt.Sprintf("%02d", n)
}
