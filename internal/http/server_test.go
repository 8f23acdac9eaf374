package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/ledger"
	"tracker/internal/log"
	"tracker/internal/persist"
	"tracker/internal/persist/memory"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingKV) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func newTestServer(t *testing.T, kv persist.KV) (*Server, *ledger.Store) {
	t.Helper()
	store := ledger.Open(context.Background(), persist.NewAdapter(kv, "", log.Discard()), ledger.WithLogger(log.Discard()))
	srv := NewServer("127.0.0.1:0", store, Options{Logger: log.Discard(), PostsPerMinute: 1000})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func do(srv *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(srv *Server, desc, amount, typ string) *httptest.ResponseRecorder {
	form := url.Values{"description": {desc}, "amount": {amount}}
	if typ != "" {
		form.Set("type", typ)
	}
	return do(srv, http.MethodPost, "/transactions", "application/x-www-form-urlencoded", form.Encode())
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, memory.New())

	rr := do(srv, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Expense Tracker")
	assert.Contains(t, body, "Add Transaction")
	assert.Contains(t, body, "No transactions yet")
	assert.Contains(t, body, `id="total-balance">$0.00<`)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr = do(srv, http.MethodGet, "/ui/ledger", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rr.Body.String()), `<div id="ledger">`))
	assert.NotContains(t, rr.Body.String(), "Add Transaction")

	rr = do(srv, http.MethodGet, "/static/app.css", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(srv, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSalaryRentThroughHTTP(t *testing.T) {
	srv, store := newTestServer(t, memory.New())

	rr := postForm(srv, "Salary", "1000", "income")
	require.Equal(t, http.StatusOK, rr.Code)
	trigger := rr.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, "transaction:created")
	assert.Contains(t, trigger, "form:reset")
	assert.Contains(t, trigger, `"type":"success"`)

	rr = postForm(srv, "Rent", "400", "expense")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `id="total-balance">$600.00<`)
	assert.Contains(t, body, `id="total-income">$1000.00<`)
	assert.Contains(t, body, `id="total-expenses">$400.00<`)
	assert.Contains(t, body, "+$1000.00")
	assert.Contains(t, body, "-$400.00")

	salary := store.List()[0]
	rr = do(srv, http.MethodDelete, "/transactions/"+salary.ID, "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "transaction:deleted")
	assert.Contains(t, rr.Body.String(), `id="total-balance">$-400.00<`)
	assert.NotContains(t, rr.Body.String(), "Salary")
	assert.Equal(t, 1, store.Len())
}

func TestCreateTransactionDefaultsToExpense(t *testing.T) {
	srv, store := newTestServer(t, memory.New())

	rr := postForm(srv, "Lunch", "12.5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "expense", store.List()[0].Type.String())
}

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name    string
		desc    string
		amount  string
		typ     string
		message string
	}{
		{"empty description", "", "10", "income", "Please enter a description"},
		{"blank description", "   ", "10", "income", "Please enter a description"},
		{"empty amount", "Lunch", "", "expense", "Please enter a valid amount"},
		{"bad amount", "Lunch", "abc", "expense", "Please enter a valid amount"},
		{"huge amount", "Lunch", "1e5000000", "expense", "Please enter a valid amount"},
		{"bad type", "Lunch", "10", "gift", "Type must be income or expense"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newTestServer(t, memory.New())

			rr := postForm(srv, tt.desc, tt.amount, tt.typ)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.message)
			assert.Equal(t, "#form-errors", rr.Header().Get("HX-Retarget"))
			assert.Zero(t, store.Len())
		})
	}
}

func TestDeleteUnknownIsIdempotent(t *testing.T) {
	srv, store := newTestServer(t, memory.New())
	require.Equal(t, http.StatusOK, postForm(srv, "Salary", "1000", "income").Code)

	for _, method := range []string{http.MethodDelete, http.MethodPost} {
		rr := do(srv, method, "/transactions/does-not-exist", "", "")
		assert.Equal(t, http.StatusOK, rr.Code, method)
		assert.Contains(t, rr.Body.String(), "Salary")
		assert.Contains(t, rr.Header().Get("HX-Trigger"), `"type":"info"`)
	}
	assert.Equal(t, 1, store.Len())
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, memory.New())

	rr := do(srv, http.MethodGet, "/transactions", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Contains(t, rr.Header().Get("Allow"), http.MethodPost)
}

func TestJSONAPI(t *testing.T) {
	srv, _ := newTestServer(t, memory.New())

	rr := do(srv, http.MethodPost, "/transactions", "application/json", `{"description":"Salary","amount":1000.10,"type":"income"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		Transaction struct {
			ID     string `json:"id"`
			Amount string `json:"amount"`
			Type   string `json:"type"`
		} `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Transaction.ID)
	assert.Equal(t, "1000.1", created.Transaction.Amount)
	assert.Equal(t, "income", created.Transaction.Type)

	rr = do(srv, http.MethodGet, "/api/transactions", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap snapshotJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, "1000.10", snap.Totals.Balance)
	assert.Equal(t, "0.00", snap.Totals.Expenses)
	assert.False(t, snap.Unsaved)

	rr = do(srv, http.MethodPost, "/transactions", "application/json", `{"description":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUnsavedIsShown(t *testing.T) {
	srv, store := newTestServer(t, failingKV{})

	rr := postForm(srv, "Salary", "1000", "income")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"type":"warning"`)
	assert.Contains(t, rr.Body.String(), "could not be saved")
	assert.Equal(t, 1, store.Len())
}

func TestEscapesDescriptions(t *testing.T) {
	srv, _ := newTestServer(t, memory.New())

	rr := postForm(srv, `<script>alert(1)</script>`, "1", "expense")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rr.Body.String(), "&lt;script&gt;")
}

func TestRateLimitOnMutations(t *testing.T) {
	store := ledger.Open(context.Background(), persist.NewAdapter(memory.New(), "", log.Discard()), ledger.WithLogger(log.Discard()))
	srv := NewServer("127.0.0.1:0", store, Options{Logger: log.Discard(), PostsPerMinute: 2})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	assert.Equal(t, http.StatusOK, postForm(srv, "a", "1", "").Code)
	assert.Equal(t, http.StatusOK, postForm(srv, "b", "1", "").Code)
	rr := postForm(srv, "c", "1", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, 2, store.Len())

	rr = do(srv, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var ready struct {
		Checks struct {
			RateLimiter struct {
				Rejected int64 `json:"rejected"`
			} `json:"rate_limiter"`
			Security struct {
				SuspiciousRequests int64 `json:"suspicious_requests"`
			} `json:"security"`
			Requests int64 `json:"requests"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ready))
	assert.Equal(t, int64(1), ready.Checks.RateLimiter.Rejected)
	assert.Zero(t, ready.Checks.Security.SuspiciousRequests)
	assert.GreaterOrEqual(t, ready.Checks.Requests, int64(4))
}

func TestTrustedProxyOption(t *testing.T) {
	store := ledger.Open(context.Background(), persist.NewAdapter(memory.New(), "", log.Discard()), ledger.WithLogger(log.Discard()))
	srv := NewServer("127.0.0.1:0", store, Options{
		Logger:         log.Discard(),
		PostsPerMinute: 1,
		TrustedProxies: []string{"203.0.113.0/24", "not-a-cidr"},
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	post := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader("description=a&amount=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "203.0.113.7:5000"
		req.Header.Set("X-Forwarded-For", client)
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}
	// clients behind the proxy are limited separately
	assert.Equal(t, http.StatusOK, post("1.1.1.1"))
	assert.Equal(t, http.StatusOK, post("2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, post("1.1.1.1"))
}
