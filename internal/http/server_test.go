package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contable/internal/advisor"
	"contable/internal/ledger"
	"contable/internal/log"
	"contable/internal/services"
	"contable/internal/storage"
)

type fakeAdvisor struct{ topics []string }

func (f *fakeAdvisor) GetTip(_ context.Context, topic string) string {
	f.topics = append(f.topics, topic)
	return "tip about " + topic
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Books == nil {
		repo := storage.NewRepository(storage.NewMemoryKV(), storage.DefaultKeyPrefix, nil)
		engine := ledger.New(context.Background(), repo)
		deps.Books = services.NewBookkeeping(engine, nil, nil, 10, nil)
		if deps.Health == nil {
			deps.Health = repo
		}
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.Config{Output: io.Discard})
	}
	return NewServer(":0", deps)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type createdItem struct {
	Data struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Stock int     `json:"stock"`
		Cost  float64 `json:"cost"`
	} `json:"data"`
	SuggestedTopic string `json:"suggestedTopic"`
}

type createdSale struct {
	Data struct {
		ID         string  `json:"id"`
		ItemName   string  `json:"itemName"`
		TotalPrice float64 `json:"totalPrice"`
		Date       string  `json:"date"`
	} `json:"data"`
}

func createItem(t *testing.T, srv *Server, stock int) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/inventory",
		`{"name":"Shirt","cost":"5,00","basePrice":20,"stock":`+itoa(stock)+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[createdItem](t, rec).Data.ID
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Deps{})
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestReadyFailsWhenStorageDown(t *testing.T) {
	srv := newTestServer(t, Deps{})
	srv.health = failingPinger{}

	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestCreateItem(t *testing.T) {
	srv := newTestServer(t, Deps{})

	rec := do(t, srv, http.MethodPost, "/api/inventory", `{"name":"  Shirt ","cost":5,"basePrice":20,"stock":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	got := decode[createdItem](t, rec)
	assert.Equal(t, "Shirt", got.Data.Name)
	assert.Equal(t, 5.0, got.Data.Cost)
	assert.NotEmpty(t, got.SuggestedTopic)

	list := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/inventory", ""))
	assert.Len(t, list, 1)
}

func TestCreateItemValidation(t *testing.T) {
	srv := newTestServer(t, Deps{})
	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":"","cost":5,"basePrice":20,"stock":1}`},
		{"negative stock", `{"name":"Shirt","cost":5,"basePrice":20,"stock":-1}`},
		{"bad money", `{"name":"Shirt","cost":"abc","basePrice":20,"stock":1}`},
		{"malformed json", `{"name":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/inventory", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, msgValidation, decode[errorBody](t, rec).Error)
		})
	}
	assert.Empty(t, srv.books.Engine().Inventory())
}

func TestSaleLifecycle(t *testing.T) {
	srv := newTestServer(t, Deps{})
	id := createItem(t, srv, 10)

	rec := do(t, srv, http.MethodPost, "/api/sales",
		`{"itemId":"`+id+`","quantity":3,"pricePerUnit":20,"date":"2024-01-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := decode[createdSale](t, rec)
	assert.Equal(t, "Shirt", sale.Data.ItemName)
	assert.Equal(t, 60.0, sale.Data.TotalPrice)
	assert.Equal(t, "2024-01-15", sale.Data.Date)

	item, _ := srv.books.Engine().Item(id)
	assert.Equal(t, 7, item.Stock)

	t.Run("insufficient stock", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/sales",
			`{"itemId":"`+id+`","quantity":8,"pricePerUnit":20,"date":"2024-01-15"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, msgInsufficientStock, decode[errorBody](t, rec).Error)
	})

	t.Run("unknown item", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/sales",
			`{"itemId":"nope","quantity":1,"pricePerUnit":20,"date":"2024-01-15"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, msgItemNotFound, decode[errorBody](t, rec).Error)
	})

	t.Run("update above available stock", func(t *testing.T) {
		rec := do(t, srv, http.MethodPut, "/api/sales/"+sale.Data.ID,
			`{"quantity":11,"pricePerUnit":20,"date":"2024-01-15"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("update within available stock", func(t *testing.T) {
		rec := do(t, srv, http.MethodPut, "/api/sales/"+sale.Data.ID,
			`{"quantity":10,"pricePerUnit":15,"date":"2024-01-16"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		item, _ := srv.books.Engine().Item(id)
		assert.Equal(t, 0, item.Stock)
	})

	t.Run("delete restores stock", func(t *testing.T) {
		rec := do(t, srv, http.MethodDelete, "/api/sales/"+sale.Data.ID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		item, _ := srv.books.Engine().Item(id)
		assert.Equal(t, 10, item.Stock)
	})
}

func TestMissingIDsReturnNotFound(t *testing.T) {
	srv := newTestServer(t, Deps{})
	tests := []struct {
		method, path, body string
	}{
		{http.MethodDelete, "/api/inventory/missing", ""},
		{http.MethodDelete, "/api/sales/missing", ""},
		{http.MethodDelete, "/api/expenses/missing", ""},
		{http.MethodPut, "/api/inventory/missing", `{"name":"Shirt","cost":5,"basePrice":20,"stock":1}`},
		{http.MethodPut, "/api/sales/missing", `{"quantity":1,"pricePerUnit":20,"date":"2024-01-15"}`},
		{http.MethodPut, "/api/expenses/missing", `{"category":"Otros","description":"x","amount":5,"date":"2024-01-15"}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestExpensesAndReports(t *testing.T) {
	srv := newTestServer(t, Deps{})

	for _, body := range []string{
		`{"category":"Marketing y Publicidad","description":"Ads","amount":50,"date":"2024-01-10"}`,
		`{"category":"Otros","description":"Misc","amount":"25,50","date":"2024-02-03"}`,
	} {
		rec := do(t, srv, http.MethodPost, "/api/expenses", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, srv, http.MethodPost, "/api/expenses", `{"category":"Otros","description":"","amount":5,"date":"2024-01-10"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	months := decode[[]map[string]string](t, do(t, srv, http.MethodGet, "/api/reports/months", ""))
	require.Len(t, months, 2)
	assert.Equal(t, "2024-01", months[0]["month"])
	assert.Equal(t, "ene 2024", months[0]["displayName"])

	monthly := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/reports/monthly", ""))
	require.Len(t, monthly, 2)
	assert.Equal(t, 50.0, monthly[0]["totalExpense"])

	only := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/reports/monthly?month=2024-02", ""))
	require.Len(t, only, 1)
	assert.Equal(t, 25.5, only[0]["totalExpense"])

	rec = do(t, srv, http.MethodGet, "/api/reports/monthly?month=febrero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	dash := decode[map[string]any](t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	assert.Equal(t, 75.5, dash["totalExpenses"])
	assert.Equal(t, -75.5, dash["profit"])

	cats := decode[[]string](t, do(t, srv, http.MethodGet, "/api/categories", ""))
	assert.Len(t, cats, 7)
}

func TestTips(t *testing.T) {
	tips := &fakeAdvisor{}
	srv := newTestServer(t, Deps{Tips: tips})

	rec := do(t, srv, http.MethodGet, "/api/tips?topic=Gastos+de+Marketing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tip about Gastos de Marketing", decode[map[string]string](t, rec)["tip"])

	rec = do(t, srv, http.MethodGet, "/api/tips", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	disabled := newTestServer(t, Deps{})
	rec = do(t, disabled, http.MethodGet, "/api/tips?topic=x", "")
	assert.Equal(t, advisor.DisabledMessage, decode[map[string]string](t, rec)["tip"])
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv := newTestServer(t, Deps{RateLimitPerMinute: 1})

	first := do(t, srv, http.MethodPost, "/api/expenses", `{"category":"Otros","description":"a","amount":1,"date":"2024-01-10"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := do(t, srv, http.MethodPost, "/api/expenses", `{"category":"Otros","description":"b","amount":1,"date":"2024-01-10"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/expenses", "").Code)
	assert.Len(t, srv.books.Engine().Expenses(), 1)
}

func TestResponseHeaders(t *testing.T) {
	srv := newTestServer(t, Deps{})
	rec := do(t, srv, http.MethodGet, "/api/inventory", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, Deps{})
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodPatch, "/api/inventory", "").Code)
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.7:5000", "", "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:5000", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy bad header", "127.0.0.1:5000", "garbage", "127.0.0.1"},
		{"no port", "203.0.113.7", "", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
