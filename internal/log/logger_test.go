package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})
	l.Info("hello", FieldItemID, "a")
	l.WithComponent(ComponentHTTP).Warn("moved")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "item_id=a") {
		t.Fatalf("missing fields: %s", out)
	}
	if strings.Count(out, "component=") != 2 || !strings.Contains(out, "component=http") {
		t.Fatalf("component must appear once per record: %s", out)
	}
}

func TestWithRequestStoresRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	r := httptest.NewRequest(http.MethodPost, "/api/sales", nil)
	ctx := WithRequest(r.Context(), l, "req-1")
	LogError(ctx, "boom", errors.New("disk"), OpCreate, NewFields().WithSale("s", "i", 2, 4000))
	LogHTTPEnd(ctx, r, http.StatusConflict, 3, "1.2.3.4")

	out := buf.String()
	for _, want := range []string{"request_id=req-1", "error=disk", "operation=create", "sale_id=s", "status_code=409", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
