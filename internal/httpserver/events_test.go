package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/velic0/game-telemetry/internal/deadletter"
	"github.com/velic0/game-telemetry/internal/dispatch"
	"github.com/velic0/game-telemetry/internal/jsonlog"
	"github.com/velic0/game-telemetry/internal/metrics"
	"github.com/velic0/game-telemetry/internal/sink"
)

const testAPIKey = "test-api-key"

type testServer struct {
	handler    http.Handler
	sink       *sink.Memory
	dispatcher *dispatch.Dispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
	met := metrics.New(prometheus.NewRegistry())
	mem := sink.NewMemory()
	dead := deadletter.New(100)

	d := dispatch.New(mem, dead, logger, met, dispatch.Config{QueueSize: 64})
	d.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})

	handler := BuildHandler(Config{
		APIKey:         testAPIKey,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}, logger, d, mem, met)

	return &testServer{handler: handler, sink: mem, dispatcher: d}
}

// drain stops the dispatcher so every queued delivery has completed.
func (ts *testServer) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ts.dispatcher.Stop(ctx); err != nil {
		t.Fatalf("dispatcher drain: %v", err)
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, withAuth bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func installBody() map[string]any {
	return map[string]any{
		"event_id":    "evt_123",
		"user_id":     "user_123",
		"game_id":     "test_game",
		"timestamp":   "2025-06-01T12:00:00Z",
		"platform":    "ios",
		"app_version": "1.0.0",
		"session_id":  "session_123",
		"source":      "organic",
		"country":     "US",
	}
}

func purchaseBody() map[string]any {
	return map[string]any{
		"event_id":     "evt_456",
		"user_id":      "user_123",
		"game_id":      "test_game",
		"timestamp":    "2025-06-01T12:00:00Z",
		"platform":     "ios",
		"app_version":  "1.0.0",
		"session_id":   "session_123",
		"product_id":   "coins100",
		"product_name": "100 Coins",
		"price":        0.99,
		"currency":     "USD",
	}
}

func TestPostInstall_Accepted(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/events/install", installBody(), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var resp EventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.EventID != "evt_123" {
		t.Errorf("event_id = %q, want evt_123", resp.EventID)
	}

	ts.drain(t)
	recs := ts.sink.Records()
	if len(recs) != 1 {
		t.Fatalf("sink records = %d, want 1", len(recs))
	}
	if recs[0].EventID != "evt_123" || recs[0].Source != "organic" {
		t.Errorf("delivered record = %+v, want the submitted install event", recs[0])
	}
}

func TestPostPurchase_Accepted(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/events/purchase", purchaseBody(), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var resp EventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EventID != "evt_456" {
		t.Errorf("event_id = %q, want evt_456", resp.EventID)
	}

	ts.drain(t)
	recs := ts.sink.Records()
	if len(recs) != 1 {
		t.Fatalf("sink records = %d, want 1", len(recs))
	}
	if recs[0].TransactionID != "txn_evt_456" {
		t.Errorf("transaction_id = %q, want derived txn_evt_456", recs[0].TransactionID)
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing credential", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/events/install", installBody(), false)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("wrong credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/events/install", bytes.NewReader(mustJSON(t, installBody())))
		req.Header.Set("Authorization", "Bearer wrong-key")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("non-bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/events/install", bytes.NewReader(mustJSON(t, installBody())))
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("correct credential passes regardless of payload", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/events/install", map[string]any{}, true)
		if rec.Code == http.StatusUnauthorized || rec.Code == http.StatusForbidden {
			t.Errorf("status = %d, want a non-auth outcome", rec.Code)
		}
	})
}

func TestPostInstall_Validation(t *testing.T) {
	ts := newTestServer(t)

	body := installBody()
	delete(body, "user_id")

	rec := ts.do(t, http.MethodPost, "/events/install", body, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body %s", rec.Code, rec.Body)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "ValidationError" {
		t.Errorf("error = %q, want ValidationError", resp.Error)
	}
}

func TestPostPurchase_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"negative price", func(b map[string]any) { b["price"] = -1.0 }},
		{"zero quantity", func(b map[string]any) { b["quantity"] = 0 }},
		{"short currency", func(b map[string]any) { b["currency"] = "US" }},
		{"long currency", func(b map[string]any) { b["currency"] = "DOLLARS" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			body := purchaseBody()
			tt.mutate(body)

			rec := ts.do(t, http.MethodPost, "/events/purchase", body, true)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422; body %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestPostEvents_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/events/install", nil, true)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "Game Analytics API" {
		t.Errorf("message = %v, want Game Analytics API", body["message"])
	}
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodGet, "/health", nil, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "healthy" {
			t.Errorf("status = %q, want healthy", resp.Status)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
		met := metrics.New(prometheus.NewRegistry())
		dead := deadletter.New(10)
		bad := unhealthySink{sink.NewMemory()}
		d := dispatch.New(bad, dead, logger, met, dispatch.Config{})

		handler := BuildHandler(Config{APIKey: testAPIKey, RateLimitRPS: 1000, RateLimitBurst: 1000}, logger, d, bad, met)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var resp HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "degraded" {
			t.Errorf("status = %q, want degraded", resp.Status)
		}
	})
}

type unhealthySink struct{ *sink.Memory }

func (unhealthySink) Healthy(context.Context) bool { return false }

func TestRateLimit(t *testing.T) {
	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
	met := metrics.New(prometheus.NewRegistry())
	mem := sink.NewMemory()
	d := dispatch.New(mem, deadletter.New(10), logger, met, dispatch.Config{})
	d.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})

	handler := BuildHandler(Config{APIKey: testAPIKey, RateLimitRPS: 0.001, RateLimitBurst: 1}, logger, d, mem, met)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/events/install", bytes.NewReader(mustJSON(t, installBody())))
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", code)
	}
}

func batchOf(n int) []map[string]any {
	events := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		var body map[string]any
		if i%2 == 0 {
			body = installBody()
			body["event_type"] = "install"
		} else {
			body = purchaseBody()
			body["event_type"] = "purchase"
		}
		body["event_id"] = fmt.Sprintf("evt_%d", i)
		events = append(events, body)
	}
	return events
}
