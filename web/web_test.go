package web_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Isabellarossi/edgedb/service"
	"github.com/Isabellarossi/edgedb/stats"
	"github.com/Isabellarossi/edgedb/web"
)

type fakeTop struct {
	rows []stats.KeyStat
	err  error
}

func (f *fakeTop) Top(_ context.Context, n int) ([]stats.KeyStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n < len(f.rows) {
		return f.rows[:n], nil
	}
	return f.rows, nil
}

func newServer(t *testing.T, top *fakeTop) *web.Server {
	t.Helper()
	svc := service.New(service.DefaultConfig(), nil)
	t.Cleanup(svc.Close)
	if top == nil {
		return web.New(svc, nil)
	}
	return web.New(svc, top)
}

func TestHandleNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode int
		check    func(t *testing.T, body map[string]any)
	}{
		{
			name:     "extracted",
			body:     `{"query": "SELECT 1 + 1.5"}`,
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				t.Helper()
				if body["key"] != "SELECT(<__std__::int64>$0)+(<__std__::float64>$1)" {
					t.Errorf("key = %v", body["key"])
				}
				if body["outcome"] != "extracted" {
					t.Errorf("outcome = %v", body["outcome"])
				}
				if body["first_arg"] != float64(0) {
					t.Errorf("first_arg = %v", body["first_arg"])
				}
			},
		},
		{
			name:     "fallback",
			body:     `{"query": "ALTER TYPE Foo"}`,
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				t.Helper()
				if body["skipped"] != "administrative" {
					t.Errorf("skipped = %v", body["skipped"])
				}
				if body["first_arg"] != nil {
					t.Errorf("first_arg = %v, want null", body["first_arg"])
				}
			},
		},
		{
			name:     "tokenizer error",
			body:     `{"query": "SELECT\n  1e999"}`,
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				t.Helper()
				if body["kind"] != "tokenizer" {
					t.Errorf("kind = %v", body["kind"])
				}
				if body["line"] != float64(2) || body["column"] != float64(3) {
					t.Errorf("position = %v:%v, want 2:3", body["line"], body["column"])
				}
			},
		},
		{
			name:     "invalid body",
			body:     `{`,
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				t.Helper()
				if !strings.HasPrefix(body["error"].(string), "invalid request body") {
					t.Errorf("error = %v", body["error"])
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newServer(t, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/normalize", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("content type = %q", ct)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			tt.check(t, body)
		})
	}
}

func TestHandleTop(t *testing.T) {
	t.Parallel()

	seen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	top := &fakeTop{rows: []stats.KeyStat{
		{Fingerprint: 1, Key: "a", Hits: 9, LastSeen: seen},
		{Fingerprint: 2, Key: "b", Hits: 3, LastSeen: seen},
	}}

	tests := []struct {
		name     string
		top      *fakeTop
		url      string
		wantCode int
		wantRows int
	}{
		{name: "default", top: top, url: "/api/top", wantCode: http.StatusOK, wantRows: 2},
		{name: "limited", top: top, url: "/api/top?n=1", wantCode: http.StatusOK, wantRows: 1},
		{name: "bad n", top: top, url: "/api/top?n=x", wantCode: http.StatusBadRequest},
		{name: "zero n", top: top, url: "/api/top?n=0", wantCode: http.StatusBadRequest},
		{name: "not configured", url: "/api/top", wantCode: http.StatusServiceUnavailable},
		{name: "db error", top: &fakeTop{err: errors.New("down")}, url: "/api/top", wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newServer(t, tt.top)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var rows []map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(rows) != tt.wantRows {
				t.Fatalf("got %d rows, want %d", len(rows), tt.wantRows)
			}
			if rows[0]["fingerprint"] != "0000000000000001" {
				t.Fatalf("fingerprint = %v", rows[0]["fingerprint"])
			}
		})
	}
}

func TestStaticIndex(t *testing.T) {
	t.Parallel()
	srv := newServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "edgeql-norm") {
		t.Fatal("index page not served")
	}
}

func TestHandleSSE(t *testing.T) {
	t.Parallel()
	srv := newServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// Headers are flushed before the subscription exists; keep posting
	// until an event arrives.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r, err := http.Post(ts.URL+"/api/normalize", "application/json", strings.NewReader(`{"query":"SELECT 'x'"}`))
				if err == nil {
					_ = r.Body.Close()
				}
			}
		}
	}()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev map[string]any
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev["key"] != "SELECT(<__std__::str>$0)" {
			t.Fatalf("key = %v", ev["key"])
		}
		return
	}
	t.Fatalf("stream ended without an event: %v", sc.Err())
}
