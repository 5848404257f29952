package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reinnin/internal/config"
	"reinnin/internal/db"
	"reinnin/internal/game"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := db.Open(context.Background(), "", ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(store, logger, game.DefaultRules())
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init service: %v", err)
	}
	cfg := config.APIConfig{
		AdminPass:      "testpass",
		AllowedOrigins: []string{"*"},
		Rules:          game.DefaultRules(),
	}
	ts := httptest.NewServer(New(cfg, logger, svc).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out["ok"] != true {
		t.Fatalf("body = %v", out)
	}
}

func TestWeekEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodGet, ts.URL+"/v1/week", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out["week"] != float64(1) {
		t.Fatalf("week = %v, want 1", out["week"])
	}
	if out["announcement"] == "" {
		t.Fatal("week 1 announcement missing")
	}
}

func TestBuySellFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, out := doJSON(t, http.MethodPost, ts.URL+"/v1/teams/Alpha/buy",
		map[string]any{"asset_id": "A001"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("buy status = %d: %v", resp.StatusCode, out)
	}
	if out["ticket_eur"] != float64(21_840_000) {
		t.Fatalf("ticket = %v, want 21840000", out["ticket_eur"])
	}

	// Supply gating shows up as a conflict for anyone else.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/teams/Beta/buy",
		map[string]any{"asset_id": "A001"}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second buy status = %d, want 409", resp.StatusCode)
	}

	// Over-cap exit is unprocessable and leaves a block behind.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/teams/Alpha/sell",
		map[string]any{"asset_id": "A001", "exit_psm": 5600}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("over-cap sell status = %d, want 422", resp.StatusCode)
	}
	resp, out = doJSON(t, http.MethodGet, ts.URL+"/v1/teams/Alpha/portfolio", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("portfolio status = %d", resp.StatusCode)
	}
	holdings, ok := out["holdings"].([]any)
	if !ok || len(holdings) != 1 {
		t.Fatalf("holdings = %v, want 1", out["holdings"])
	}
	if h := holdings[0].(map[string]any); h["blocked_until_week"] != float64(2) {
		t.Fatalf("blocked_until_week = %v, want 2", h["blocked_until_week"])
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/teams/Alpha/sell",
		map[string]any{"asset_id": "A001", "exit_psm": 5400}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("blocked sell status = %d, want 409", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/teams/Alpha/buy", nil, nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET buy status = %d, want 405", resp.StatusCode)
	}
}

func TestBuyUnknownAsset(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/teams/Alpha/buy",
		map[string]any{"asset_id": "Z999"}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAdminAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/admin/advance-week", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no-credentials status = %d, want 401", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/admin/advance-week", nil,
		map[string]string{"X-Admin-Pass": "nope"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong-password status = %d, want 403", resp.StatusCode)
	}

	resp, out := doJSON(t, http.MethodPost, ts.URL+"/v1/admin/login",
		map[string]any{"password": "testpass"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d: %v", resp.StatusCode, out)
	}
	token, _ := out["token"].(string)
	if token == "" {
		t.Fatalf("login body = %v, want a token", out)
	}

	resp, out = doJSON(t, http.MethodPost, ts.URL+"/v1/admin/advance-week", nil,
		map[string]string{"Authorization": "Bearer " + token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance status = %d: %v", resp.StatusCode, out)
	}
	if out["week"] != float64(2) {
		t.Fatalf("week = %v, want 2", out["week"])
	}
	if out["shock_applied"] != true {
		t.Fatalf("shock_applied = %v, want true", out["shock_applied"])
	}

	// The shared password works directly too.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/admin/reset", nil,
		map[string]string{"X-Admin-Pass": "testpass"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d, want 200", resp.StatusCode)
	}
}

func TestLeaderboardCSV(t *testing.T) {
	ts := newTestServer(t)

	if resp, out := doJSON(t, http.MethodPost, ts.URL+"/v1/teams/Alpha/buy",
		map[string]any{"asset_id": "A050"}, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("buy status = %d: %v", resp.StatusCode, out)
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/admin/leaderboard.csv", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Admin-Pass", "testpass")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get csv: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q, want text/csv", ct)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header + 1 row", len(lines))
	}
	if lines[0] != "rank,team,cash_eur,portfolio_eur,annual_noi,holdings" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,Alpha,") || !strings.HasSuffix(lines[1], ",1") {
		t.Fatalf("row = %q", lines[1])
	}
}
