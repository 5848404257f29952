package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reinnin/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Week(ctx context.Context) (game.WeekView, error) {
	var out game.WeekView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/week", "", nil, &out)
	return out, err
}

func (c *Client) Market(ctx context.Context) ([]game.MarketRow, error) {
	var out struct {
		Assets []game.MarketRow `json:"assets"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/market", "", nil, &out)
	return out.Assets, err
}

func (c *Client) Book(ctx context.Context) ([]game.BookRow, error) {
	var out struct {
		Assets []game.BookRow `json:"assets"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/book", "", nil, &out)
	return out.Assets, err
}

func (c *Client) SearchAssets(ctx context.Context, query string) ([]game.BookRow, error) {
	var out struct {
		Assets []game.BookRow `json:"assets"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/assets/search?q="+url.QueryEscape(query), "", nil, &out)
	return out.Assets, err
}

func (c *Client) Team(ctx context.Context, name string) (game.TeamView, error) {
	var out game.TeamView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/teams/"+url.PathEscape(name), "", nil, &out)
	return out, err
}

func (c *Client) Portfolio(ctx context.Context, name string) ([]game.HoldingView, error) {
	var out struct {
		Holdings []game.HoldingView `json:"holdings"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/teams/"+url.PathEscape(name)+"/portfolio", "", nil, &out)
	return out.Holdings, err
}

func (c *Client) Buy(ctx context.Context, team, assetID string) (game.BuyResult, error) {
	var out game.BuyResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/teams/"+url.PathEscape(team)+"/buy", "", map[string]any{
		"asset_id": assetID,
	}, &out)
	return out, err
}

func (c *Client) Sell(ctx context.Context, team, assetID string, exitPSM float64) (game.SellResult, error) {
	var out game.SellResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/teams/"+url.PathEscape(team)+"/sell", "", map[string]any{
		"asset_id": assetID,
		"exit_psm": exitPSM,
	}, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context) ([]game.LeaderboardRow, error) {
	var out struct {
		Leaderboard []game.LeaderboardRow `json:"leaderboard"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/leaderboard", "", nil, &out)
	return out.Leaderboard, err
}

func (c *Client) AdminLogin(ctx context.Context, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/login", "", map[string]any{
		"password": password,
	}, &out)
	return out.Token, err
}

func (c *Client) AdvanceWeek(ctx context.Context, adminToken string) (game.AdvanceResult, error) {
	var out game.AdvanceResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/advance-week", adminToken, map[string]any{}, &out)
	return out, err
}

func (c *Client) ResetGame(ctx context.Context, adminToken string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/admin/reset", adminToken, map[string]any{}, nil)
}

func (c *Client) AdminTeams(ctx context.Context, adminToken string) ([]game.TeamOverview, error) {
	var out struct {
		Teams []game.TeamOverview `json:"teams"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/admin/teams", adminToken, nil, &out)
	return out.Teams, err
}

// LeaderboardCSV streams the instructor CSV export.
func (c *Client) LeaderboardCSV(ctx context.Context, adminToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/admin/leaderboard.csv", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) jsonRequest(ctx context.Context, method, path, adminToken string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
