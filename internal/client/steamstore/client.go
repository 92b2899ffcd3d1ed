package steamstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gamedex/internal/fetcher"
	"gamedex/internal/ratelimit"
)

// Client talks to the Steam storefront appdetails API.
type Client struct {
	host    string
	fetcher *fetcher.Fetcher
}

// Envelope is the per-title wrapper the storefront API returns:
// { "<appid>": { "success": bool, "data": {...} } }.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func NewClient(f *fetcher.Fetcher, host string) *Client {
	if host == "" {
		host = "https://store.steampowered.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{host: host, fetcher: f}
}

func (c *Client) AppDetailsURL(appID int64) string {
	return fmt.Sprintf("%s/api/appdetails?appids=%d", c.host, appID)
}

// AppDetails fetches the storefront payload for one title and unwraps the
// id-keyed envelope. A missing entry or success=false means the title has
// no storefront page; the second return value reports that distinctly.
func (c *Client) AppDetails(ctx context.Context, appID int64) (json.RawMessage, bool, error) {
	body, err := c.fetcher.FetchJSON(ctx, ratelimit.SteamStoreAPI, c.AppDetailsURL(appID))
	if err != nil {
		return nil, false, err
	}
	var envelopes map[string]Envelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, false, fmt.Errorf("decode appdetails for %d: %w", appID, err)
	}
	env, ok := envelopes[fmt.Sprintf("%d", appID)]
	if !ok || !env.Success {
		return nil, false, nil
	}
	return env.Data, true, nil
}
