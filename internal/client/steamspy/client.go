package steamspy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gamedex/internal/fetcher"
	"gamedex/internal/ratelimit"
)

// Client talks to the SteamSpy API. The /all listing and the per-title
// appdetails surface share a host but carry separate rate limits.
type Client struct {
	host    string
	fetcher *fetcher.Fetcher
}

func NewClient(f *fetcher.Fetcher, host string) *Client {
	if host == "" {
		host = "https://steamspy.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{host: host, fetcher: f}
}

// AllPageURL builds the popularity-sorted listing URL for one page.
// Pages start at 0 and hold up to 1000 games each.
func (c *Client) AllPageURL(page int) string {
	return fmt.Sprintf("%s/api.php?request=all&page=%d", c.host, page)
}

// AppDetailsURL builds the per-title statistics URL.
func (c *Client) AppDetailsURL(appID int64) string {
	return fmt.Sprintf("%s/api.php?request=appdetails&appid=%d", c.host, appID)
}

// AllPage fetches one listing page. The payload is a JSON object keyed by
// app id string; an empty object means the listing is exhausted.
func (c *Client) AllPage(ctx context.Context, page int) (map[string]json.RawMessage, error) {
	body, err := c.fetcher.FetchJSON(ctx, ratelimit.SteamSpyAll, c.AllPageURL(page))
	if err != nil {
		return nil, err
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode listing page %d: %w", page, err)
	}
	return entries, nil
}

// AppDetails fetches the raw statistics payload for one title. SteamSpy
// answers unknown ids with an empty object, not an HTTP error.
func (c *Client) AppDetails(ctx context.Context, appID int64) (json.RawMessage, error) {
	return c.fetcher.FetchJSON(ctx, ratelimit.SteamSpyAPI, c.AppDetailsURL(appID))
}
