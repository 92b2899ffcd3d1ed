package steamweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"gamedex/internal/fetcher"
	"gamedex/internal/ratelimit"
)

// ErrUnresolvedVanity is returned when Steam cannot map a vanity name to a
// SteamID64.
var ErrUnresolvedVanity = fmt.Errorf("vanity name could not be resolved")

// ErrInvalidPlayerID is returned for identifiers that are neither a
// SteamID64, a vanity name nor a profile URL.
var ErrInvalidPlayerID = fmt.Errorf("invalid player identifier")

var (
	steamID64Pattern   = regexp.MustCompile(`^76561198\d{9}$`)
	vanityNamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	profilePathPattern = regexp.MustCompile(`/id/([^/]+)`)
)

// Client talks to the official Steam Web API. Every call goes through the
// shared fetcher under the steam_web_api admission key.
type Client struct {
	fetcher *fetcher.Fetcher
	baseURL string
	apiKey  string
}

func NewClient(f *fetcher.Fetcher, baseURL, apiKey string) *Client {
	return &Client{fetcher: f, baseURL: baseURL, apiKey: apiKey}
}

// ResolvePlayerID normalizes any accepted identifier to a SteamID64:
// a SteamID64 passes through, a profile URL has its vanity segment
// extracted and resolved, a bare vanity name is resolved directly.
func (c *Client) ResolvePlayerID(ctx context.Context, playerID string) (string, error) {
	switch {
	case steamID64Pattern.MatchString(playerID):
		return playerID, nil
	case profilePathPattern.MatchString(playerID):
		match := profilePathPattern.FindStringSubmatch(playerID)
		return c.ResolveVanityURL(ctx, match[1])
	case vanityNamePattern.MatchString(playerID):
		return c.ResolveVanityURL(ctx, playerID)
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPlayerID, playerID)
	}
}

// ResolveVanityURL maps a vanity name to a SteamID64 via
// ISteamUser/ResolveVanityURL.
func (c *Client) ResolveVanityURL(ctx context.Context, vanityName string) (string, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("vanityurl", vanityName)
	params.Set("url_type", "1")
	params.Set("format", "json")

	endpoint := fmt.Sprintf("%s/ISteamUser/ResolveVanityURL/v0001/?%s", c.baseURL, params.Encode())
	raw, err := c.fetcher.FetchJSON(ctx, ratelimit.SteamWebAPI, endpoint)
	if err != nil {
		return "", fmt.Errorf("resolve vanity %s: %w", vanityName, err)
	}

	var envelope struct {
		Response struct {
			Success int    `json:"success"`
			SteamID string `json:"steamid"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("resolve vanity %s: %w", vanityName, err)
	}
	if envelope.Response.Success != 1 || envelope.Response.SteamID == "" {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedVanity, vanityName)
	}
	return envelope.Response.SteamID, nil
}

// OwnedGames resolves the identifier and fetches the player's owned games
// via IPlayerService/GetOwnedGames, returning the inner response object.
func (c *Client) OwnedGames(ctx context.Context, playerID string) (json.RawMessage, error) {
	steamID, err := c.ResolvePlayerID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", steamID)
	params.Set("format", "json")
	params.Set("include_appinfo", "1")
	params.Set("include_played_free_games", "1")

	endpoint := fmt.Sprintf("%s/IPlayerService/GetOwnedGames/v0001/?%s", c.baseURL, params.Encode())
	raw, err := c.fetcher.FetchJSON(ctx, ratelimit.SteamWebAPI, endpoint)
	if err != nil {
		return nil, fmt.Errorf("owned games for %s: %w", steamID, err)
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("owned games for %s: %w", steamID, err)
	}
	if len(envelope.Response) == 0 {
		return raw, nil
	}
	return envelope.Response, nil
}
