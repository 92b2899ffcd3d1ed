package steamweb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gamedex/internal/fetcher"
)

func newTestClient(t *testing.T, mux http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	f := fetcher.New(srv.Client(), nil, 2, nil)
	f.BackoffBase = time.Millisecond
	return NewClient(f, srv.URL, "test-key")
}

func resolveMux(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ISteamUser/ResolveVanityURL/v0001/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vanityurl") == "gaben" {
			fmt.Fprint(w, `{"response": {"success": 1, "steamid": "76561198000000001"}}`)
			return
		}
		fmt.Fprint(w, `{"response": {"success": 42, "message": "No match"}}`)
	})
	return mux
}

func TestResolvePlayerID(t *testing.T) {
	client := newTestClient(t, resolveMux(t))

	tests := []struct {
		name     string
		playerID string
		want     string
		wantErr  error
	}{
		{"steamid64 passes through", "76561198000000000", "76561198000000000", nil},
		{"vanity name resolved", "gaben", "76561198000000001", nil},
		{"full profile url resolved", "https://steamcommunity.com/id/gaben", "76561198000000001", nil},
		{"path-only url resolved", "/id/gaben/", "76561198000000001", nil},
		{"unknown vanity", "nobody-here", "", ErrUnresolvedVanity},
		{"garbage identifier", "not a valid id!", "", ErrInvalidPlayerID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.ResolvePlayerID(context.Background(), tt.playerID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolvePlayerID(%q): %v", tt.playerID, err)
			}
			if got != tt.want {
				t.Fatalf("ResolvePlayerID(%q) = %q, want %q", tt.playerID, got, tt.want)
			}
		})
	}
}

func TestOwnedGamesUnwrapsResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/IPlayerService/GetOwnedGames/v0001/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("steamid") != "76561198000000000" {
			t.Errorf("steamid = %q", q.Get("steamid"))
		}
		if q.Get("key") != "test-key" || q.Get("include_appinfo") != "1" {
			t.Errorf("unexpected query: %v", q)
		}
		fmt.Fprint(w, `{"response": {"game_count": 1, "games": [{"appid": 730, "name": "Counter-Strike 2"}]}}`)
	})
	client := newTestClient(t, mux)

	games, err := client.OwnedGames(context.Background(), "76561198000000000")
	if err != nil {
		t.Fatalf("OwnedGames: %v", err)
	}
	payload := string(games)
	if !strings.Contains(payload, `"game_count"`) || !strings.Contains(payload, `"appid"`) {
		t.Fatalf("payload = %s", payload)
	}
	if strings.Contains(payload, `"response"`) {
		t.Fatalf("envelope not unwrapped: %s", payload)
	}
}

func TestOwnedGamesRejectsInvalidIdentifier(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())
	if _, err := client.OwnedGames(context.Background(), "not a valid id!"); !errors.Is(err, ErrInvalidPlayerID) {
		t.Fatalf("err = %v, want ErrInvalidPlayerID", err)
	}
}
