package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"gamedex/internal/models"
)

func TestFormatPrice(t *testing.T) {
	free := "Free"
	dollars := "19.99"
	cheap := "0.99"
	cases := []struct {
		in   string
		want *string
	}{
		{"", nil},
		{"  ", nil},
		{"garbage", nil},
		{"0", &free},
		{"1999", &dollars},
		{"99", &cheap},
	}
	for _, tc := range cases {
		got := FormatPrice(tc.in)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("FormatPrice(%q) = %q, want nil", tc.in, *got)
		case tc.want != nil && got == nil:
			t.Errorf("FormatPrice(%q) = nil, want %q", tc.in, *tc.want)
		case tc.want != nil && *got != *tc.want:
			t.Errorf("FormatPrice(%q) = %q, want %q", tc.in, *got, *tc.want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"object", `{"FPS": 100, "Shooter": 50}`, 2},
		{"empty array", `[]`, 0},
		{"string", `"junk"`, 0},
		{"null", `null`, 0},
		{"missing", ``, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeTags(json.RawMessage(tc.raw))
			if got == nil {
				t.Fatal("normalizeTags returned nil map")
			}
			if len(got) != tc.want {
				t.Fatalf("len = %d, want %d", len(got), tc.want)
			}
		})
	}
}

func TestParseScoreRank(t *testing.T) {
	if got := parseScoreRank(json.RawMessage(`85`)); got == nil || *got != 85 {
		t.Fatalf("numeric score rank: %v", got)
	}
	if got := parseScoreRank(json.RawMessage(`"42"`)); got == nil || *got != 42 {
		t.Fatalf("string score rank: %v", got)
	}
	if got := parseScoreRank(json.RawMessage(`""`)); got != nil {
		t.Fatalf("empty string score rank should be nil, got %d", *got)
	}
	if got := parseScoreRank(nil); got != nil {
		t.Fatalf("absent score rank should be nil, got %d", *got)
	}
}

func TestMetadataFetchOneSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"appid": 730,
			"name": "Counter-Strike 2",
			"developer": "Valve",
			"publisher": "Valve",
			"owners": "50,000,000 .. 100,000,000",
			"positive": 1000000,
			"negative": 50000,
			"score_rank": "",
			"average_forever": 30000,
			"average_2weeks": 800,
			"price": "0",
			"genre": "Action, Free To Play",
			"languages": "English, German",
			"tags": {"FPS": 90000, "Shooter": 70000, "Multiplayer": 60000}
		}`)
	})
	c := &MetadataCollector{Client: newTestSpyClient(t, mux)}

	record := c.FetchOne(context.Background(), 730)
	if record.FetchStatus != models.FetchSuccess.String() {
		t.Fatalf("status = %s", record.FetchStatus)
	}
	if record.FetchAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", record.FetchAttempts)
	}
	if record.Developer == nil || *record.Developer != "Valve" {
		t.Fatalf("developer = %v", record.Developer)
	}
	if record.Price == nil || *record.Price != "Free" {
		t.Fatalf("price = %v", record.Price)
	}
	if record.ScoreRank != nil {
		t.Fatalf("empty score rank should stay nil, got %d", *record.ScoreRank)
	}
	var tags map[string]int
	if err := json.Unmarshal(record.Tags, &tags); err != nil {
		t.Fatalf("tags unmarshal: %v", err)
	}
	if tags["FPS"] != 90000 {
		t.Fatalf("tags = %v", tags)
	}
}

func TestMetadataFetchOneNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	c := &MetadataCollector{Client: newTestSpyClient(t, mux)}

	record := c.FetchOne(context.Background(), 999999)
	if record.FetchStatus != models.FetchNotFound.String() {
		t.Fatalf("status = %s, want not_found", record.FetchStatus)
	}
	if record.FetchAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", record.FetchAttempts)
	}
}

func TestMetadataFetchOneFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := &MetadataCollector{Client: newTestSpyClient(t, mux)}

	record := c.FetchOne(context.Background(), 730)
	if record.FetchStatus != models.FetchFailed.String() {
		t.Fatalf("status = %s, want failed", record.FetchStatus)
	}
	if record.FetchAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", record.FetchAttempts)
	}
}

func TestMetadataCollectForWritesThenNotifies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		appID := r.URL.Query().Get("appid")
		if appID == "2" {
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprintf(w, `{"appid": %s, "developer": "Dev", "price": "1999", "tags": {"Indie": 10}}`, appID)
	})
	c := &MetadataCollector{Client: newTestSpyClient(t, mux)}
	sink := NewMemorySink()

	games := []models.Game{
		{AppID: 1, Name: "One"},
		{AppID: 2, Name: "Two"},
		{AppID: 3, Name: "Three"},
	}

	var events []Progress
	stats, err := c.CollectFor(context.Background(), games, sink, 2, func(p Progress) {
		// The record must already be persisted when the callback fires.
		if _, ok := sink.Metadata(games[p.Processed-1].AppID); !ok {
			t.Errorf("progress fired before write for %s", p.Name)
		}
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("CollectFor: %v", err)
	}
	if stats.Processed != 3 || stats.Success != 2 || stats.NotFound != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(events) != 3 {
		t.Fatalf("progress events = %d, want 3", len(events))
	}
	if events[2].Processed != 3 || events[2].Total != 3 {
		t.Fatalf("last event = %+v", events[2])
	}

	meta, ok := sink.Metadata(1)
	if !ok {
		t.Fatal("metadata for 1 missing")
	}
	if meta.Price == nil || *meta.Price != "19.99" {
		t.Fatalf("price = %v", meta.Price)
	}
}

func TestMemorySinkAccumulatesAttempts(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := sink.UpsertGameMetadata(ctx, &models.GameMetadata{
			AppID:         7,
			FetchAttempts: 1,
			FetchStatus:   models.FetchFailed.String(),
		})
		if err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	meta, _ := sink.Metadata(7)
	if meta.FetchAttempts != 3 {
		t.Fatalf("attempts = %d, want 3", meta.FetchAttempts)
	}
}

func TestTopTags(t *testing.T) {
	tags := map[string]int{"FPS": 90, "Shooter": 70, "Multiplayer": 70, "Indie": 10}
	got := topTags(tags, 3)
	want := []string{"FPS", "Multiplayer", "Shooter"}
	if len(got) != len(want) {
		t.Fatalf("topTags = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topTags = %v, want %v", got, want)
		}
	}
	if topTags(nil, 3) != nil {
		t.Fatal("empty tags should give nil")
	}
}
