package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"gamedex/internal/models"
)

func TestStorefrontFetchOneSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/appdetails", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"730": {"success": true, "data": {
			"short_description": "The premier competitive FPS.",
			"is_free": true,
			"required_age": "18",
			"header_image": "https://cdn.example/730/header.jpg",
			"release_date": {"coming_soon": false, "date": "21 Aug, 2012"},
			"developers": ["Valve"],
			"publishers": ["Valve"],
			"genres": [{"id": "1", "description": "Action"}],
			"screenshots": []
		}}}`)
	})
	c := &StorefrontCollector{Client: newTestStoreClient(t, mux)}

	record := c.FetchOne(context.Background(), 730)
	if record.FetchStatus != models.FetchSuccess.String() {
		t.Fatalf("status = %s", record.FetchStatus)
	}
	if record.IsFree == nil || !*record.IsFree {
		t.Fatalf("is_free = %v", record.IsFree)
	}
	if record.RequiredAge == nil || *record.RequiredAge != 18 {
		t.Fatalf("required_age = %v", record.RequiredAge)
	}
	if record.ReleaseDate == nil || *record.ReleaseDate != "21 Aug, 2012" {
		t.Fatalf("release_date = %v", record.ReleaseDate)
	}
	var devs []string
	if err := json.Unmarshal(record.Developers, &devs); err != nil || len(devs) != 1 {
		t.Fatalf("developers = %s (%v)", record.Developers, err)
	}
}

func TestStorefrontFetchOneUnsuccessfulEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/appdetails", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"12345": {"success": false}}`)
	})
	c := &StorefrontCollector{Client: newTestStoreClient(t, mux)}

	record := c.FetchOne(context.Background(), 12345)
	if record.FetchStatus != models.FetchNotFound.String() {
		t.Fatalf("status = %s, want not_found", record.FetchStatus)
	}
	if record.FetchAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", record.FetchAttempts)
	}
}

func TestStorefrontFetchOneMissingEntry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/appdetails", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	c := &StorefrontCollector{Client: newTestStoreClient(t, mux)}

	record := c.FetchOne(context.Background(), 777)
	if record.FetchStatus != models.FetchNotFound.String() {
		t.Fatalf("status = %s, want not_found", record.FetchStatus)
	}
}

func TestStorefrontFetchOneFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/appdetails", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unhappy", http.StatusBadGateway)
	})
	c := &StorefrontCollector{Client: newTestStoreClient(t, mux)}

	record := c.FetchOne(context.Background(), 730)
	if record.FetchStatus != models.FetchFailed.String() {
		t.Fatalf("status = %s, want failed", record.FetchStatus)
	}
}

func TestParseReleaseDate(t *testing.T) {
	if got := parseReleaseDate(json.RawMessage(`{"date": "1 Jan, 2020"}`)); got == nil || *got != "1 Jan, 2020" {
		t.Fatalf("got %v", got)
	}
	if got := parseReleaseDate(json.RawMessage(`{"coming_soon": true}`)); got != nil {
		t.Fatalf("missing date should be nil, got %q", *got)
	}
	if got := parseReleaseDate(json.RawMessage(`"bare string"`)); got != nil {
		t.Fatalf("wrong shape should be nil, got %q", *got)
	}
	if got := parseReleaseDate(nil); got != nil {
		t.Fatalf("absent should be nil, got %q", *got)
	}
}

func TestParseRequiredAge(t *testing.T) {
	if got := parseRequiredAge(json.RawMessage(`17`)); got == nil || *got != 17 {
		t.Fatalf("numeric: %v", got)
	}
	if got := parseRequiredAge(json.RawMessage(`"16"`)); got == nil || *got != 16 {
		t.Fatalf("string: %v", got)
	}
	if got := parseRequiredAge(json.RawMessage(`"unknown"`)); got != nil {
		t.Fatalf("junk string should be nil, got %d", *got)
	}
}

func TestJSONColumn(t *testing.T) {
	if jsonColumn(nil) != nil {
		t.Fatal("empty raw should be nil")
	}
	if jsonColumn(json.RawMessage(`null`)) != nil {
		t.Fatal("null raw should be nil")
	}
	if got := jsonColumn(json.RawMessage(`["a"]`)); string(got) != `["a"]` {
		t.Fatalf("got %s", got)
	}
}
