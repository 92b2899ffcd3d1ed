package collector

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"gamedex/internal/models"
)

func TestListingCollectPaginatesUntilEmpty(t *testing.T) {
	pages := map[string]string{
		"0": `{"10": {"appid": 10, "name": "First"}, "20": {"appid": 20, "name": "Second"}}`,
		"1": `{"30": {"appid": 30, "name": "Third"}}`,
		"2": `{}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[r.URL.Query().Get("page")])
	})

	store := newStubGameStore(models.Game{AppID: 99, Name: "Stale", IsActive: true})
	c := &ListingCollector{
		Client:     newTestSpyClient(t, mux),
		Reconciler: &Reconciler{Store: store},
	}

	var events []PageProgress
	stats, err := c.Collect(context.Background(), 0, func(p PageProgress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Pages != 2 || stats.Processed != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Reconcile.Created != 3 {
		t.Fatalf("created = %d, want 3", stats.Reconcile.Created)
	}
	// The stale title is only on page 0's sweep.
	if stats.Reconcile.Deactivated != 1 {
		t.Fatalf("deactivated = %d, want 1", stats.Reconcile.Deactivated)
	}
	if store.games[99].IsActive {
		t.Fatal("stale game should be deactivated")
	}
	if store.deactCalls != 1 {
		t.Fatalf("deactivation ran %d times, want 1 (page 0 only)", store.deactCalls)
	}
	if len(events) != 2 || events[0].Page != 0 || events[1].Games != 1 {
		t.Fatalf("events = %+v", events)
	}
}

func TestListingCollectHonorsMaxPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"1": {"appid": 1, "name": "Endless"}}`)
	})
	c := &ListingCollector{
		Client:     newTestSpyClient(t, mux),
		Reconciler: &Reconciler{Store: newStubGameStore()},
	}
	stats, err := c.Collect(context.Background(), 2, nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Pages != 2 {
		t.Fatalf("pages = %d, want 2", stats.Pages)
	}
}

func TestListingCollectSkipsMalformedEntries(t *testing.T) {
	pages := map[string]string{
		"0": `{
			"10": {"appid": 10, "name": "Good"},
			"bad": "not an object",
			"20": {"appid": 0, "name": "No ID"},
			"30": {"appid": 30, "name": ""}
		}`,
		"1": `{}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[r.URL.Query().Get("page")])
	})
	store := newStubGameStore()
	c := &ListingCollector{
		Client:     newTestSpyClient(t, mux),
		Reconciler: &Reconciler{Store: store},
	}
	stats, err := c.Collect(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.Processed != 1 {
		t.Fatalf("processed = %d, want 1", stats.Processed)
	}
	if _, ok := store.games[10]; !ok {
		t.Fatal("good entry missing")
	}
}

func TestListingCollectSurfacesFetchError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusInternalServerError)
	})
	c := &ListingCollector{
		Client:     newTestSpyClient(t, mux),
		Reconciler: &Reconciler{Store: newStubGameStore()},
	}
	var failed bool
	_, err := c.Collect(context.Background(), 0, func(p PageProgress) {
		if p.Status == "failed" {
			failed = true
		}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !failed {
		t.Fatal("failed page progress not reported")
	}
}
