package collector

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gamedex/internal/client/steamspy"
	"gamedex/internal/client/steamstore"
	"gamedex/internal/fetcher"
)

// newTestFetcher builds a fetcher against a test server with no rate gate
// and millisecond backoff so retry paths stay fast.
func newTestFetcher(t *testing.T, handler http.Handler) (*fetcher.Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := fetcher.New(srv.Client(), nil, 2, nil)
	f.BackoffBase = time.Millisecond
	return f, srv
}

func newTestSpyClient(t *testing.T, handler http.Handler) *steamspy.Client {
	t.Helper()
	f, srv := newTestFetcher(t, handler)
	return steamspy.NewClient(f, srv.URL)
}

func newTestStoreClient(t *testing.T, handler http.Handler) *steamstore.Client {
	t.Helper()
	f, srv := newTestFetcher(t, handler)
	return steamstore.NewClient(f, srv.URL)
}
