package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamedex/internal/models"
)

type stubGameStore struct {
	games      map[int64]models.Game
	upsertErr  map[int64]error
	upserts    []int64
	deactCalls int
}

func newStubGameStore(existing ...models.Game) *stubGameStore {
	s := &stubGameStore{games: map[int64]models.Game{}, upsertErr: map[int64]error{}}
	for _, g := range existing {
		s.games[g.AppID] = g
	}
	return s
}

func (s *stubGameStore) ListGamesByIDs(ctx context.Context, appIDs []int64) ([]models.Game, error) {
	var out []models.Game
	for _, id := range appIDs {
		if g, ok := s.games[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *stubGameStore) UpsertGame(ctx context.Context, item *models.Game) error {
	if err := s.upsertErr[item.AppID]; err != nil {
		return err
	}
	s.games[item.AppID] = *item
	s.upserts = append(s.upserts, item.AppID)
	return nil
}

func (s *stubGameStore) DeactivateGamesNotIn(ctx context.Context, appIDs []int64) (int64, error) {
	s.deactCalls++
	keep := map[int64]struct{}{}
	for _, id := range appIDs {
		keep[id] = struct{}{}
	}
	var n int64
	for id, g := range s.games {
		if _, ok := keep[id]; ok || !g.IsActive {
			continue
		}
		g.IsActive = false
		s.games[id] = g
		n++
	}
	return n, nil
}

func TestReconcileCreatesAndUpdates(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newStubGameStore(
		models.Game{AppID: 10, Name: "Old Name", IsActive: true, CreatedAt: created},
	)
	r := &Reconciler{Store: store}

	fresh := []models.Game{
		{AppID: 10, Name: "New Name"},
		{AppID: 20, Name: "Brand New"},
	}
	stats, err := r.Reconcile(context.Background(), fresh, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if stats.Created != 1 || stats.Updated != 1 {
		t.Fatalf("stats = %+v, want 1 created 1 updated", stats)
	}
	got := store.games[10]
	if got.Name != "New Name" || !got.IsActive {
		t.Fatalf("game 10 = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt rewritten on update: %v", got.CreatedAt)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	store := newStubGameStore()
	r := &Reconciler{Store: store}
	fresh := []models.Game{{AppID: 1, Name: "A"}, {AppID: 2, Name: "B"}}

	if _, err := r.Reconcile(context.Background(), fresh, false); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	stats, err := r.Reconcile(context.Background(), fresh, false)
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if stats.Created != 0 || stats.Updated != 0 {
		t.Fatalf("second pass stats = %+v, want all zero", stats)
	}
}

func TestReconcileDeduplicates(t *testing.T) {
	store := newStubGameStore()
	r := &Reconciler{Store: store}
	fresh := []models.Game{
		{AppID: 1, Name: "First"},
		{AppID: 1, Name: "Duplicate"},
	}
	stats, err := r.Reconcile(context.Background(), fresh, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if stats.Created != 1 {
		t.Fatalf("created = %d, want 1", stats.Created)
	}
	if store.games[1].Name != "First" {
		t.Fatalf("first occurrence should win, got %q", store.games[1].Name)
	}
}

func TestReconcileDeactivatesMissing(t *testing.T) {
	store := newStubGameStore(
		models.Game{AppID: 1, Name: "Keep", IsActive: true},
		models.Game{AppID: 2, Name: "Drop", IsActive: true},
		models.Game{AppID: 3, Name: "Already Gone", IsActive: false},
	)
	r := &Reconciler{Store: store}

	stats, err := r.Reconcile(context.Background(), []models.Game{{AppID: 1, Name: "Keep"}}, true)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if stats.Deactivated != 1 {
		t.Fatalf("deactivated = %d, want 1", stats.Deactivated)
	}
	if store.games[2].IsActive {
		t.Fatal("game 2 should be inactive")
	}
	if !store.games[1].IsActive {
		t.Fatal("game 1 should stay active")
	}
}

func TestReconcileSkipsDeactivationWhenNotAsked(t *testing.T) {
	store := newStubGameStore(models.Game{AppID: 2, Name: "Other", IsActive: true})
	r := &Reconciler{Store: store}
	if _, err := r.Reconcile(context.Background(), []models.Game{{AppID: 1, Name: "A"}}, false); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if store.deactCalls != 0 {
		t.Fatalf("deactivation ran %d times, want 0", store.deactCalls)
	}
}

func TestReconcileSurvivesSingleUpsertFailure(t *testing.T) {
	store := newStubGameStore()
	store.upsertErr[2] = errors.New("duplicate key value violates unique constraint")
	r := &Reconciler{Store: store}

	fresh := []models.Game{
		{AppID: 1, Name: "A"},
		{AppID: 2, Name: "B"},
		{AppID: 3, Name: "C"},
	}
	stats, err := r.Reconcile(context.Background(), fresh, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if stats.Created != 2 {
		t.Fatalf("created = %d, want 2", stats.Created)
	}
	if _, ok := store.games[2]; ok {
		t.Fatal("failing item should not be stored")
	}
}
