package collector

import (
	"sort"

	"gamedex/internal/models"
)

// Progress is emitted once per processed title, after its record has been
// persisted (write-then-notify).
type Progress struct {
	Processed int
	Total     int
	Name      string
	Status    models.FetchStatus
	TopTags   []string
}

type ProgressFunc func(Progress)

// PageProgress is emitted once per fetched listing page.
type PageProgress struct {
	Page   int
	Games  int
	Status string
}

type PageProgressFunc func(PageProgress)

// topTags returns the highest-voted tag names, most votes first.
func topTags(tags map[string]int, n int) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if tags[names[i]] != tags[names[j]] {
			return tags[names[i]] > tags[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
