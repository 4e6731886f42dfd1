package scoring

import (
	"sort"
)

// History answers questions about previously recorded results. It is a
// read-only view built from a Storage snapshot.
type History struct {
	Entries []Entry
}

// LoadHistory reads all results from storage into a History.
func LoadHistory(storage Storage) (*History, error) {
	entries, err := storage.LoadAll()
	if err != nil {
		return nil, err
	}
	return &History{Entries: entries}, nil
}

// BestForCategory returns the highest-scoring entry for a category, or nil
// when the category has never been played.
func (h *History) BestForCategory(category string) *Entry {
	var best *Entry
	for i := range h.Entries {
		e := &h.Entries[i]
		if e.Category != category {
			continue
		}
		if best == nil || e.Score > best.Score {
			best = e
		}
	}
	return best
}

// AttemptsForCategory counts how many games were recorded for a category.
func (h *History) AttemptsForCategory(category string) int {
	n := 0
	for _, e := range h.Entries {
		if e.Category == category {
			n++
		}
	}
	return n
}

// TotalPoints sums the scores of every recorded game.
func (h *History) TotalPoints() int {
	total := 0
	for _, e := range h.Entries {
		total += e.Score
	}
	return total
}

// TopN returns the N best results across all categories, sorted by score.
func (h *History) TopN(n int) []Entry {
	entriesCopy := make([]Entry, len(h.Entries))
	copy(entriesCopy, h.Entries)

	sort.Slice(entriesCopy, func(i, j int) bool {
		return entriesCopy[i].Score > entriesCopy[j].Score
	})

	if len(entriesCopy) < n {
		return entriesCopy
	}
	return entriesCopy[:n]
}
