package game

import (
	"errors"
	"testing"

	"signmem/internal/scoring"
)

// recordStorage implements scoring.Storage for testing.
type recordStorage struct {
	entries      []scoring.Entry
	recordCalled bool
}

func (m *recordStorage) Record(e scoring.Entry) error {
	m.entries = append(m.entries, e)
	m.recordCalled = true
	return nil
}

func (m *recordStorage) LoadAll() ([]scoring.Entry, error) {
	return m.entries, nil
}

func newTestSession(t *testing.T, pairs int, store scoring.Storage) *Session {
	t.Helper()
	s, err := NewSession("Greetings", makeItems(pairs), Options{}, store)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

// findPair returns the deck indices of the two cards of one unmatched item.
func findPair(t *testing.T, s *Session) (int, int) {
	t.Helper()
	byItem := map[string]int{}
	for i, c := range s.Deck {
		if c.Matched {
			continue
		}
		if j, ok := byItem[c.ItemID]; ok {
			return j, i
		}
		byItem[c.ItemID] = i
	}
	t.Fatal("no unmatched pair left")
	return 0, 0
}

// findMismatch returns indices of two unmatched cards with different items.
func findMismatch(t *testing.T, s *Session) (int, int) {
	t.Helper()
	for i, a := range s.Deck {
		if a.Matched {
			continue
		}
		for j := i + 1; j < len(s.Deck); j++ {
			b := s.Deck[j]
			if !b.Matched && b.ItemID != a.ItemID {
				return i, j
			}
		}
	}
	t.Fatal("no mismatched pair left")
	return 0, 0
}

func TestSession_EmptyItems(t *testing.T) {
	_, err := NewSession("Empty", nil, Options{}, nil)
	if !errors.Is(err, ErrNoItems) {
		t.Errorf("expected ErrNoItems, got %v", err)
	}
}

func TestSession_FirstRevealStartsGame(t *testing.T) {
	s := newTestSession(t, 2, nil)

	if s.Phase() != PhaseNotStarted {
		t.Fatalf("new session should be notStarted, got %s", s.Phase())
	}

	// Ticks before the first reveal must not advance the clock.
	s.HandleTick()
	if s.Elapsed != 0 {
		t.Error("clock ran before the game started")
	}

	if _, err := s.Reveal(0); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if s.Phase() != PhaseActive {
		t.Errorf("expected active after first reveal, got %s", s.Phase())
	}
	if !s.Deck[0].Revealed {
		t.Error("card 0 should be face up")
	}
	if s.Moves != 0 {
		t.Errorf("a single reveal is not a move, got %d", s.Moves)
	}

	s.HandleTick()
	if s.Elapsed != 1 {
		t.Errorf("expected elapsed 1 after tick, got %d", s.Elapsed)
	}
}

func TestSession_RevealGuards(t *testing.T) {
	s := newTestSession(t, 2, nil)

	// Out of range is an error, not a silent no-op.
	if _, err := s.Reveal(len(s.Deck)); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if _, err := s.Reveal(-1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for negative index, got %v", err)
	}

	// Revealing the same card twice leaves one card pending.
	if _, err := s.Reveal(0); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if _, err := s.Reveal(0); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if len(s.Pending) != 1 {
		t.Errorf("expected 1 pending card, got %d", len(s.Pending))
	}
	if s.Moves != 0 {
		t.Errorf("double click must not count as a move, got %d", s.Moves)
	}
}

func TestSession_MatchFlow(t *testing.T) {
	s := newTestSession(t, 3, nil)
	i, j := findPair(t, s)

	if _, err := s.Reveal(i); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	res, err := s.Reveal(j)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}

	if res != nil {
		t.Error("a match resolves immediately, no deferred outcome expected")
	}
	if !s.Deck[i].Matched || !s.Deck[j].Matched {
		t.Error("both cards should be matched")
	}
	if !s.Deck[i].Revealed || !s.Deck[j].Revealed {
		t.Error("matched cards stay face up")
	}
	if s.MatchedPairs != 1 {
		t.Errorf("expected 1 matched pair, got %d", s.MatchedPairs)
	}
	if s.Moves != 1 {
		t.Errorf("expected 1 move, got %d", s.Moves)
	}
	if len(s.Pending) != 0 {
		t.Errorf("pending should be cleared after a match, got %d", len(s.Pending))
	}

	// A matched card can never be revealed again.
	if _, err := s.Reveal(i); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if len(s.Pending) != 0 {
		t.Error("revealing a matched card should be a no-op")
	}
}

func TestSession_NoMatchFlowAndThirdClickGuard(t *testing.T) {
	s := newTestSession(t, 3, nil)
	i, j := findMismatch(t, s)

	if _, err := s.Reveal(i); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	res, err := s.Reveal(j)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if res == nil {
		t.Fatal("a mismatch must return a deferred resolution")
	}
	if s.Moves != 1 {
		t.Errorf("expected 1 move, got %d", s.Moves)
	}

	// Third click while the pair is unresolved is ignored.
	third := -1
	for k, c := range s.Deck {
		if k != i && k != j && !c.Matched {
			third = k
			break
		}
	}
	if _, err := s.Reveal(third); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if s.Deck[third].Revealed {
		t.Error("third card flipped while a pair was mid-resolution")
	}
	if len(s.Pending) != 2 {
		t.Errorf("pending should still be 2, got %d", len(s.Pending))
	}

	// The deferred outcome flips both back.
	s.HandleResolve(res.Gen)
	if s.Deck[i].Revealed || s.Deck[j].Revealed {
		t.Error("mismatched cards should flip back down")
	}
	if len(s.Pending) != 0 {
		t.Errorf("pending should be empty after resolution, got %d", len(s.Pending))
	}

	// A duplicate firing of the same resolution is harmless.
	s.HandleResolve(res.Gen)

	// Reveals are accepted again.
	if _, err := s.Reveal(third); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if !s.Deck[third].Revealed {
		t.Error("reveal should be accepted after resolution")
	}
}

func TestSession_CompletionFiresOnce(t *testing.T) {
	store := &recordStorage{}
	s := newTestSession(t, 2, store)

	completions := 0
	var got Result
	s.OnCompleted = func(r Result) {
		completions++
		got = r
	}

	// Burn a couple of seconds and a mismatch along the way.
	mi, mj := findMismatch(t, s)
	if _, err := s.Reveal(mi); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	res, err := s.Reveal(mj)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected mismatch resolution")
	}
	s.HandleTick()
	s.HandleTick()
	s.HandleResolve(res.Gen)

	for s.MatchedPairs < s.TotalPairs() {
		i, j := findPair(t, s)
		if _, err := s.Reveal(i); err != nil {
			t.Fatalf("Reveal failed: %v", err)
		}
		if _, err := s.Reveal(j); err != nil {
			t.Fatalf("Reveal failed: %v", err)
		}
	}

	if s.Phase() != PhaseCompleted {
		t.Fatalf("expected completed, got %s", s.Phase())
	}
	if completions != 1 {
		t.Fatalf("OnCompleted fired %d times, want 1", completions)
	}
	if got.Moves != 3 {
		t.Errorf("expected 3 moves (1 mismatch + 2 matches), got %d", got.Moves)
	}
	if got.Elapsed != 2 {
		t.Errorf("expected 2 elapsed seconds, got %d", got.Elapsed)
	}
	if want := scoring.Compute(got.Moves, got.Elapsed, 2); got.Score != want {
		t.Errorf("score %d, want %d", got.Score, want)
	}

	if !store.recordCalled {
		t.Error("completion should record the result")
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected 1 recorded entry, got %d", len(store.entries))
	}
	if e := store.entries[0]; e.Category != "Greetings" || e.Score != got.Score {
		t.Errorf("recorded entry mismatch: %+v", e)
	}

	// The clock must not move after completion.
	s.HandleTick()
	s.HandleTick()
	if s.Elapsed != got.Elapsed {
		t.Errorf("clock advanced after completion: %d", s.Elapsed)
	}

	// Nor may further reveals change anything.
	if _, err := s.Reveal(0); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if completions != 1 {
		t.Error("OnCompleted fired again after completion")
	}
}

func TestSession_ResetAndStaleResolve(t *testing.T) {
	s := newTestSession(t, 2, nil)

	i, j := findMismatch(t, s)
	if _, err := s.Reveal(i); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	res, err := s.Reveal(j)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a deferred resolution")
	}
	s.HandleTick()

	oldID := s.ID
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if s.Phase() != PhaseNotStarted {
		t.Errorf("expected notStarted after reset, got %s", s.Phase())
	}
	if s.Moves != 0 || s.MatchedPairs != 0 || s.Elapsed != 0 {
		t.Errorf("counters not zeroed: moves=%d pairs=%d elapsed=%d", s.Moves, s.MatchedPairs, s.Elapsed)
	}
	if len(s.Pending) != 0 {
		t.Errorf("pending not cleared, got %d", len(s.Pending))
	}
	if s.ID == oldID {
		t.Error("reset should mint a new session ID")
	}
	if len(s.Deck) != 4 {
		t.Errorf("expected a fresh 4-card deck, got %d", len(s.Deck))
	}
	for _, c := range s.Deck {
		if c.Revealed || c.Matched {
			t.Error("fresh deck should be fully face down")
		}
	}

	// The pre-reset resolution must be dropped.
	s.HandleResolve(res.Gen)
	for _, c := range s.Deck {
		if c.Revealed || c.Matched {
			t.Error("stale resolution mutated a reset session")
		}
	}
	if s.Moves != 0 {
		t.Error("stale resolution changed counters")
	}
}

func TestSession_DeckChangedSnapshots(t *testing.T) {
	s := newTestSession(t, 2, nil)

	var snapshots [][]Card
	s.OnDeckChanged = func(deck []Card) {
		snapshots = append(snapshots, deck)
	}

	if _, err := s.Reveal(0); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}

	// Mutating the snapshot must not touch the session's deck.
	snapshots[0][0].Matched = true
	if s.Deck[0].Matched {
		t.Error("snapshot aliases the live deck")
	}
}

func TestSession_EndToEnd(t *testing.T) {
	// Two items, four cards: one mismatch, then both pairs.
	s := newTestSession(t, 2, nil)

	a1, a2 := findPair(t, s)
	var b1, b2 int
	for k, c := range s.Deck {
		if c.ItemID != s.Deck[a1].ItemID {
			b1 = k
			break
		}
	}
	for k, c := range s.Deck {
		if k != b1 && c.ItemID == s.Deck[b1].ItemID {
			b2 = k
			break
		}
	}

	// Mismatch: a1 + b1.
	if _, err := s.Reveal(a1); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	res, err := s.Reveal(b1)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected mismatch resolution")
	}
	s.HandleResolve(res.Gen)
	if s.Moves != 1 {
		t.Fatalf("moves = %d after mismatch, want 1", s.Moves)
	}
	if s.Deck[a1].Revealed || s.Deck[b1].Revealed {
		t.Fatal("mismatched cards should be face down again")
	}

	// Match A.
	if _, err := s.Reveal(a1); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if _, err := s.Reveal(a2); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if s.MatchedPairs != 1 || s.Moves != 2 {
		t.Fatalf("after matching A: pairs=%d moves=%d", s.MatchedPairs, s.Moves)
	}

	// Match B completes the board.
	if _, err := s.Reveal(b1); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if _, err := s.Reveal(b2); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if s.MatchedPairs != 2 {
		t.Fatalf("expected both pairs matched, got %d", s.MatchedPairs)
	}
	if s.Phase() != PhaseCompleted {
		t.Fatalf("expected completed, got %s", s.Phase())
	}
	if s.Result == nil {
		t.Fatal("completed session should carry a result")
	}
	if want := scoring.Compute(s.Moves, s.Elapsed, 2); s.Result.Score != want {
		t.Errorf("score %d, want %d", s.Result.Score, want)
	}
}
