package game

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"signmem/internal/content"
	"signmem/internal/scoring"
)

// Lifecycle phases of a session. Transitions only move forward; a restart
// rebuilds the session instead of moving the phase backward.
const (
	PhaseNotStarted = "notStarted"
	PhaseActive     = "active"
	PhaseCompleted  = "completed"
)

const (
	eventBegin  = "begin"
	eventFinish = "finish"
)

// DefaultResolveDelay is how long a mismatched pair stays face-up.
const DefaultResolveDelay = time.Second

// Options configures a session.
type Options struct {
	// PairLimit caps how many items become pairs; 0 means use every item.
	PairLimit int
	// ResolveDelay overrides DefaultResolveDelay when positive.
	ResolveDelay time.Duration
}

// Result is the outcome of a completed session.
type Result struct {
	SessionID string
	Category  string
	Moves     int
	Elapsed   int
	Score     int
}

// Resolution is the deferred outcome of a mismatched pair. The owner of the
// session schedules HandleResolve(Gen) to run after Delay; the generation
// makes a firing against a reset session harmless.
type Resolution struct {
	Gen   uint64
	Delay time.Duration
}

// Session owns the deck and all mutable game state. It is driven by discrete
// events (Reveal, HandleTick, HandleResolve) from a single owner and is not
// safe for concurrent use.
type Session struct {
	ID           string
	Category     string
	Deck         []Card
	Pending      []int
	Moves        int
	MatchedPairs int
	Elapsed      int

	// OnDeckChanged fires after every deck mutation with a snapshot.
	OnDeckChanged func(deck []Card)
	// OnCompleted fires exactly once, when the last pair is matched.
	OnCompleted func(result Result)

	// Result is set when the session completes.
	Result *Result

	items   []content.Item
	opts    Options
	storage scoring.Storage
	fsm     *fsm.FSM
	gen     uint64
}

// NewSession builds a shuffled deck from the category's items and returns a
// session in the notStarted phase. storage may be nil when results should not
// be persisted.
func NewSession(category string, items []content.Item, opts Options, storage scoring.Storage) (*Session, error) {
	if opts.ResolveDelay <= 0 {
		opts.ResolveDelay = DefaultResolveDelay
	}

	deck, err := BuildDeck(items, opts.PairLimit)
	if err != nil {
		return nil, fmt.Errorf("build deck: %w", err)
	}

	s := &Session{
		ID:       uuid.NewString(),
		Category: category,
		Deck:     deck,
		items:    items,
		opts:     opts,
		storage:  storage,
	}
	s.fsm = s.newFSM()
	return s, nil
}

func (s *Session) newFSM() *fsm.FSM {
	return fsm.NewFSM(
		PhaseNotStarted,
		fsm.Events{
			{Name: eventBegin, Src: []string{PhaseNotStarted}, Dst: PhaseActive},
			{Name: eventFinish, Src: []string{PhaseActive}, Dst: PhaseCompleted},
		},
		fsm.Callbacks{
			"enter_" + PhaseCompleted: func(ctx context.Context, e *fsm.Event) {
				result := Result{
					SessionID: s.ID,
					Category:  s.Category,
					Moves:     s.Moves,
					Elapsed:   s.Elapsed,
					Score:     scoring.Compute(s.Moves, s.Elapsed, s.TotalPairs()),
				}
				s.Result = &result
				if s.storage != nil {
					_ = s.storage.Record(scoring.Entry{
						ID:        result.SessionID,
						Category:  result.Category,
						Score:     result.Score,
						Moves:     result.Moves,
						TimeSpent: result.Elapsed,
						Timestamp: time.Now().Format(time.RFC3339),
					})
				}
				if s.OnCompleted != nil {
					s.OnCompleted(result)
				}
			},
		},
	)
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() string {
	return s.fsm.Current()
}

// IsCompleted reports whether every pair has been matched.
func (s *Session) IsCompleted() bool {
	return s.Phase() == PhaseCompleted
}

// TotalPairs is the number of distinct items on the board.
func (s *Session) TotalPairs() int {
	return len(s.Deck) / 2
}

// Reveal turns the card at index face-up. Clicks that arrive at the wrong
// moment (session finished, card already matched or face-up, two cards still
// unresolved) are ignored rather than treated as errors; only an out-of-range
// index is rejected. When the reveal completes a mismatched pair, the returned
// Resolution tells the caller when to invoke HandleResolve.
func (s *Session) Reveal(index int) (*Resolution, error) {
	if index < 0 || index >= len(s.Deck) {
		return nil, fmt.Errorf("reveal %d: %w", index, ErrInvalidIndex)
	}
	if s.IsCompleted() {
		return nil, nil
	}
	if s.Deck[index].Matched {
		return nil, nil
	}
	if slices.Contains(s.Pending, index) {
		return nil, nil
	}
	if len(s.Pending) >= 2 {
		// A pair is mid-resolution; a third flip must wait.
		return nil, nil
	}

	if s.Phase() == PhaseNotStarted {
		_ = s.fsm.Event(context.Background(), eventBegin)
	}

	s.Deck[index].Revealed = true
	s.Pending = append(s.Pending, index)

	if len(s.Pending) < 2 {
		s.deckChanged()
		return nil, nil
	}

	s.Moves++
	first, second := s.Pending[0], s.Pending[1]

	if Resolve(s.Deck[first], s.Deck[second]) == Match {
		s.Deck[first].Matched = true
		s.Deck[second].Matched = true
		s.MatchedPairs++
		s.Pending = nil
		s.deckChanged()
		if s.MatchedPairs == s.TotalPairs() {
			_ = s.fsm.Event(context.Background(), eventFinish)
		}
		return nil, nil
	}

	s.deckChanged()
	s.gen++
	return &Resolution{Gen: s.gen, Delay: s.opts.ResolveDelay}, nil
}

// HandleResolve applies the deferred outcome of a mismatched pair: both cards
// flip back down. A call whose generation no longer matches the session (it
// was reset in the meantime) is dropped silently.
func (s *Session) HandleResolve(gen uint64) {
	if gen != s.gen || len(s.Pending) != 2 {
		return
	}
	for _, idx := range s.Pending {
		s.Deck[idx].Revealed = false
	}
	s.Pending = nil
	s.deckChanged()
}

// HandleTick advances the elapsed-time counter by one second. Ticks outside
// the active phase do nothing, so the clock neither runs before the first
// reveal nor after completion.
func (s *Session) HandleTick() {
	if s.Phase() != PhaseActive {
		return
	}
	s.Elapsed++
}

// Reset discards the current deck and counters and starts over with a fresh
// shuffle. Outstanding deferred resolutions become stale.
func (s *Session) Reset() error {
	deck, err := BuildDeck(s.items, s.opts.PairLimit)
	if err != nil {
		return fmt.Errorf("build deck: %w", err)
	}

	s.gen++
	s.ID = uuid.NewString()
	s.Deck = deck
	s.Pending = nil
	s.Moves = 0
	s.MatchedPairs = 0
	s.Elapsed = 0
	s.Result = nil
	s.fsm = s.newFSM()
	s.deckChanged()
	return nil
}

func (s *Session) deckChanged() {
	if s.OnDeckChanged == nil {
		return
	}
	snapshot := make([]Card, len(s.Deck))
	copy(snapshot, s.Deck)
	s.OnDeckChanged(snapshot)
}
