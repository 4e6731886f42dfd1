package game

import (
	"errors"
	"fmt"
	"math/rand"

	"signmem/internal/content"
)

var (
	// ErrNoItems is returned when a deck is requested for an empty item list.
	ErrNoItems = errors.New("no vocabulary items")
	// ErrInvalidIndex is returned when a card index is outside the deck.
	ErrInvalidIndex = errors.New("card index out of range")
)

// Card is one face-down/face-up token in the deck. Two cards share an ItemID;
// ID is unique per card.
type Card struct {
	ID       string
	ItemID   string
	Word     string
	MediaRef string
	Revealed bool
	Matched  bool
}

// Outcome classifies two revealed cards.
type Outcome int

const (
	NoMatch Outcome = iota
	Match
)

// Resolve decides whether two revealed cards form a pair.
func Resolve(a, b Card) Outcome {
	if a.ItemID == b.ItemID {
		return Match
	}
	return NoMatch
}

// BuildDeck creates two cards per item and shuffles them uniformly.
// When pairLimit is positive and smaller than the item count, only the first
// pairLimit items are used, which keeps the board playable for large topics.
func BuildDeck(items []content.Item, pairLimit int) ([]Card, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	selected := items
	if pairLimit > 0 && pairLimit < len(selected) {
		selected = selected[:pairLimit]
	}

	cards := make([]Card, 0, 2*len(selected))
	for _, item := range selected {
		for copyNum := 1; copyNum <= 2; copyNum++ {
			cards = append(cards, Card{
				ID:       fmt.Sprintf("%s-%d", item.ID, copyNum),
				ItemID:   item.ID,
				Word:     item.Word,
				MediaRef: item.MediaRef,
			})
		}
	}

	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return cards, nil
}
