package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const HandSize = 13

var (
	ErrHandSize      = errors.New("hand must hold 13 cards")
	ErrDuplicateCard = errors.New("duplicate card")
	ErrDeckPartition = errors.New("hands do not partition the deck")
)

// Hand is the thirteen cards originally dealt to one position.
type Hand struct {
	pos   Position
	cards []Card // sorted descending: spades first, high cards first
}

func NewHand(pos Position, cards []Card) (Hand, error) {
	if !pos.Valid() {
		return Hand{}, fmt.Errorf("invalid position %d", pos)
	}
	if len(cards) != HandSize {
		return Hand{}, fmt.Errorf("%w: %s has %d", ErrHandSize, pos, len(cards))
	}
	var seen [52]bool
	out := make([]Card, len(cards))
	for i, c := range cards {
		if !c.Valid() {
			return Hand{}, fmt.Errorf("invalid card %+v", c)
		}
		if seen[c.index()] {
			return Hand{}, fmt.Errorf("%w: %s twice in %s", ErrDuplicateCard, c, pos)
		}
		seen[c.index()] = true
		out[i] = c
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Less(out[i]) })
	return Hand{pos: pos, cards: out}, nil
}

func (h Hand) Position() Position { return h.pos }

// Cards returns a copy, highest suit and rank first.
func (h Hand) Cards() []Card { return append([]Card(nil), h.cards...) }

func (h Hand) Len() int { return len(h.cards) }

func (h Hand) Has(c Card) bool {
	for _, x := range h.cards {
		if x == c {
			return true
		}
	}
	return false
}

// Suit returns the holding in one suit, high to low.
func (h Hand) Suit(s Suit) []Card {
	var out []Card
	for _, c := range h.cards {
		if c.Suit == s {
			out = append(out, c)
		}
	}
	return out
}

func (h Hand) SuitLength(s Suit) int {
	n := 0
	for _, c := range h.cards {
		if c.Suit == s {
			n++
		}
	}
	return n
}

func (h Hand) HCP() int {
	total := 0
	for _, c := range h.cards {
		total += c.HCP()
	}
	return total
}

// Shape lists suit lengths as spades, hearts, diamonds, clubs.
func (h Hand) Shape() [4]int {
	var out [4]int
	for i, s := range Suits {
		out[i] = h.SuitLength(s)
	}
	return out
}

// String renders suit-run notation, e.g. "SAK3HQJ2D987CT654".
func (h Hand) String() string {
	var b strings.Builder
	for _, s := range Suits {
		b.WriteByte(s.Letter())
		for _, c := range h.Suit(s) {
			b.WriteByte(c.Rank.Char())
		}
	}
	return b.String()
}

// ParseSuitRuns reads suit-run notation. Ranks are attributed to the most
// recent suit letter; ranks before any suit letter are an error. "10" is
// accepted as well as "T".
func ParseSuitRuns(s string) ([]Card, error) {
	var (
		cards []Card
		suit  Suit
		have  bool
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case 'S', 'H', 'D', 'C', 's', 'h', 'd', 'c':
			suit, _ = ParseSuit(ch)
			have = true
			continue
		case ' ', '\t', '.', '-':
			continue
		}
		if !have {
			return nil, fmt.Errorf("rank %q before suit marker", ch)
		}
		tok := string(ch)
		if ch == '1' && i+1 < len(s) && s[i+1] == '0' {
			tok = "10"
			i++
		}
		r, err := ParseRank(tok)
		if err != nil {
			return nil, err
		}
		cards = append(cards, Card{Rank: r, Suit: suit})
	}
	return cards, nil
}

// Remainder returns the cards of the deck not present in any of the given sets,
// or ErrDuplicateCard when the sets overlap.
func Remainder(sets ...[]Card) ([]Card, error) {
	var seen [52]bool
	for _, set := range sets {
		for _, c := range set {
			if seen[c.index()] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, c)
			}
			seen[c.index()] = true
		}
	}
	var out []Card
	for _, c := range NewDeck() {
		if !seen[c.index()] {
			out = append(out, c)
		}
	}
	return out, nil
}

// ValidatePartition checks that four hands cover the deck exactly once.
func ValidatePartition(hands [4]Hand) error {
	var seen [52]Position
	for i := range seen {
		seen[i] = NoPosition
	}
	for _, p := range Positions {
		h := hands[p]
		if h.pos != p {
			return fmt.Errorf("%w: hand for %s is seated %s", ErrDeckPartition, p, h.pos)
		}
		if len(h.cards) != HandSize {
			return fmt.Errorf("%w: %s has %d", ErrHandSize, p, len(h.cards))
		}
		for _, c := range h.cards {
			if prev := seen[c.index()]; prev != NoPosition {
				return fmt.Errorf("%w: %s dealt to %s and %s", ErrDuplicateCard, c, prev, p)
			}
			seen[c.index()] = p
		}
	}
	return nil
}
