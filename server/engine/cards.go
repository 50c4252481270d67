package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Suit in bridge rank order: Clubs < Diamonds < Hearts < Spades.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists the suits in the order hands are written in deal notation.
var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

func (s Suit) Letter() byte { return "CDHS"[s] }

func (s Suit) String() string {
	switch s {
	case Clubs:
		return "Clubs"
	case Diamonds:
		return "Diamonds"
	case Hearts:
		return "Hearts"
	case Spades:
		return "Spades"
	}
	return "?"
}

func (s Suit) Valid() bool { return s >= Clubs && s <= Spades }

// ParseSuit accepts a suit letter in either case.
func ParseSuit(b byte) (Suit, error) {
	switch b {
	case 'c', 'C':
		return Clubs, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'h', 'H':
		return Hearts, nil
	case 's', 'S':
		return Spades, nil
	}
	return 0, fmt.Errorf("invalid suit: %q", b)
}

// Rank 2..14, Ace high.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankChars = "  23456789TJQKA"

func (r Rank) Valid() bool { return r >= Two && r <= Ace }

func (r Rank) Char() byte {
	if !r.Valid() {
		return '?'
	}
	return rankChars[r]
}

// ParseRank accepts 2-9, T/10, J, Q, K, A.
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "10", "T":
		return Ten, nil
	}
	if len(s) == 1 {
		if i := strings.IndexByte(rankChars, upper(s[0])); i >= int(Two) {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("invalid rank: %q", s)
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

type Card struct {
	Rank Rank
	Suit Suit
} // e.g. "SA" => rank 14, suit Spades

func (c Card) String() string {
	return fmt.Sprintf("%c%c", c.Suit.Letter(), c.Rank.Char())
}

func (c Card) Valid() bool { return c.Rank.Valid() && c.Suit.Valid() }

// Less orders by suit, then rank.
func (c Card) Less(o Card) bool {
	if c.Suit != o.Suit {
		return c.Suit < o.Suit
	}
	return c.Rank < o.Rank
}

// HCP is the 4/3/2/1 high-card point value.
func (c Card) HCP() int {
	if c.Rank > Ten {
		return int(c.Rank - Ten)
	}
	return 0
}

// index is a dense 0..51 key used for deck bookkeeping.
func (c Card) index() int { return int(c.Suit)*13 + int(c.Rank-Two) }

// ParseCard reads play-card notation: suit letter then rank ("SA", "H10", "dT").
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}
	suit, err := ParseSuit(s[0])
	if err != nil {
		return Card{}, err
	}
	rank, err := ParseRank(s[1:])
	if err != nil {
		return Card{}, err
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// MarshalText keeps the notation form in JSON.
func (c Card) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Card) UnmarshalText(b []byte) error {
	v, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// NewDeck returns the 52 cards in ascending Less order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for rnk := Two; rnk <= Ace; rnk++ {
			deck = append(deck, Card{Rank: rnk, Suit: s})
		}
	}
	return deck
}

// Shuffle returns a shuffled deck; seed 0 uses the clock.
func Shuffle(seed int64) []Card {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	deck := NewDeck()
	for i := len(deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}
