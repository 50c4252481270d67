package lin

import (
	"fmt"
	"strings"

	"bridge-lin/server/engine"
)

// DealerRule selects where the dealer comes from.
type DealerRule int

const (
	// DealerFromBoard derives the dealer from the board number (1 → N, 2 → E, ...).
	DealerFromBoard DealerRule = iota
	// DealerFromDeal reads the leading digit of the md payload (1=S 2=W 3=N 4=E).
	DealerFromDeal
)

func (r DealerRule) String() string {
	if r == DealerFromDeal {
		return "deal"
	}
	return "board"
}

func ParseDealerRule(s string) (DealerRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "board":
		return DealerFromBoard, nil
	case "deal", "md":
		return DealerFromDeal, nil
	}
	return 0, fmt.Errorf("unknown dealer rule %q", s)
}

// Seating maps the i-th id of the player list to a table position.
type Seating [4]engine.Position

var (
	// SeatingLIN is the order hands and players are listed in: S, W, N, E.
	SeatingLIN = Seating{engine.South, engine.West, engine.North, engine.East}
	// SeatingNESW lists players in rotation order from North.
	SeatingNESW = Seating{engine.North, engine.East, engine.South, engine.West}
)

// ParseSeating reads a four-letter position string such as "SWNE".
func ParseSeating(s string) (Seating, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SeatingLIN, nil
	}
	if len(s) != 4 {
		return Seating{}, fmt.Errorf("seating %q: want four positions", s)
	}
	var out Seating
	for i := 0; i < 4; i++ {
		p, err := engine.ParsePosition(s[i : i+1])
		if err != nil {
			return Seating{}, fmt.Errorf("seating %q: %w", s, err)
		}
		out[i] = p
	}
	return out, out.Validate()
}

// Validate checks that every position is used exactly once.
func (s Seating) Validate() error {
	var seen [4]bool
	for _, p := range s {
		if !p.Valid() || seen[p] {
			return fmt.Errorf("seating %s is not a permutation of NESW", s)
		}
		seen[p] = true
	}
	return nil
}

func (s Seating) String() string {
	var b strings.Builder
	for _, p := range s {
		b.WriteString(p.String())
	}
	return b.String()
}

// Rotate turns the seating so that its first entry lands on dealer.
func (s Seating) Rotate(dealer engine.Position) Seating {
	k := int(dealer) - int(s[0])
	var out Seating
	for i, p := range s {
		out[i] = p.Advance(k)
	}
	return out
}

func ParseDeclarerRule(s string) (engine.DeclarerRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "winning-bidder", "last-bid":
		return engine.DeclarerWinningBidder, nil
	case "first-named", "laws":
		return engine.DeclarerFirstNamed, nil
	}
	return 0, fmt.Errorf("unknown declarer rule %q", s)
}

// Options tune the conventions that vary between corpora.
type Options struct {
	DealerRule DealerRule
	Seating    Seating
	// SeatingFromDealer rotates Seating so the first listed player is the dealer.
	SeatingFromDealer bool
	DeclarerRule      engine.DeclarerRule
}

func DefaultOptions() Options {
	return Options{
		DealerRule:   DealerFromBoard,
		Seating:      SeatingLIN,
		DeclarerRule: engine.DeclarerWinningBidder,
	}
}

func (o Options) Validate() error {
	return o.Seating.Validate()
}

// seats resolves the position of each listed player for a deal.
func (o Options) seats(dealer engine.Position) Seating {
	if o.SeatingFromDealer {
		return o.Seating.Rotate(dealer)
	}
	return o.Seating
}
