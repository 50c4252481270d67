package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNotInHand       = errors.New("card not in player's hand")
	ErrCardReused      = errors.New("card already played")
	ErrTrickFull       = errors.New("trick already has four cards")
	ErrTrickIncomplete = errors.New("trick has fewer than four cards")
	ErrPlayOver        = errors.New("all thirteen tricks played")
)

type Play struct {
	Position Position `json:"position"`
	Card     Card     `json:"card"`
}

// Trick is one completed round of four plays, in play order from the leader.
type Trick struct {
	Leader Position `json:"leader"`
	Plays  [4]Play  `json:"plays"`
	Winner Position `json:"winner"`
}

// Led is the suit of the first card.
func (t Trick) Led() Suit { return t.Plays[0].Card.Suit }

// CardOf returns the card a position contributed.
func (t Trick) CardOf(p Position) Card {
	for _, pl := range t.Plays {
		if pl.Position == p {
			return pl.Card
		}
	}
	return Card{}
}

// Beats reports whether a takes the trick over b given the led suit and
// trump, if any.
func (a Card) Beats(b Card, led Suit, trump Suit, hasTrump bool) bool {
	if hasTrump {
		if a.Suit == trump && b.Suit != trump {
			return true
		}
		if b.Suit == trump && a.Suit != trump {
			return false
		}
		if a.Suit == trump && b.Suit == trump {
			return a.Rank > b.Rank
		}
	}
	if a.Suit == led && b.Suit != led {
		return true
	}
	if b.Suit == led && a.Suit != led {
		return false
	}
	if a.Suit == led && b.Suit == led {
		return a.Rank > b.Rank
	}
	return false
}

// TrickWinner resolves four plays under the given denomination.
func TrickWinner(plays [4]Play, d Denomination) Position {
	trump, hasTrump := d.Trump()
	led := plays[0].Card.Suit
	best := 0
	for i := 1; i < len(plays); i++ {
		if plays[i].Card.Beats(plays[best].Card, led, trump, hasTrump) {
			best = i
		}
	}
	return plays[best].Position
}

// Cardplay follows the play of a deal: whose turn it is, which cards are
// spent, and who won each trick.
type Cardplay struct {
	hands   [4]Hand
	denom   Denomination
	leader  Position
	spent   [52]bool
	current []Play
	tricks  []Trick
	won     [4]int
}

// NewCardplay starts play with the opening lead from the declarer's LHO.
func NewCardplay(hands [4]Hand, declarer Position, d Denomination) *Cardplay {
	return &Cardplay{hands: hands, denom: d, leader: declarer.LHO()}
}

func (cp *Cardplay) Leader() Position { return cp.leader }

// Turn is the position due to play: leader advanced by plays so far.
func (cp *Cardplay) Turn() Position { return cp.leader.Advance(len(cp.current)) }

// Play attributes the card to the position on turn.
func (cp *Cardplay) Play(c Card) (Position, error) {
	if len(cp.tricks) == 13 {
		return NoPosition, ErrPlayOver
	}
	if len(cp.current) == 4 {
		return NoPosition, ErrTrickFull
	}
	pos := cp.Turn()
	if !cp.hands[pos].Has(c) {
		return pos, fmt.Errorf("%w: %s by %s", ErrNotInHand, c, pos)
	}
	if cp.spent[c.index()] {
		return pos, fmt.Errorf("%w: %s by %s", ErrCardReused, c, pos)
	}
	cp.spent[c.index()] = true
	cp.current = append(cp.current, Play{Position: pos, Card: c})
	return pos, nil
}

// CloseTrick resolves the current four plays and hands the lead to the winner.
func (cp *Cardplay) CloseTrick() (Trick, error) {
	if len(cp.current) != 4 {
		return Trick{}, fmt.Errorf("%w: %d played", ErrTrickIncomplete, len(cp.current))
	}
	t := Trick{Leader: cp.leader}
	copy(t.Plays[:], cp.current)
	t.Winner = TrickWinner(t.Plays, cp.denom)
	cp.tricks = append(cp.tricks, t)
	cp.won[t.Winner]++
	cp.leader = t.Winner
	cp.current = cp.current[:0]
	return t, nil
}

// Pending is the number of cards played to the unfinished trick.
func (cp *Cardplay) Pending() int { return len(cp.current) }

func (cp *Cardplay) Current() []Play { return append([]Play(nil), cp.current...) }

func (cp *Cardplay) Tricks() []Trick { return append([]Trick(nil), cp.tricks...) }

func (cp *Cardplay) Completed() int { return len(cp.tricks) }

// WonBy counts tricks taken by p's side.
func (cp *Cardplay) WonBy(p Position) int { return cp.won[p] + cp.won[p.Partner()] }
