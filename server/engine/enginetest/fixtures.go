// Package enginetest builds synthetic deals for tests: seeded hands, a
// simple card-play robot and fully played DealParams.
package enginetest

import (
	"fmt"

	"bridge-lin/server/engine"
)

// Hands deals a seeded shuffled deck round-robin starting with North.
func Hands(seed int64) [4]engine.Hand {
	deck := engine.Shuffle(seed)
	var piles [4][]engine.Card
	for i, c := range deck {
		piles[i%4] = append(piles[i%4], c)
	}
	var out [4]engine.Hand
	for _, p := range engine.Positions {
		h, err := engine.NewHand(p, piles[p])
		if err != nil {
			panic(err)
		}
		out[p] = h
	}
	return out
}

// MustHand parses suit-run notation into a hand or panics.
func MustHand(p engine.Position, runs string) engine.Hand {
	cards, err := engine.ParseSuitRuns(runs)
	if err != nil {
		panic(err)
	}
	h, err := engine.NewHand(p, cards)
	if err != nil {
		panic(err)
	}
	return h
}

// Calls parses notation calls ("1D", "p", "d") into an auction from dealer.
func Calls(dealer engine.Position, calls ...string) []engine.AuctionCall {
	out := make([]engine.AuctionCall, 0, len(calls))
	for i, s := range calls {
		c, alerted, err := engine.ParseCall(s)
		if err != nil {
			panic(err)
		}
		out = append(out, engine.AuctionCall{Position: dealer.Advance(i), Call: c, Alerted: alerted})
	}
	return out
}

// PlayOut plays up to n tricks with a robot that follows suit with its
// lowest card and otherwise discards its lowest card. It returns the
// completed tricks and, if stop > 0, that many cards of the next trick.
func PlayOut(hands [4]engine.Hand, declarer engine.Position, d engine.Denomination, n, stop int) ([]engine.Trick, []engine.Play) {
	var left [4][]engine.Card
	for _, p := range engine.Positions {
		cards := hands[p].Cards()
		// Cards() is high to low; the robot wants low cards first.
		for i, j := 0, len(cards)-1; i < j; i, j = i+1, j-1 {
			cards[i], cards[j] = cards[j], cards[i]
		}
		left[p] = cards
	}
	cp := engine.NewCardplay(hands, declarer, d)
	pick := func(p engine.Position, led *engine.Suit) engine.Card {
		idx := 0
		if led != nil {
			for i, c := range left[p] {
				if c.Suit == *led {
					idx = i
					break
				}
			}
		}
		c := left[p][idx]
		left[p] = append(left[p][:idx], left[p][idx+1:]...)
		return c
	}
	play := func(count int) {
		var led *engine.Suit
		for i := 0; i < count; i++ {
			c := pick(cp.Turn(), led)
			if _, err := cp.Play(c); err != nil {
				panic(fmt.Sprintf("robot play: %v", err))
			}
			if led == nil {
				s := c.Suit
				led = &s
			}
		}
	}
	for t := 0; t < n && t < 13; t++ {
		play(4)
		if _, err := cp.CloseTrick(); err != nil {
			panic(err)
		}
	}
	if stop > 0 {
		play(stop)
	}
	return cp.Tricks(), cp.Current()
}

// Played returns DealParams for a deal played out in full with the given
// auction. A passed-out auction yields no tricks.
func Played(seed int64, board int, dealer engine.Position, calls ...string) engine.DealParams {
	p := engine.DealParams{
		Board:         board,
		Dealer:        dealer,
		Players:       [4]string{"north", "east", "south", "west"},
		Hands:         Hands(seed),
		Vulnerability: engine.VulNone,
		Auction:       Calls(dealer, calls...),
	}
	a, err := engine.ReplayAuction(dealer, p.Auction)
	if err != nil {
		panic(err)
	}
	contract, declarer, _, err := a.Result(p.DeclarerRule)
	if err != nil {
		panic(err)
	}
	if !contract.PassedOut() {
		p.Tricks, _ = PlayOut(p.Hands, declarer, contract.Denom, 13, 0)
	}
	return p
}
