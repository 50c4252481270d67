package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrPlayAfterPassOut = errors.New("play recorded on a passed-out deal")
	ErrTrickCount       = errors.New("play does not account for thirteen tricks")
	ErrTrickMismatch    = errors.New("recorded trick disagrees with replay")
	ErrClaimRange       = errors.New("claimed tricks out of range")
)

// DealParams is the raw material for a Deal. Derived fields (contract,
// declarer, doubled, made) are computed by NewDeal.
type DealParams struct {
	Board         int
	Dealer        Position
	Players       [4]string
	Hands         [4]Hand
	Vulnerability Vulnerability
	Auction       []AuctionCall
	Tricks        []Trick
	Unfinished    []Play // cards of the trick in progress at a claim
	Claimed       bool
	ClaimTricks   int // declaring side's total when Claimed
	DeclarerRule  DeclarerRule
	Notes         []string
}

// Deal is one fully decoded hand. It is built once by NewDeal and only
// exposes read accessors.
type Deal struct {
	board      int
	dealer     Position
	players    [4]string
	hands      [4]Hand
	vul        Vulnerability
	auction    []AuctionCall
	tricks     []Trick
	unfinished []Play
	notes      []string

	contract Contract
	declarer Position
	doubled  DoubleLevel
	made     int
	claimed  bool
}

// NewDeal validates the global invariants and computes the derived fields.
func NewDeal(p DealParams) (*Deal, error) {
	if !p.Dealer.Valid() {
		return nil, fmt.Errorf("invalid dealer %d", p.Dealer)
	}
	if err := ValidatePartition(p.Hands); err != nil {
		return nil, err
	}
	auction, err := ReplayAuction(p.Dealer, p.Auction)
	if err != nil {
		return nil, err
	}
	contract, declarer, doubled, err := auction.Result(p.DeclarerRule)
	if err != nil {
		return nil, err
	}
	d := &Deal{
		board:      p.Board,
		dealer:     p.Dealer,
		players:    p.Players,
		hands:      p.Hands,
		vul:        p.Vulnerability,
		auction:    auction.Calls(),
		tricks:     append([]Trick(nil), p.Tricks...),
		unfinished: append([]Play(nil), p.Unfinished...),
		notes:      append([]string(nil), p.Notes...),
		contract:   contract,
		declarer:   declarer,
		doubled:    doubled,
		claimed:    p.Claimed,
	}
	if contract.PassedOut() {
		if len(p.Tricks) > 0 || len(p.Unfinished) > 0 || p.Claimed {
			return nil, ErrPlayAfterPassOut
		}
		return d, nil
	}

	cp := NewCardplay(p.Hands, declarer, contract.Denom)
	for i, t := range p.Tricks {
		if t.Leader != cp.Leader() {
			return nil, fmt.Errorf("%w: trick %d led by %s, expected %s", ErrTrickMismatch, i+1, t.Leader, cp.Leader())
		}
		for _, pl := range t.Plays {
			pos, err := cp.Play(pl.Card)
			if err != nil {
				return nil, fmt.Errorf("trick %d: %w", i+1, err)
			}
			if pos != pl.Position {
				return nil, fmt.Errorf("%w: trick %d %s played by %s, expected %s", ErrTrickMismatch, i+1, pl.Card, pl.Position, pos)
			}
		}
		closed, err := cp.CloseTrick()
		if err != nil {
			return nil, fmt.Errorf("trick %d: %w", i+1, err)
		}
		if closed.Winner != t.Winner {
			return nil, fmt.Errorf("%w: trick %d won by %s, recorded %s", ErrTrickMismatch, i+1, closed.Winner, t.Winner)
		}
	}
	for _, pl := range p.Unfinished {
		pos, err := cp.Play(pl.Card)
		if err != nil {
			return nil, err
		}
		if pos != pl.Position {
			return nil, fmt.Errorf("%w: %s played by %s, expected %s", ErrTrickMismatch, pl.Card, pl.Position, pos)
		}
	}

	if p.Claimed {
		if cp.Completed() >= 13 {
			return nil, fmt.Errorf("%w: claim after the last trick", ErrClaimRange)
		}
		if err := CheckClaim(cp, declarer, p.ClaimTricks); err != nil {
			return nil, err
		}
		d.made = p.ClaimTricks
		return d, nil
	}
	if cp.Completed() != 13 || cp.Pending() != 0 {
		return nil, fmt.Errorf("%w: %d tricks and %d loose cards", ErrTrickCount, cp.Completed(), cp.Pending())
	}
	d.made = cp.WonBy(declarer)
	return d, nil
}

// CheckClaim verifies that a claimed total for the declaring side is
// reachable from the tricks already played.
func CheckClaim(cp *Cardplay, declarer Position, total int) error {
	lo := cp.WonBy(declarer)
	hi := lo + 13 - cp.Completed()
	if total < lo || total > hi {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrClaimRange, total, lo, hi)
	}
	return nil
}

func (d *Deal) Board() int                   { return d.board }
func (d *Deal) Dealer() Position             { return d.dealer }
func (d *Deal) Players() [4]string           { return d.players }
func (d *Deal) Player(p Position) string     { return d.players[p] }
func (d *Deal) Hands() [4]Hand               { return d.hands }
func (d *Deal) Hand(p Position) Hand         { return d.hands[p] }
func (d *Deal) Vulnerability() Vulnerability { return d.vul }
func (d *Deal) Auction() []AuctionCall       { return append([]AuctionCall(nil), d.auction...) }
func (d *Deal) Tricks() []Trick              { return append([]Trick(nil), d.tricks...) }
func (d *Deal) Unfinished() []Play           { return append([]Play(nil), d.unfinished...) }
func (d *Deal) Notes() []string              { return append([]string(nil), d.notes...) }
func (d *Deal) Contract() Contract           { return d.contract }
func (d *Deal) Declarer() Position           { return d.declarer }
func (d *Deal) Doubled() DoubleLevel         { return d.doubled }
func (d *Deal) Made() int                    { return d.made }
func (d *Deal) Claimed() bool                { return d.claimed }
func (d *Deal) PassedOut() bool              { return d.contract.PassedOut() }

// Dummy is declarer's partner, NoPosition when passed out.
func (d *Deal) Dummy() Position {
	if d.PassedOut() {
		return NoPosition
	}
	return d.declarer.Partner()
}

// DefenderTricks is the defending side's share of the thirteen tricks.
func (d *Deal) DefenderTricks() int {
	if d.PassedOut() {
		return 0
	}
	return 13 - d.made
}

// Result is tricks over (positive) or under (negative) the contract.
func (d *Deal) Result() int {
	if d.PassedOut() {
		return 0
	}
	return d.made - (d.contract.Level + 6)
}

// String is the usual one-line summary, e.g. "4HX by S, +1".
func (d *Deal) String() string {
	if d.PassedOut() {
		return fmt.Sprintf("Board %d: passed out", d.board)
	}
	res := "="
	if r := d.Result(); r > 0 {
		res = fmt.Sprintf("+%d", r)
	} else if r < 0 {
		res = fmt.Sprintf("%d", r)
	}
	return fmt.Sprintf("Board %d: %s%s by %s, %s", d.board, d.contract, d.doubled, d.declarer, res)
}

type dealJSON struct {
	Board         int               `json:"board"`
	Dealer        Position          `json:"dealer"`
	Vulnerability Vulnerability     `json:"vulnerability"`
	Players       map[string]string `json:"players"`
	Hands         map[string]string `json:"hands"`
	Auction       []AuctionCall     `json:"auction"`
	Contract      Contract          `json:"contract"`
	Declarer      Position          `json:"declarer"`
	Doubled       int               `json:"doubled"`
	Tricks        []Trick           `json:"tricks"`
	Unfinished    []Play            `json:"unfinished,omitempty"`
	Made          int               `json:"made"`
	Claimed       bool              `json:"claimed"`
	Notes         []string          `json:"notes,omitempty"`
}

// MarshalJSON gives downstream consumers a stable, notation-based shape.
func (d *Deal) MarshalJSON() ([]byte, error) {
	out := dealJSON{
		Board:         d.board,
		Dealer:        d.dealer,
		Vulnerability: d.vul,
		Players:       make(map[string]string, 4),
		Hands:         make(map[string]string, 4),
		Auction:       d.auction,
		Contract:      d.contract,
		Declarer:      d.declarer,
		Doubled:       int(d.doubled),
		Tricks:        d.tricks,
		Unfinished:    d.unfinished,
		Made:          d.made,
		Claimed:       d.claimed,
		Notes:         d.notes,
	}
	if out.Auction == nil {
		out.Auction = []AuctionCall{}
	}
	if out.Tricks == nil {
		out.Tricks = []Trick{}
	}
	for _, p := range Positions {
		out.Players[p.String()] = d.players[p]
		out.Hands[p.String()] = d.hands[p].String()
	}
	return json.Marshal(out)
}
