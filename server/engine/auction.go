package engine

import (
	"errors"
	"fmt"
	"strings"
)

type CallKind int

const (
	CallPass CallKind = iota
	CallDouble
	CallRedouble
	CallBid
)

// Call is one entry of an auction: pass, double, redouble or a contract bid.
type Call struct {
	Kind  CallKind
	Level int          // 1..7 for CallBid
	Denom Denomination // for CallBid
}

var (
	Pass     = Call{Kind: CallPass}
	Double   = Call{Kind: CallDouble}
	Redouble = Call{Kind: CallRedouble}
)

func Bid(level int, d Denomination) Call { return Call{Kind: CallBid, Level: level, Denom: d} }

func (c Call) IsBid() bool { return c.Kind == CallBid }

// Higher reports whether bid c outranks bid o.
func (c Call) Higher(o Call) bool {
	if c.Level != o.Level {
		return c.Level > o.Level
	}
	return c.Denom > o.Denom
}

// String uses notation form: "p", "d", "r", "1D", "3N".
func (c Call) String() string {
	switch c.Kind {
	case CallPass:
		return "p"
	case CallDouble:
		return "d"
	case CallRedouble:
		return "r"
	}
	d := c.Denom.String()
	if c.Denom == NoTrump {
		d = "N"
	}
	return fmt.Sprintf("%d%s", c.Level, d)
}

// ParseCall reads a bid payload. A trailing '!' marks an alert and is
// reported separately.
func ParseCall(s string) (call Call, alerted bool, err error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "!") {
		alerted = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "!"))
	}
	switch strings.ToLower(s) {
	case "p", "pass":
		return Pass, alerted, nil
	case "d", "x", "dbl":
		return Double, alerted, nil
	case "r", "xx", "rdbl":
		return Redouble, alerted, nil
	}
	if len(s) < 2 || s[0] < '1' || s[0] > '7' {
		return Call{}, alerted, fmt.Errorf("invalid bid: %q", s)
	}
	d, err := ParseDenomination(s[1:])
	if err != nil {
		return Call{}, alerted, fmt.Errorf("invalid bid: %q", s)
	}
	return Bid(int(s[0]-'0'), d), alerted, nil
}

func (c Call) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Call) UnmarshalText(b []byte) error {
	v, _, err := ParseCall(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// AuctionCall is a call together with who made it.
type AuctionCall struct {
	Position    Position `json:"position"`
	Call        Call     `json:"call"`
	Alerted     bool     `json:"alerted,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// Contract is the auction's outcome; the zero value means passed out.
type Contract struct {
	Level int
	Denom Denomination
}

func (c Contract) PassedOut() bool { return c.Level == 0 }

func (c Contract) String() string {
	if c.PassedOut() {
		return "PO"
	}
	return fmt.Sprintf("%d%s", c.Level, c.Denom)
}

func (c Contract) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Contract) UnmarshalText(b []byte) error {
	s := string(b)
	if s == "PO" || s == "" {
		*c = Contract{}
		return nil
	}
	call, _, err := ParseCall(s)
	if err != nil || !call.IsBid() {
		return fmt.Errorf("invalid contract: %q", s)
	}
	*c = Contract{Level: call.Level, Denom: call.Denom}
	return nil
}

// DeclarerRule selects how the declarer is derived from a finished auction.
type DeclarerRule int

const (
	// DeclarerWinningBidder: the seat that made the final contract bid.
	DeclarerWinningBidder DeclarerRule = iota
	// DeclarerFirstNamed: the member of the contracting side who first
	// named the contract's strain (the laws of bridge).
	DeclarerFirstNamed
)

var (
	ErrAuctionOpen   = errors.New("auction not closed")
	ErrIllegalCall   = errors.New("illegal call")
	ErrAuctionClosed = errors.New("call after auction closed")
)

// Auction tracks calls in rotation from the dealer.
type Auction struct {
	dealer  Position
	calls   []AuctionCall
	last    int // index of last contract bid, -1 if none
	doubled DoubleLevel
	passes  int
}

func NewAuction(dealer Position) *Auction {
	return &Auction{dealer: dealer, last: -1}
}

// Turn is the position due to call next.
func (a *Auction) Turn() Position { return a.dealer.Advance(len(a.calls)) }

// Closed reports three passes after a bid or four opening passes.
func (a *Auction) Closed() bool {
	if a.last < 0 {
		return a.passes >= 4
	}
	return a.passes >= 3
}

func (a *Auction) PassedOut() bool { return a.last < 0 && a.passes >= 4 }

func (a *Auction) Calls() []AuctionCall { return append([]AuctionCall(nil), a.calls...) }

// Add records the next call. Insufficient bids and misplaced doubles are
// rejected with ErrIllegalCall.
func (a *Auction) Add(c Call, alerted bool) error {
	if a.Closed() {
		return ErrAuctionClosed
	}
	pos := a.Turn()
	switch c.Kind {
	case CallPass:
		a.passes++
	case CallDouble:
		if a.last < 0 || a.doubled != Undoubled || a.calls[a.last].Position.SameSide(pos) {
			return fmt.Errorf("%w: double by %s", ErrIllegalCall, pos)
		}
		a.doubled = Doubled
		a.passes = 0
	case CallRedouble:
		if a.last < 0 || a.doubled != Doubled || !a.calls[a.last].Position.SameSide(pos) {
			return fmt.Errorf("%w: redouble by %s", ErrIllegalCall, pos)
		}
		a.doubled = Redoubled
		a.passes = 0
	case CallBid:
		if c.Level < 1 || c.Level > 7 || !c.Denom.Valid() {
			return fmt.Errorf("%w: %s", ErrIllegalCall, c)
		}
		if a.last >= 0 && !c.Higher(a.calls[a.last].Call) {
			return fmt.Errorf("%w: %s does not overcall %s", ErrIllegalCall, c, a.calls[a.last].Call)
		}
		a.last = len(a.calls)
		a.doubled = Undoubled
		a.passes = 0
	default:
		return fmt.Errorf("%w: unknown call kind %d", ErrIllegalCall, c.Kind)
	}
	a.calls = append(a.calls, AuctionCall{Position: pos, Call: c, Alerted: alerted})
	return nil
}

// Explain attaches an explanation to the most recent call.
func (a *Auction) Explain(text string) bool {
	if len(a.calls) == 0 {
		return false
	}
	last := &a.calls[len(a.calls)-1]
	if last.Explanation != "" {
		last.Explanation += " " + text
	} else {
		last.Explanation = text
	}
	return true
}

// Result derives contract, declarer and double level from a closed auction.
func (a *Auction) Result(rule DeclarerRule) (Contract, Position, DoubleLevel, error) {
	if !a.Closed() {
		return Contract{}, NoPosition, Undoubled, ErrAuctionOpen
	}
	if a.last < 0 {
		return Contract{}, NoPosition, Undoubled, nil
	}
	win := a.calls[a.last]
	contract := Contract{Level: win.Call.Level, Denom: win.Call.Denom}
	declarer := win.Position
	if rule == DeclarerFirstNamed {
		for _, ac := range a.calls[:a.last+1] {
			if ac.Call.IsBid() && ac.Call.Denom == win.Call.Denom && ac.Position.SameSide(win.Position) {
				declarer = ac.Position
				break
			}
		}
	}
	return contract, declarer, a.doubled, nil
}

// ReplayAuction rebuilds an Auction from recorded calls, checking that the
// seats follow rotation from the dealer.
func ReplayAuction(dealer Position, calls []AuctionCall) (*Auction, error) {
	a := NewAuction(dealer)
	for i, ac := range calls {
		if ac.Position != a.Turn() {
			return nil, fmt.Errorf("%w: call %d by %s, expected %s", ErrIllegalCall, i, ac.Position, a.Turn())
		}
		if err := a.Add(ac.Call, ac.Alerted); err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		a.calls[len(a.calls)-1].Explanation = ac.Explanation
	}
	return a, nil
}
