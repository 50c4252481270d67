package engine

import (
	"fmt"
	"strings"
)

// Position is a seat at the table, in clockwise order.
type Position int

const (
	North Position = iota
	East
	South
	West

	NoPosition Position = -1
)

// Positions in rotation order.
var Positions = [4]Position{North, East, South, West}

func (p Position) Valid() bool { return p >= North && p <= West }

// Advance moves n seats clockwise.
func (p Position) Advance(n int) Position {
	return Position(((int(p)+n)%4 + 4) % 4)
}

func (p Position) Next() Position    { return p.Advance(1) }
func (p Position) Partner() Position { return p.Advance(2) }

// LHO is the left-hand opponent, who leads against a contract.
func (p Position) LHO() Position { return p.Advance(1) }

func (p Position) SameSide(o Position) bool {
	return p.Valid() && o.Valid() && int(p)%2 == int(o)%2
}

func (p Position) String() string {
	if !p.Valid() {
		return "-"
	}
	return string("NESW"[p])
}

func ParsePosition(s string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	case "-", "":
		return NoPosition, nil
	}
	return NoPosition, fmt.Errorf("invalid position: %q", s)
}

func (p Position) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Position) UnmarshalText(b []byte) error {
	v, err := ParsePosition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// DealerForBoard applies the duplicate board convention: 1->N, 2->E, 3->S, 4->W.
func DealerForBoard(board int) Position {
	if board <= 0 {
		return NoPosition
	}
	return Position((board - 1) % 4)
}

type Vulnerability int

const (
	VulNone Vulnerability = iota
	VulNS
	VulEW
	VulBoth
)

func (v Vulnerability) String() string {
	switch v {
	case VulNone:
		return "None"
	case VulNS:
		return "NS"
	case VulEW:
		return "EW"
	case VulBoth:
		return "Both"
	}
	return "?"
}

// Code is the single-character notation form.
func (v Vulnerability) Code() byte { return "oneb"[v] }

// ParseVulnerability reads the single-character code; anything else is rejected.
func ParseVulnerability(s string) (Vulnerability, error) {
	s = strings.TrimSpace(s)
	if len(s) != 1 {
		return VulNone, fmt.Errorf("invalid vulnerability code: %q", s)
	}
	switch s[0] {
	case 'o', 'O', '0', '-':
		return VulNone, nil
	case 'n', 'N':
		return VulNS, nil
	case 'e', 'E':
		return VulEW, nil
	case 'b', 'B':
		return VulBoth, nil
	}
	return VulNone, fmt.Errorf("invalid vulnerability code: %q", s)
}

func (v Vulnerability) IsVulnerable(p Position) bool {
	switch v {
	case VulBoth:
		return p.Valid()
	case VulNS:
		return p == North || p == South
	case VulEW:
		return p == East || p == West
	}
	return false
}

func (v Vulnerability) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Vulnerability) UnmarshalText(b []byte) error {
	switch string(b) {
	case "None":
		*v = VulNone
	case "NS":
		*v = VulNS
	case "EW":
		*v = VulEW
	case "Both":
		*v = VulBoth
	default:
		return fmt.Errorf("invalid vulnerability: %q", b)
	}
	return nil
}

// Denomination is a contract strain. The four suits share Suit's values.
type Denomination int

const (
	DenomClubs    = Denomination(Clubs)
	DenomDiamonds = Denomination(Diamonds)
	DenomHearts   = Denomination(Hearts)
	DenomSpades   = Denomination(Spades)
	NoTrump       = Denomination(4)
)

func (d Denomination) Valid() bool { return d >= DenomClubs && d <= NoTrump }

// Trump reports the trump suit, if any.
func (d Denomination) Trump() (Suit, bool) {
	if d == NoTrump || !d.Valid() {
		return 0, false
	}
	return Suit(d), true
}

func (d Denomination) String() string {
	if d == NoTrump {
		return "NT"
	}
	if !d.Valid() {
		return "?"
	}
	return string(Suit(d).Letter())
}

func ParseDenomination(s string) (Denomination, error) {
	switch strings.ToUpper(s) {
	case "N", "NT":
		return NoTrump, nil
	case "C":
		return DenomClubs, nil
	case "D":
		return DenomDiamonds, nil
	case "H":
		return DenomHearts, nil
	case "S":
		return DenomSpades, nil
	}
	return 0, fmt.Errorf("invalid denomination: %q", s)
}

type DoubleLevel int

const (
	Undoubled DoubleLevel = iota
	Doubled
	Redoubled
)

func (d DoubleLevel) String() string {
	switch d {
	case Doubled:
		return "X"
	case Redoubled:
		return "XX"
	}
	return ""
}
