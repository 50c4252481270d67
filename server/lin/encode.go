package lin

import (
	"strconv"
	"strings"

	"bridge-lin/server/engine"
)

// Encode writes a deal back out as a canonical transcript. Decoding the
// result with the same options reproduces the deal, provided player ids and
// annotations hold no separators.
func Encode(d *engine.Deal, opts Options) string {
	if opts.Seating == (Seating{}) {
		opts.Seating = SeatingLIN
	}
	var b strings.Builder
	field := func(tag, payload string) {
		b.WriteString(tag)
		b.WriteByte(sep)
		b.WriteString(payload)
		b.WriteByte(sep)
	}

	var ids [4]string
	for i, seat := range opts.seats(d.Dealer()) {
		ids[i] = d.Player(seat)
	}
	field("pn", strings.Join(ids[:], ","))
	field("st", "")

	var md strings.Builder
	for i, seat := range mdSeats {
		if seat == d.Dealer() {
			md.WriteString(strconv.Itoa(i + 1))
		}
	}
	for i, seat := range mdSeats {
		if i > 0 {
			md.WriteByte(',')
		}
		md.WriteString(d.Hand(seat).String())
	}
	field("md", md.String())
	field("rh", "")
	field("ah", "Board "+strconv.Itoa(d.Board()))
	field("sv", string(d.Vulnerability().Code()))

	for _, ac := range d.Auction() {
		call := ac.Call.String()
		if ac.Alerted {
			call += "!"
		}
		field("mb", call)
		if ac.Explanation != "" {
			field("an", ac.Explanation)
		}
	}
	field("pg", "")

	for _, t := range d.Tricks() {
		for _, pl := range t.Plays {
			field("pc", pl.Card.String())
		}
		field("pg", "")
	}
	for _, pl := range d.Unfinished() {
		field("pc", pl.Card.String())
	}
	if d.Claimed() {
		field("mc", strconv.Itoa(d.Made()))
	}
	for _, n := range d.Notes() {
		field("nt", n)
	}
	return b.String()
}
