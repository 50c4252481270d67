package lin

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"bridge-lin/server/engine"
)

type state int

const (
	awaitingHeader state = iota
	awaitingDeal
	awaitingAuction
	passedOut
	awaitingPlay
	playComplete
	claimed
	finalized
)

func (s state) String() string {
	switch s {
	case awaitingHeader:
		return "AwaitingHeader"
	case awaitingDeal:
		return "AwaitingDeal"
	case awaitingAuction:
		return "AwaitingAuction"
	case passedOut:
		return "PassedOut"
	case awaitingPlay:
		return "AwaitingPlay"
	case playComplete:
		return "PlayComplete"
	case claimed:
		return "Claimed"
	case finalized:
		return "Finalized"
	}
	return "?"
}

// accepts is the per-state tag table. Annotations, notes and unknown tags
// are accepted everywhere before Finalized.
func (s state) accepts(t Tag) bool {
	switch t {
	case TagAnnotation, TagNote, TagUnknown:
		return s != finalized
	}
	switch s {
	case awaitingHeader:
		switch t {
		case TagPlayers, TagStart, TagBoardID, TagHeader, TagBoardName, TagVulnerability, TagDeal:
			return true
		}
	case awaitingDeal:
		switch t {
		case TagStart, TagPlayers, TagBoardID, TagHeader, TagBoardName, TagVulnerability, TagDeal:
			return true
		}
	case awaitingAuction:
		switch t {
		case TagPlayers, TagHeader, TagBoardName, TagVulnerability, TagBoardID, TagBid, TagTrick:
			return true
		}
	case passedOut, claimed:
		return t == TagTrick
	case awaitingPlay:
		switch t {
		case TagPlay, TagTrick, TagClaim:
			return true
		}
	case playComplete:
		return t == TagTrick || t == TagClaim
	}
	return false
}

// mdSeats is the order hands are listed in the md payload; the dealer digit
// indexes it from 1.
var mdSeats = [4]engine.Position{engine.South, engine.West, engine.North, engine.East}

// Decoder turns transcripts into deals. A Decoder holds only options and is
// safe for concurrent use; each Decode call keeps its own state.
type Decoder struct {
	opts Options
}

func NewDecoder(opts Options) *Decoder {
	if opts.Seating == (Seating{}) {
		opts.Seating = SeatingLIN
	}
	return &Decoder{opts: opts}
}

func (d *Decoder) Options() Options { return d.opts }

// Decode parses one transcript with the given options.
func Decode(raw string, opts Options) (*engine.Deal, error) {
	return NewDecoder(opts).Decode(raw)
}

// Decode runs the state machine over raw. Any failure is a *DecodeError.
func (d *Decoder) Decode(raw string) (*engine.Deal, error) {
	deal, _, err := d.DecodeWithWarnings(raw)
	return deal, err
}

// Warning flags an inconsistency in a transcript that still decoded.
type Warning struct {
	Offset int
	Tag    string
	Msg    string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at offset %d: %s", w.Tag, w.Offset, w.Msg)
}

// DecodeWithWarnings is Decode that also reports the warnings raised on the
// way. Warnings are returned even when decoding fails.
func (d *Decoder) DecodeWithWarnings(raw string) (*engine.Deal, []Warning, error) {
	if err := d.opts.Validate(); err != nil {
		return nil, nil, &DecodeError{Kind: KindFormat, Offset: -1, Msg: "options", Err: err}
	}
	st := &decodeState{opts: d.opts, end: len(raw), board: -1, dealer: engine.NoPosition, mdDealer: engine.NoPosition}
	sc := NewScanner(raw)
	known := false
	for tok := range sc.All() {
		known = known || tok.Tag != TagUnknown
		if err := st.step(tok); err != nil {
			return nil, st.warnings, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, st.warnings, err
	}
	if !known {
		return nil, st.warnings, &DecodeError{Kind: KindFormat, Offset: 0, Msg: "no recognized tags"}
	}
	deal, err := st.finish()
	return deal, st.warnings, err
}

// decodeState is the partial deal built during one forward pass.
type decodeState struct {
	opts Options
	end  int

	state    state
	started  bool
	players  []string
	board    int
	boardQX  int
	mdDealer engine.Position
	mdToken  Token
	dealer   engine.Position
	hands    [4]engine.Hand
	vul      engine.Vulnerability
	haveVul  bool
	notes    []string

	auction  *engine.Auction
	contract engine.Contract
	declarer engine.Position
	play     *engine.Cardplay

	claimTricks int
	claimed     bool

	warnings []Warning
}

func (s *decodeState) fail(kind Kind, tok Token, err error, format string, args ...any) error {
	return &DecodeError{Kind: kind, Offset: tok.Offset, Tag: tok.Name, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (s *decodeState) step(tok Token) error {
	if !s.state.accepts(tok.Tag) {
		return s.fail(KindSequence, tok, nil, "%s not accepted in state %s", tok.Name, s.state)
	}
	switch tok.Tag {
	case TagUnknown, TagHeader:
		return nil
	case TagStart:
		// st opens the board once, before or after the player list.
		if s.started {
			return s.fail(KindSequence, tok, nil, "second start marker")
		}
		s.started = true
		s.state = awaitingDeal
		return nil
	case TagPlayers:
		return s.onPlayers(tok)
	case TagBoardID:
		if n, ok := firstNumber(tok.Payload); ok {
			s.boardQX = n
		}
		return nil
	case TagBoardName:
		if n, ok := firstNumber(tok.Payload); ok {
			s.board = n
		}
		return nil
	case TagVulnerability:
		v, err := engine.ParseVulnerability(tok.Payload)
		if err != nil {
			return s.fail(KindFormat, tok, err, "vulnerability")
		}
		s.vul, s.haveVul = v, true
		return nil
	case TagDeal:
		return s.onDeal(tok)
	case TagBid:
		return s.onBid(tok)
	case TagAnnotation:
		s.onAnnotation(tok)
		return nil
	case TagNote:
		if tok.Payload != "" {
			s.notes = append(s.notes, tok.Payload)
		}
		return nil
	case TagPlay:
		return s.onPlay(tok)
	case TagTrick:
		return s.onTrick(tok)
	case TagClaim:
		return s.onClaim(tok)
	}
	return s.fail(KindFormat, tok, nil, "unhandled tag %s", tok.Tag)
}

func (s *decodeState) onPlayers(tok Token) error {
	ids := strings.Split(tok.Payload, ",")
	if len(ids) < 4 {
		return s.fail(KindFormat, tok, nil, "player list has %d ids, want 4", len(ids))
	}
	s.players = make([]string, 4)
	for i := range s.players {
		s.players[i] = strings.TrimSpace(ids[i])
	}
	if s.state == awaitingHeader {
		s.state = awaitingDeal
	}
	return nil
}

func (s *decodeState) onDeal(tok Token) error {
	payload := tok.Payload
	if payload != "" && payload[0] >= '1' && payload[0] <= '4' {
		s.mdDealer = mdSeats[payload[0]-'1']
		s.mdToken = tok
		payload = payload[1:]
	}
	parts := strings.Split(payload, ",")
	for len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" && len(parts) > 3 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 3 || len(parts) > 4 {
		return s.fail(KindDataIntegrity, tok, nil, "deal lists %d hands", len(parts))
	}
	var cards [4][]engine.Card
	for i, part := range parts {
		cs, err := engine.ParseSuitRuns(part)
		if err != nil {
			return s.fail(KindFormat, tok, err, "hand %d", i+1)
		}
		cards[i] = cs
	}
	if len(parts) == 3 {
		rest, err := engine.Remainder(cards[0], cards[1], cards[2])
		if err != nil {
			return s.fail(KindDataIntegrity, tok, err, "deal")
		}
		cards[3] = rest
	}
	for i, seat := range mdSeats {
		h, err := engine.NewHand(seat, cards[i])
		if err != nil {
			return s.fail(KindDataIntegrity, tok, err, "hand for %s", seat)
		}
		s.hands[seat] = h
	}
	if err := engine.ValidatePartition(s.hands); err != nil {
		return s.fail(KindDataIntegrity, tok, err, "deal")
	}
	s.state = awaitingAuction
	return nil
}

// resolveDealer settles the dealer once the header is in, at the first bid.
func (s *decodeState) resolveDealer(tok Token) error {
	if s.dealer.Valid() {
		return nil
	}
	switch {
	case s.opts.DealerRule == DealerFromDeal && s.mdDealer.Valid():
		s.dealer = s.mdDealer
	case s.boardNumber() > 0:
		s.dealer = engine.DealerForBoard(s.boardNumber())
	case s.mdDealer.Valid():
		s.dealer = s.mdDealer
	default:
		return s.fail(KindFormat, tok, nil, "no board number or dealer digit to seat the dealer")
	}
	if n := s.boardNumber(); n > 0 && s.mdDealer.Valid() {
		if byBoard := engine.DealerForBoard(n); byBoard != s.mdDealer {
			msg := fmt.Sprintf("dealer digit says %s but board %d is dealt by %s; using %s",
				s.mdDealer, n, byBoard, s.dealer)
			s.warnings = append(s.warnings, Warning{Offset: s.mdToken.Offset, Tag: s.mdToken.Name, Msg: msg})
		}
	}
	return nil
}

func (s *decodeState) boardNumber() int {
	if s.board > 0 {
		return s.board
	}
	return s.boardQX
}

func (s *decodeState) onBid(tok Token) error {
	if err := s.resolveDealer(tok); err != nil {
		return err
	}
	if s.auction == nil {
		s.auction = engine.NewAuction(s.dealer)
	}
	call, alerted, err := engine.ParseCall(tok.Payload)
	if err != nil {
		return s.fail(KindFormat, tok, err, "bid")
	}
	if err := s.auction.Add(call, alerted); err != nil {
		return s.fail(classify(err), tok, err, "")
	}
	if !s.auction.Closed() {
		return nil
	}
	contract, declarer, _, err := s.auction.Result(s.opts.DeclarerRule)
	if err != nil {
		return s.fail(classify(err), tok, err, "")
	}
	if contract.PassedOut() {
		s.state = passedOut
		return nil
	}
	s.contract, s.declarer = contract, declarer
	s.play = engine.NewCardplay(s.hands, declarer, contract.Denom)
	s.state = awaitingPlay
	return nil
}

// onAnnotation explains the latest call until the first card; later
// annotations are kept as notes.
func (s *decodeState) onAnnotation(tok Token) {
	if tok.Payload == "" {
		return
	}
	if s.auction != nil && (s.play == nil || (s.play.Completed() == 0 && s.play.Pending() == 0)) {
		if s.auction.Explain(tok.Payload) {
			return
		}
	}
	s.notes = append(s.notes, tok.Payload)
}

func (s *decodeState) onPlay(tok Token) error {
	c, err := engine.ParseCard(tok.Payload)
	if err != nil {
		return s.fail(KindFormat, tok, err, "card")
	}
	if s.play.Pending() == 4 {
		return s.fail(KindSequence, tok, nil, "fifth card without trick boundary")
	}
	if _, err := s.play.Play(c); err != nil {
		return s.fail(classify(err), tok, err, "")
	}
	return nil
}

func (s *decodeState) onTrick(tok Token) error {
	if s.play == nil || s.state != awaitingPlay {
		return nil
	}
	switch n := s.play.Pending(); n {
	case 0:
		return nil
	case 4:
		if _, err := s.play.CloseTrick(); err != nil {
			return s.fail(classify(err), tok, err, "")
		}
		if s.play.Completed() == 13 {
			s.state = playComplete
		}
		return nil
	default:
		return s.fail(KindSequence, tok, nil, "trick boundary after %d cards", n)
	}
}

func (s *decodeState) onClaim(tok Token) error {
	payload := strings.TrimSpace(tok.Payload)
	if payload == "" {
		return s.fail(KindIncomplete, tok, nil, "claim without a trick count")
	}
	n, err := strconv.Atoi(payload)
	if err != nil {
		return s.fail(KindIncomplete, tok, err, "claim count %q", payload)
	}
	if s.play.Pending() == 4 {
		if _, err := s.play.CloseTrick(); err != nil {
			return s.fail(classify(err), tok, err, "")
		}
	}
	if s.play.Completed() == 13 {
		// A claim after the last trick only restates the result.
		if won := s.play.WonBy(s.declarer); n != won {
			return s.fail(KindPlayIntegrity, tok, engine.ErrClaimRange, "claim of %d after play took %d", n, won)
		}
		s.state = playComplete
		return nil
	}
	if err := engine.CheckClaim(s.play, s.declarer, n); err != nil {
		return s.fail(KindPlayIntegrity, tok, err, "")
	}
	s.claimTricks, s.claimed = n, true
	s.state = claimed
	return nil
}

func (s *decodeState) finish() (*engine.Deal, error) {
	eof := Token{Offset: s.end}
	switch s.state {
	case awaitingHeader, awaitingDeal:
		return nil, s.fail(KindIncomplete, eof, nil, "no deal listing")
	case awaitingAuction:
		return nil, s.fail(KindIncomplete, eof, nil, "auction not closed")
	case awaitingPlay:
		if s.play.Completed() == 12 && s.play.Pending() == 4 {
			if _, err := s.play.CloseTrick(); err != nil {
				return nil, s.fail(classify(err), eof, err, "")
			}
			s.state = playComplete
			break
		}
		return nil, s.fail(KindIncomplete, eof, nil, "play stops after %d tricks and %d cards without a claim",
			s.play.Completed(), s.play.Pending())
	}
	if !s.haveVul {
		return nil, s.fail(KindFormat, eof, nil, "no vulnerability")
	}

	p := engine.DealParams{
		Board:         s.boardNumber(),
		Dealer:        s.dealer,
		Hands:         s.hands,
		Vulnerability: s.vul,
		Auction:       s.auction.Calls(),
		DeclarerRule:  s.opts.DeclarerRule,
		Notes:         s.notes,
	}
	if s.players != nil {
		for i, seat := range s.opts.seats(s.dealer) {
			p.Players[seat] = s.players[i]
		}
	}
	if s.play != nil {
		p.Tricks = s.play.Tricks()
		p.Unfinished = s.play.Current()
		p.Claimed = s.claimed
		p.ClaimTricks = s.claimTricks
	}
	deal, err := engine.NewDeal(p)
	if err != nil {
		return nil, s.fail(classify(err), eof, err, "")
	}
	s.state = finalized
	return deal, nil
}

// firstNumber returns the first run of digits in s.
func firstNumber(s string) (int, bool) {
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i < 0 {
		return 0, false
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	n, err := strconv.Atoi(s[i:j])
	return n, err == nil
}
