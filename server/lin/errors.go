package lin

import (
	"errors"
	"fmt"

	"bridge-lin/server/engine"
)

// Kind classifies why a transcript was rejected.
type Kind int

const (
	KindNone Kind = iota
	KindFormat
	KindDataIntegrity
	KindSequence
	KindPlayIntegrity
	KindIncomplete
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "FormatError"
	case KindDataIntegrity:
		return "DataIntegrityError"
	case KindSequence:
		return "SequenceError"
	case KindPlayIntegrity:
		return "PlayIntegrityError"
	case KindIncomplete:
		return "IncompleteDealError"
	}
	return "none"
}

// Kind doubles as a sentinel error so callers can write errors.Is(err, lin.ErrSequence).
func (k Kind) Error() string { return k.String() }

var (
	ErrFormat        error = KindFormat
	ErrDataIntegrity error = KindDataIntegrity
	ErrSequence      error = KindSequence
	ErrPlayIntegrity error = KindPlayIntegrity
	ErrIncomplete    error = KindIncomplete
)

// Kinds lists the failure kinds in reporting order.
var Kinds = []Kind{KindFormat, KindDataIntegrity, KindSequence, KindPlayIntegrity, KindIncomplete}

// DecodeError is the only error type Decode returns.
type DecodeError struct {
	Kind   Kind
	Offset int    // byte offset into the input, -1 if unknown
	Tag    string // literal tag name of the offending token, if any
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	where := ""
	if e.Offset >= 0 {
		where = fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Tag != "" {
		where += fmt.Sprintf(" (%s)", e.Tag)
	}
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	return fmt.Sprintf("lin: %s%s: %s", e.Kind, where, msg)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf extracts the failure kind, KindNone for nil or foreign errors.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindNone
}

// OffsetOf extracts the input offset of a decode failure, -1 if none.
func OffsetOf(err error) int {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Offset
	}
	return -1
}

// classify maps engine validation errors onto decode failure kinds.
func classify(err error) Kind {
	switch {
	case errors.Is(err, engine.ErrHandSize),
		errors.Is(err, engine.ErrDuplicateCard),
		errors.Is(err, engine.ErrDeckPartition):
		return KindDataIntegrity
	case errors.Is(err, engine.ErrNotInHand),
		errors.Is(err, engine.ErrCardReused),
		errors.Is(err, engine.ErrClaimRange),
		errors.Is(err, engine.ErrTrickMismatch):
		return KindPlayIntegrity
	case errors.Is(err, engine.ErrIllegalCall),
		errors.Is(err, engine.ErrAuctionClosed),
		errors.Is(err, engine.ErrTrickFull),
		errors.Is(err, engine.ErrTrickIncomplete),
		errors.Is(err, engine.ErrPlayOver),
		errors.Is(err, engine.ErrPlayAfterPassOut):
		return KindSequence
	case errors.Is(err, engine.ErrAuctionOpen),
		errors.Is(err, engine.ErrTrickCount):
		return KindIncomplete
	}
	return KindFormat
}
