package lin

import (
	"iter"
	"strings"
)

const sep = '|'

// Scanner splits a transcript into tokens lazily. Fields are separated by
// '|'; a field of two lowercase letters opens a token, the next field is its
// payload, and any following fields that cannot open a token are folded back
// into the payload with their separators. Empty fields between tokens are
// skipped.
type Scanner struct {
	src string
	pos int
	err error
}

func NewScanner(raw string) *Scanner { return &Scanner{src: raw} }

// Reset rewinds to the start of the input.
func (s *Scanner) Reset() {
	s.pos, s.err = 0, nil
}

// Err is the error that stopped the scan, if any.
func (s *Scanner) Err() error { return s.err }

// field returns the next raw field with its start and end offsets.
func (s *Scanner) field() (f string, start, end int, ok bool) {
	if s.pos >= len(s.src) {
		return "", s.pos, s.pos, false
	}
	start = s.pos
	end = len(s.src)
	if i := strings.IndexByte(s.src[start:], sep); i >= 0 {
		end = start + i
	}
	s.pos = end + 1
	return s.src[start:end], start, end, true
}

// Next returns the next token. It returns false at the end of input or when
// the input does not open with a tag; Err distinguishes the two.
func (s *Scanner) Next() (Token, bool) {
	if s.err != nil {
		return Token{}, false
	}
	var (
		f  string
		at int
		ok bool
	)
	for {
		f, at, _, ok = s.field()
		if !ok {
			return Token{}, false
		}
		if strings.TrimSpace(f) != "" {
			break
		}
	}
	at += leadingSpace(f)
	name := strings.TrimSpace(f)
	if !isTagName(name) {
		// Only reachable before the first token: later non-tag fields are
		// absorbed into payloads.
		s.err = &DecodeError{Kind: KindFormat, Offset: at, Msg: "input does not start with a tag"}
		return Token{}, false
	}
	tok := Token{Tag: LookupTag(name), Name: name, Offset: at}

	_, from, to, ok := s.field()
	if !ok {
		return tok, true
	}
	for {
		mark := s.pos
		g, _, end, ok := s.field()
		if !ok {
			break
		}
		t := strings.TrimSpace(g)
		if isTagName(t) {
			s.pos = mark
			break
		}
		if t != "" {
			to = end
		}
	}
	tok.Payload = strings.TrimSpace(s.src[from:to])
	return tok, true
}

// All iterates over every token from the start of the input.
func (s *Scanner) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		s.Reset()
		for {
			t, ok := s.Next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}

// Tokenize scans the whole input. It fails with a format error when the
// input holds no known tag at all.
func Tokenize(raw string) ([]Token, error) {
	s := NewScanner(raw)
	var (
		out   []Token
		known bool
	)
	for t := range s.All() {
		out = append(out, t)
		known = known || t.Tag != TagUnknown
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if !known {
		return nil, &DecodeError{Kind: KindFormat, Offset: 0, Msg: "no recognized tags"}
	}
	return out, nil
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\r\n"))
}
