// Package lin decodes BBO deal notation (.lin transcripts) into validated
// engine.Deal records and encodes them back.
package lin

// Tag identifies a field kind in a transcript.
type Tag int

const (
	TagUnknown Tag = iota
	TagPlayers
	TagStart
	TagDeal
	TagHeader
	TagBoardName
	TagVulnerability
	TagBid
	TagPlay
	TagTrick
	TagClaim
	TagAnnotation
	TagNote
	TagBoardID
)

// tagNames holds the notation name of each known tag.
var tagNames = [...]string{
	TagUnknown:       "",
	TagPlayers:       "pn",
	TagStart:         "st",
	TagDeal:          "md",
	TagHeader:        "rh",
	TagBoardName:     "ah",
	TagVulnerability: "sv",
	TagBid:           "mb",
	TagPlay:          "pc",
	TagTrick:         "pg",
	TagClaim:         "mc",
	TagAnnotation:    "an",
	TagNote:          "nt",
	TagBoardID:       "qx",
}

var tagByName = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for t, n := range tagNames {
		if n != "" {
			m[n] = Tag(t)
		}
	}
	return m
}()

// LookupTag maps a two-letter field name to its Tag; unknown names give TagUnknown.
func LookupTag(name string) Tag { return tagByName[name] }

func (t Tag) String() string {
	if t <= TagUnknown || int(t) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[t]
}

// Token is one tag with its payload. Name keeps the literal field name so
// unknown tags survive intact. Offset is the byte position of the tag in
// the raw input.
type Token struct {
	Tag     Tag
	Name    string
	Payload string
	Offset  int
}

// isTagName reports whether a field can open a token: two lowercase letters.
func isTagName(s string) bool {
	return len(s) == 2 && isLower(s[0]) && isLower(s[1])
}

func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
