package lin

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	raw := "pn|a,b,c,d|st||md|1SAKH2,,,|mb|1D!|pg||"
	toks, err := Tokenize(raw)
	require.NoError(t, err)

	want := []Token{
		{Tag: TagPlayers, Name: "pn", Payload: "a,b,c,d", Offset: 0},
		{Tag: TagStart, Name: "st", Payload: "", Offset: 11},
		{Tag: TagDeal, Name: "md", Payload: "1SAKH2,,,", Offset: 15},
		{Tag: TagBid, Name: "mb", Payload: "1D!", Offset: 28},
		{Tag: TagTrick, Name: "pg", Payload: "", Offset: 35},
	}
	assert.Equal(t, want, toks)
	for _, tok := range toks {
		assert.Equal(t, tok.Name, raw[tok.Offset:tok.Offset+2])
	}
}

func TestScanner_Payloads(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		names []string
		loads []string
	}{
		{
			name:  "separator inside annotation",
			raw:   "mb|1C|an|3+ clubs|maybe 2|mb|p|",
			names: []string{"mb", "an", "mb"},
			loads: []string{"1C", "3+ clubs|maybe 2", "p"},
		},
		{
			name:  "line breaks between fields",
			raw:   "pg||\r\npc|SA|\npc|S2|pg||\n",
			names: []string{"pg", "pc", "pc", "pg"},
			loads: []string{"", "SA", "S2", ""},
		},
		{
			name:  "unknown tags pass through",
			raw:   "zz|whatever|mb|p|",
			names: []string{"zz", "mb"},
			loads: []string{"whatever", "p"},
		},
		{
			name:  "missing final separator",
			raw:   "sv|o|mc|9",
			names: []string{"sv", "mc"},
			loads: []string{"o", "9"},
		},
		{
			name:  "doubled separators are skipped",
			raw:   "mb|p||mb|d|",
			names: []string{"mb", "mb"},
			loads: []string{"p", "d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.raw)
			require.NoError(t, err)
			var names, loads []string
			for _, tok := range toks {
				names = append(names, tok.Name)
				loads = append(loads, tok.Payload)
			}
			assert.Equal(t, tt.names, names)
			assert.Equal(t, tt.loads, loads)
		})
	}
}

func TestScanner_Offsets(t *testing.T) {
	raw := "pg||\n  pc|HK|"
	toks, err := Tokenize(raw)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, strings.Index(raw, "pc"), toks[1].Offset)
}

func TestScanner_Restartable(t *testing.T) {
	s := NewScanner("mb|1S|mb|p|mb|p|mb|p|")
	first := slices.Collect(s.All())
	second := slices.Collect(s.All())
	require.Len(t, first, 4)
	assert.Equal(t, first, second)

	s.Reset()
	tok, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "1S", tok.Payload)
}

func TestScanner_StopsEarly(t *testing.T) {
	s := NewScanner("mb|1S|mb|p|mb|p|mb|p|")
	n := 0
	for range s.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
	assert.NoError(t, s.Err())
}

func TestTokenize_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":           "",
		"only separators": "|||",
		"html error page": "<html><body>503 Service Unavailable</body></html>",
		"unknown tags":    "zz|1|yy|2|",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Tokenize(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Equal(t, KindFormat, KindOf(err))
		})
	}
}

func TestTag_String(t *testing.T) {
	assert.Equal(t, "md", TagDeal.String())
	assert.Equal(t, "unknown", TagUnknown.String())
	assert.Equal(t, TagClaim, LookupTag("mc"))
	assert.Equal(t, TagUnknown, LookupTag("MC"))
}
