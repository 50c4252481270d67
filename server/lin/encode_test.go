package lin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-lin/server/engine"
	"bridge-lin/server/engine/enginetest"
	"bridge-lin/server/lin"
)

func TestEncode_RoundTrip(t *testing.T) {
	claimedDeal := func() engine.DealParams {
		p := enginetest.Played(17, 6, engine.East, "1N", "p", "3N", "p", "p", "p")
		p.Tricks, p.Unfinished = enginetest.PlayOut(p.Hands, engine.West, engine.NoTrump, 7, 3)
		won := 0
		for _, tr := range p.Tricks {
			if tr.Winner.SameSide(engine.East) {
				won++
			}
		}
		p.Claimed, p.ClaimTricks = true, won+4
		return p
	}
	annotated := func() engine.DealParams {
		p := enginetest.Played(23, 8, engine.West, "1C!", "1S", "d", "2S", "p", "p", "p")
		p.Auction[0].Explanation = "could be short"
		p.Auction[2].Explanation = "negative"
		p.Vulnerability = engine.VulEW
		p.Notes = []string{"gl", "thanks"}
		return p
	}

	tests := []struct {
		name   string
		params engine.DealParams
		opts   lin.Options
	}{
		{"played out", enginetest.Played(1, 1, engine.North, "1D", "p", "p", "p"), lin.DefaultOptions()},
		{"passed out", enginetest.Played(2, 2, engine.East, "p", "p", "p", "p"), lin.DefaultOptions()},
		{"doubled", enginetest.Played(3, 3, engine.South, "1H", "d", "r", "p", "p", "p"), lin.DefaultOptions()},
		{"claimed mid trick", claimedDeal(), lin.DefaultOptions()},
		{"alerts and notes", annotated(), lin.DefaultOptions()},
		{"dealer from deal", enginetest.Played(4, 9, engine.West, "p", "2S", "p", "4S", "p", "p", "p"), byDeal},
		{"rotated seating", enginetest.Played(5, 11, engine.South, "1S", "p", "p", "p"),
			lin.Options{Seating: lin.SeatingNESW, SeatingFromDealer: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := engine.NewDeal(tt.params)
			require.NoError(t, err)

			raw := lin.Encode(want, tt.opts)
			got, err := lin.Decode(raw, tt.opts)
			require.NoError(t, err, raw)
			assert.Equal(t, want, got)
			assert.Equal(t, raw, lin.Encode(got, tt.opts))
		})
	}
}

func TestEncode_Sample(t *testing.T) {
	lines := board1(t)
	d, err := lin.Decode(join(lines...), byDeal)
	require.NoError(t, err)

	raw := lin.Encode(d, byDeal)
	assert.Contains(t, raw, "pn|sam,wes,nora,ed|st||md|1SAK3HQJ2DAKQ87C64,SQJ9HK87DJ5CKQJ92,S8754HA954D632CA3,ST62HT63DT94CT875|")
	assert.Contains(t, raw, "ah|Board 1|sv|o|mb|1D|an|could be short|mb|p|mb|p|mb|p|pg||pc|CK|")

	again, err := lin.Decode(raw, byDeal)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}
