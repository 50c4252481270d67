package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAuction(t *testing.T, dealer Position, calls ...string) (*Auction, error) {
	t.Helper()
	a := NewAuction(dealer)
	for _, s := range calls {
		c, alerted, err := ParseCall(s)
		require.NoError(t, err, s)
		if err := a.Add(c, alerted); err != nil {
			return a, err
		}
	}
	return a, nil
}

func TestParseCall(t *testing.T) {
	tests := []struct {
		in      string
		want    Call
		alerted bool
	}{
		{"p", Pass, false},
		{"P", Pass, false},
		{"p!", Pass, true},
		{"d", Double, false},
		{"r", Redouble, false},
		{"1D", Bid(1, DenomDiamonds), false},
		{"1c!", Bid(1, DenomClubs), true},
		{"3N", Bid(3, NoTrump), false},
		{"7NT", Bid(7, NoTrump), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, alerted, err := ParseCall(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.alerted, alerted)
		})
	}
	for _, bad := range []string{"", "8S", "0H", "1Z", "pp"} {
		_, _, err := ParseCall(bad)
		assert.Error(t, err, bad)
	}
}

func TestAuction_Close(t *testing.T) {
	t.Run("passed out", func(t *testing.T) {
		a, err := runAuction(t, South, "p", "p", "p")
		require.NoError(t, err)
		assert.False(t, a.Closed())
		require.NoError(t, a.Add(Pass, false))
		assert.True(t, a.Closed())
		assert.True(t, a.PassedOut())

		c, decl, dbl, err := a.Result(DeclarerWinningBidder)
		require.NoError(t, err)
		assert.True(t, c.PassedOut())
		assert.Equal(t, NoPosition, decl)
		assert.Equal(t, Undoubled, dbl)
	})

	t.Run("three passes after bid", func(t *testing.T) {
		a, err := runAuction(t, South, "1D", "p", "p", "p")
		require.NoError(t, err)
		assert.True(t, a.Closed())
		c, decl, dbl, err := a.Result(DeclarerWinningBidder)
		require.NoError(t, err)
		assert.Equal(t, Contract{1, DenomDiamonds}, c)
		assert.Equal(t, South, decl)
		assert.Equal(t, Undoubled, dbl)
	})

	t.Run("late opening", func(t *testing.T) {
		a, err := runAuction(t, North, "p", "p", "p", "1S", "p", "p", "p")
		require.NoError(t, err)
		assert.True(t, a.Closed())
		_, decl, _, _ := a.Result(DeclarerWinningBidder)
		assert.Equal(t, West, decl)
	})

	t.Run("call after close", func(t *testing.T) {
		_, err := runAuction(t, North, "1S", "p", "p", "p", "p")
		assert.ErrorIs(t, err, ErrAuctionClosed)
	})

	t.Run("open auction has no result", func(t *testing.T) {
		a, err := runAuction(t, North, "1S", "p", "p")
		require.NoError(t, err)
		_, _, _, err = a.Result(DeclarerWinningBidder)
		assert.ErrorIs(t, err, ErrAuctionOpen)
	})
}

func TestAuction_Doubles(t *testing.T) {
	tests := []struct {
		name  string
		calls []string
		want  DoubleLevel
	}{
		{"doubled", []string{"1S", "d", "p", "p", "p"}, Doubled},
		{"redoubled", []string{"1S", "d", "r", "p", "p", "p"}, Redoubled},
		{"double then new bid resets", []string{"1S", "d", "2S", "p", "p", "p"}, Undoubled},
		{"balancing double", []string{"1S", "p", "p", "d", "p", "p", "p"}, Doubled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := runAuction(t, North, tt.calls...)
			require.NoError(t, err)
			_, _, dbl, err := a.Result(DeclarerWinningBidder)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dbl)
		})
	}
}

func TestAuction_IllegalCalls(t *testing.T) {
	tests := []struct {
		name  string
		calls []string
	}{
		{"insufficient", []string{"1S", "1H"}},
		{"same bid", []string{"2C", "2C"}},
		{"double with no bid", []string{"d"}},
		{"double partner", []string{"1S", "p", "d"}},
		{"double twice", []string{"1S", "d", "p", "p", "d"}},
		{"redouble undoubled", []string{"1S", "p", "r"}},
		{"redouble by defender", []string{"1S", "d", "p", "r"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runAuction(t, North, tt.calls...)
			assert.ErrorIs(t, err, ErrIllegalCall)
		})
	}
}

func TestAuction_DeclarerRules(t *testing.T) {
	// N opens 1H, S raises to 4H: N names hearts first.
	a, err := runAuction(t, North, "1H", "p", "4H", "p", "p", "p")
	require.NoError(t, err)

	_, decl, _, err := a.Result(DeclarerWinningBidder)
	require.NoError(t, err)
	assert.Equal(t, South, decl)

	_, decl, _, err = a.Result(DeclarerFirstNamed)
	require.NoError(t, err)
	assert.Equal(t, North, decl)

	// The opponents' hearts do not count for N/S.
	a, err = runAuction(t, North, "1C", "1H", "2H", "p", "p", "p")
	require.NoError(t, err)
	_, decl, _, _ = a.Result(DeclarerFirstNamed)
	assert.Equal(t, South, decl)
}

func TestAuction_Explain(t *testing.T) {
	a := NewAuction(East)
	assert.False(t, a.Explain("too early"))
	require.NoError(t, a.Add(Bid(1, DenomClubs), true))
	assert.True(t, a.Explain("could be short"))
	assert.True(t, a.Explain("2+"))
	calls := a.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, East, calls[0].Position)
	assert.True(t, calls[0].Alerted)
	assert.Equal(t, "could be short 2+", calls[0].Explanation)
}

func TestReplayAuction_RejectsWrongSeat(t *testing.T) {
	_, err := ReplayAuction(North, []AuctionCall{{Position: East, Call: Pass}})
	assert.ErrorIs(t, err, ErrIllegalCall)
}
