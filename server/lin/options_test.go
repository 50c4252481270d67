package lin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-lin/server/engine"
)

func TestParseSeating(t *testing.T) {
	s, err := ParseSeating("swne")
	require.NoError(t, err)
	assert.Equal(t, SeatingLIN, s)
	assert.Equal(t, "SWNE", s.String())

	s, err = ParseSeating("")
	require.NoError(t, err)
	assert.Equal(t, SeatingLIN, s)

	for _, bad := range []string{"NNES", "NES", "NESX"} {
		_, err := ParseSeating(bad)
		assert.Error(t, err, bad)
	}
}

func TestSeating_Rotate(t *testing.T) {
	assert.Equal(t, SeatingLIN, SeatingLIN.Rotate(engine.South))
	assert.Equal(t, Seating{engine.North, engine.East, engine.South, engine.West}, SeatingLIN.Rotate(engine.North))
	assert.Equal(t, Seating{engine.West, engine.North, engine.East, engine.South}, SeatingNESW.Rotate(engine.West))

	o := DefaultOptions()
	assert.Equal(t, SeatingLIN, o.seats(engine.East))
	o.SeatingFromDealer = true
	assert.Equal(t, engine.East, o.seats(engine.East)[0])
}

func TestParseRules(t *testing.T) {
	r, err := ParseDealerRule("deal")
	require.NoError(t, err)
	assert.Equal(t, DealerFromDeal, r)
	r, err = ParseDealerRule("")
	require.NoError(t, err)
	assert.Equal(t, DealerFromBoard, r)
	_, err = ParseDealerRule("coin")
	assert.Error(t, err)

	d, err := ParseDeclarerRule("first-named")
	require.NoError(t, err)
	assert.Equal(t, engine.DeclarerFirstNamed, d)
	d, err = ParseDeclarerRule("winning-bidder")
	require.NoError(t, err)
	assert.Equal(t, engine.DeclarerWinningBidder, d)
	_, err = ParseDeclarerRule("loudest")
	assert.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.Error(t, Options{}.Validate())

	_, err := Decode("pn|a,b,c,d|", Options{Seating: Seating{engine.North, engine.North, engine.South, engine.West}})
	assert.ErrorIs(t, err, ErrFormat)
}
