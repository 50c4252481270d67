package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuitRuns(t *testing.T) {
	cards, err := ParseSuitRuns("SAKQHJT9D8765C432")
	require.NoError(t, err)
	require.Len(t, cards, 13)
	assert.Equal(t, Card{Ace, Spades}, cards[0])
	assert.Equal(t, Card{Ten, Hearts}, cards[4])
	assert.Equal(t, Card{Two, Clubs}, cards[12])

	cards, err = ParseSuitRuns("S10H D C")
	require.NoError(t, err)
	assert.Equal(t, []Card{{Ten, Spades}}, cards)

	_, err = ParseSuitRuns("AKSQ")
	assert.Error(t, err)
	_, err = ParseSuitRuns("SAZ")
	assert.Error(t, err)
}

func TestNewHand(t *testing.T) {
	cards, err := ParseSuitRuns("SAKQHJT9D8765C432")
	require.NoError(t, err)

	h, err := NewHand(South, cards)
	require.NoError(t, err)
	assert.Equal(t, South, h.Position())
	assert.Equal(t, 13, h.Len())
	assert.Equal(t, 10, h.HCP())
	assert.Equal(t, [4]int{3, 3, 4, 3}, h.Shape())
	assert.True(t, h.Has(Card{King, Spades}))
	assert.False(t, h.Has(Card{King, Hearts}))
	assert.Equal(t, "SAKQHJT9D8765C432", h.String())
	assert.Len(t, h.Suit(Diamonds), 4)

	t.Run("wrong size", func(t *testing.T) {
		_, err := NewHand(South, cards[:12])
		assert.ErrorIs(t, err, ErrHandSize)
	})

	t.Run("duplicate", func(t *testing.T) {
		dup := append([]Card(nil), cards[:12]...)
		dup = append(dup, cards[0])
		_, err := NewHand(South, dup)
		assert.ErrorIs(t, err, ErrDuplicateCard)
	})

	t.Run("cards copy is independent", func(t *testing.T) {
		c := h.Cards()
		c[0] = Card{Two, Clubs}
		assert.True(t, h.Has(Card{Ace, Spades}))
	})
}

func TestRemainder(t *testing.T) {
	deck := NewDeck()
	rest, err := Remainder(deck[:13], deck[13:26], deck[26:39])
	require.NoError(t, err)
	assert.Equal(t, deck[39:], rest)

	_, err = Remainder(deck[:13], deck[12:25])
	assert.ErrorIs(t, err, ErrDuplicateCard)
}

func TestValidatePartition(t *testing.T) {
	deck := NewDeck()
	var hands [4]Hand
	for _, p := range Positions {
		h, err := NewHand(p, deck[int(p)*13:int(p)*13+13])
		require.NoError(t, err)
		hands[p] = h
	}
	require.NoError(t, ValidatePartition(hands))

	dup := hands
	bad := append(hands[East].Cards()[:12], hands[North].Cards()[0])
	h, err := NewHand(East, bad)
	require.NoError(t, err)
	dup[East] = h
	assert.ErrorIs(t, ValidatePartition(dup), ErrDuplicateCard)

	swapped := hands
	swapped[North], swapped[East] = hands[East], hands[North]
	assert.ErrorIs(t, ValidatePartition(swapped), ErrDeckPartition)
}
