package ses_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/esesgod/internal/ses"
)

// 4 + 2 + 0 + 3 possible elements
var testGroups = ses.GroupTable{
	{ElementType: ses.ElemArrayDevSlot, NumPossibleElements: 4, FirstElementIndex: 0, ByteOffset: 8},
	{ElementType: ses.ElemPowerSupply, NumPossibleElements: 2, FirstElementIndex: 4, ByteOffset: 28},
	{ElementType: ses.ElemDisplay, NumPossibleElements: 0, FirstElementIndex: 6, ByteOffset: 40},
	{ElementType: ses.ElemPowerSupply, NumPossibleElements: 3, FirstElementIndex: 6, ByteOffset: 44, SubenclosureID: 1},
}

func TestGroupForOffset(t *testing.T) {
	tests := []struct {
		off     uint8
		group   int
		overall bool
	}{
		{0, 0, true},
		{1, 0, false},
		{4, 0, false},
		{5, 1, true},
		{7, 1, false},
		{8, 2, true},
		{9, 3, true},
		{12, 3, false},
	}
	for _, tt := range tests {
		g, overall, err := testGroups.GroupForOffset(tt.off)
		require.NoError(t, err, "offset %d", tt.off)
		assert.Equal(t, tt.group, g, "offset %d", tt.off)
		assert.Equal(t, tt.overall, overall, "offset %d", tt.off)
	}

	g, _, err := testGroups.GroupForOffset(13)
	assert.ErrorIs(t, err, ses.ErrOffsetOutOfRange)
	assert.Equal(t, ses.InvalidGroup, g)
}

func TestOffsetRoundTrip(t *testing.T) {
	total := 0
	for _, g := range testGroups {
		total += int(g.NumPossibleElements) + 1
	}
	individual := 0
	for off := 0; off < total; off++ {
		g, overall, err := testGroups.GroupForOffset(uint8(off))
		require.NoError(t, err)
		idx, err := testGroups.ElementIndexForOffset(g, uint8(off))
		if overall {
			assert.ErrorIs(t, err, ses.ErrOverallElement)
			continue
		}
		require.NoError(t, err)
		back, err := testGroups.OffsetForElementIndex(idx)
		require.NoError(t, err)
		assert.Equal(t, uint8(off), back)
		individual++
	}
	assert.Equal(t, testGroups.NumElements(), individual)
}

func TestGroupForType(t *testing.T) {
	assert.Equal(t, 1, testGroups.GroupForType(ses.ElemPowerSupply, 0))
	assert.Equal(t, 3, testGroups.GroupForType(ses.ElemPowerSupply, 2))
	assert.Equal(t, ses.InvalidGroup, testGroups.GroupForType(ses.ElemPowerSupply, 4))
	assert.Equal(t, ses.InvalidGroup, testGroups.GroupForType(ses.ElemCooling, 0))
}

func TestElementOffsetAndIndex(t *testing.T) {
	off, err := testGroups.ElementOffset(3, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(11), off)

	idx, err := testGroups.ElementIndex(3, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), idx)

	_, err = testGroups.ElementIndex(3, 0)
	assert.ErrorIs(t, err, ses.ErrOverallElement)
	_, err = testGroups.ElementOffset(1, 3)
	assert.ErrorIs(t, err, ses.ErrIndexOutOfRange)
	_, err = testGroups.ElementOffset(9, 0)
	assert.ErrorIs(t, err, ses.ErrInvalidGroup)
	_, err = testGroups.OffsetForElementIndex(9)
	assert.ErrorIs(t, err, ses.ErrIndexOutOfRange)
}

func TestNthGroupOfType(t *testing.T) {
	assert.Equal(t, 0, testGroups.NthGroupOfType(1))
	assert.Equal(t, 1, testGroups.NthGroupOfType(3))
	assert.Equal(t, 0, testGroups.NthGroupOfType(0))
}
