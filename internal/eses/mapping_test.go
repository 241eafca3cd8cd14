package eses_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/esesgod/internal/eses"
)

func TestComponentIndex(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		group int
		elem  uint8
		want  int
		err   error
	}{
		{"slot overall", gSlot, 0, 0, eses.ErrEdalNotNeeded},
		{"first slot", gSlot, 1, 0, nil},
		{"last slot", gSlot, 4, 3, nil},
		{"slot beyond group", gSlot, 5, 0, eses.ErrComponentUnsupported},
		{"phy by element index", gPhy, 1, 0, nil},
		{"last phy", gPhy, 8, 7, nil},
		{"local connector", gConnA, 2, 1, nil},
		{"peer connector", gConnB, 1, 2, nil},
		{"connector overall", gConnA, 0, 0, eses.ErrEdalNotNeeded},
		{"local expander", gExpA, 1, 0, nil},
		{"peer expander", gExpB, 1, 1, nil},
		{"local lcc", gLCCA, 1, 0, nil},
		{"peer lcc", gLCCB, 1, 1, nil},
		{"lcc overall", gLCCA, 0, 0, eses.ErrEdalNotNeeded},
		{"chassis", gChassis, 1, 0, nil},
		{"lcc temp overall", gTempA, 0, 0, nil},
		{"lcc temp", gTempA, 1, 1, nil},
		{"peer lcc temp", gTempB, 1, 3, nil},
		{"chassis temp overall", gTempChassis, 0, 4, nil},
		{"chassis temp", gTempChassis, 1, 5, nil},
		{"two digit display", gDisp2, 2, 1, nil},
		{"one digit display", gDisp1, 1, 2, nil},
		{"display overall", gDisp2, 0, 0, eses.ErrEdalNotNeeded},
		{"power supply a", gPSA, 1, 0, nil},
		{"power supply b", gPSB, 1, 1, nil},
		{"power supply overall", gPSA, 0, 0, eses.ErrEdalNotNeeded},
		{"ps cooling overall", gCoolA, 0, 0, nil},
		{"ps cooling", gCoolA, 2, 2, nil},
		{"peer ps cooling", gCoolB, 0, 3, nil},
		{"esc electronics", gESC, 1, 0, nil},
		{"esc electronics overall", gESC, 0, 0, eses.ErrEdalNotNeeded},
		{"sps", gUPS, 1, 0, nil},
		{"no such group", 99, 1, 0, eses.ErrMappingFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.enc.ComponentIndex(tt.group, tt.elem)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComponentIndexPSOverallSaved(t *testing.T) {
	p := testProfile()
	p.PSOverallSaved = true
	f := newFixtureProfile(t, p)

	for _, tt := range []struct {
		group int
		elem  uint8
		want  int
	}{
		{gPSA, 0, 0},
		{gPSA, 1, 1},
		{gPSB, 0, 2},
		{gPSB, 1, 3},
	} {
		got, err := f.enc.ComponentIndex(tt.group, tt.elem)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "group %d element %d", tt.group, tt.elem)
	}
}

func TestComponentIndexProfileLimits(t *testing.T) {
	p := testProfile()
	p.ConnectorsPerLCC = 1
	f := newFixtureProfile(t, p)

	_, err := f.enc.ComponentIndex(gConnA, 2)
	assert.ErrorIs(t, err, eses.ErrEdalNotNeeded)

	p = testProfile()
	p.Slots = 3
	f = newFixtureProfile(t, p)
	_, err = f.enc.ComponentIndex(gSlot, 4)
	assert.ErrorIs(t, err, eses.ErrComponentUnsupported)
}
