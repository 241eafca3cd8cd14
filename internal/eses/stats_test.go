package eses_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/eses"
	"github.com/sigreer/esesgod/internal/ses"
	"github.com/sigreer/esesgod/internal/ses/sestest"
)

// Element offsets of the fixture layout: every group contributes its
// overall record plus one offset per element.
const (
	offSlotOverall = 0
	offSlot0       = 1
	offSlot1       = 2
	offPhy0        = 6  // element index 4
	offPhy4        = 10 // element index 8
	offPSA         = 38 // element index 25
	offCoolA0      = 40 // element index 26
)

func slotItem(off, inserts, powerDowns uint8) sestest.StatsItem {
	return sestest.StatsItem{ElementOffset: off, Payload: []byte{inserts, powerDowns}}
}

func psItem(off uint8) sestest.StatsItem {
	return sestest.StatsItem{ElementOffset: off, Payload: []byte{1, 2, 3, 4, 5, 6}}
}

func phyItem(off uint8, invalidDword uint32) sestest.StatsItem {
	p := make([]byte, 26)
	p[1], p[2], p[3], p[4] = byte(invalidDword>>24), byte(invalidDword>>16), byte(invalidDword>>8), byte(invalidDword)
	p[21] = 9 // phy change count
	p[22], p[23] = 0x01, 0x02
	return sestest.StatsItem{ElementOffset: off, Payload: p}
}

func TestCollectStatisticsTruncates(t *testing.T) {
	f := newFixture(t)
	page := sestest.StatisticsPage(fixtureGen, []sestest.StatsItem{
		slotItem(offSlot0, 1, 0),
		slotItem(offSlot1, 2, 1),
		psItem(offPSA),
	})

	res, err := f.enc.CollectStatistics(page, eses.All(), make([]byte, 28))
	require.NoError(t, err)
	assert.Equal(t, 28, res.BytesCopied)
	assert.Equal(t, 28, res.RequiredSize)
	assert.False(t, res.Truncated)
	assert.Len(t, res.Entries, 3)

	// one byte short: only whole entries are copied
	buf := make([]byte, 27)
	res, err = f.enc.CollectStatistics(page, eses.All(), buf)
	require.NoError(t, err)
	assert.Equal(t, 16, res.BytesCopied)
	assert.Equal(t, 28, res.RequiredSize)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, make([]byte, 11), buf[16:], "nothing written past the last whole entry")
}

func TestCollectStatisticsStopsAfterFirstMiss(t *testing.T) {
	f := newFixture(t)
	page := sestest.StatisticsPage(fixtureGen, []sestest.StatsItem{
		slotItem(offSlot0, 1, 0),
		psItem(offPSA),
		slotItem(offSlot1, 2, 1),
	})

	// room for the second slot entry but not the supply entry before it
	res, err := f.enc.CollectStatistics(page, eses.All(), make([]byte, 19))
	require.NoError(t, err)
	assert.Equal(t, 8, res.BytesCopied)
	assert.Equal(t, 28, res.RequiredSize)
	assert.True(t, res.Truncated)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, uint8(offSlot0), res.Entries[0].Item.ElementOffset)
}

func TestCollectStatisticsIdentity(t *testing.T) {
	f := newFixture(t)
	page := sestest.StatisticsPage(fixtureGen, []sestest.StatsItem{
		slotItem(offSlotOverall, 0, 0),
		slotItem(offSlot1, 3, 4),
		phyItem(offPhy0, 7),
		phyItem(offPhy4, 0),
		psItem(offPSA),
		{ElementOffset: offCoolA0, Payload: []byte{2}},
		{ElementOffset: 200, Payload: []byte{0}},
	})
	buf := make([]byte, 512)
	res, err := f.enc.CollectStatistics(page, eses.All(), buf)
	require.NoError(t, err)

	want := []eses.StatsIdentity{
		{ElementType: ses.ElemArrayDevSlot, SlotOrID: 1, DrvOrConn: ses.ElemInvalid, DrvOrConnNum: 0xFF},
		{ElementType: ses.ElemExpanderPhy, SlotOrID: 0, DrvOrConn: ses.ElemArrayDevSlot, DrvOrConnNum: 0},
		{ElementType: ses.ElemExpanderPhy, SlotOrID: 4, DrvOrConn: ses.ElemSASConnector, DrvOrConnNum: 0},
		{ElementType: ses.ElemPowerSupply, SlotOrID: 25, DrvOrConn: ses.ElemInvalid, DrvOrConnNum: 0xFF},
		{ElementType: ses.ElemCooling, SlotOrID: 26, DrvOrConn: ses.ElemInvalid, DrvOrConnNum: 0xFF},
	}
	got := make([]eses.StatsIdentity, 0, len(res.Entries))
	for _, en := range res.Entries {
		got = append(got, en.StatsIdentity)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("identities mismatch (-want +got):\n%s", diff)
	}

	// the response buffer parses back to the same entries
	parsed, err := eses.ParseStatsResponse(buf[:res.BytesCopied])
	require.NoError(t, err)
	if diff := cmp.Diff(res.Entries, parsed); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectStatisticsSelection(t *testing.T) {
	f := newFixture(t)
	page := sestest.StatisticsPage(fixtureGen, []sestest.StatsItem{
		slotItem(offSlot0, 1, 0),
		slotItem(offSlot1, 2, 0),
		phyItem(offPhy0, 0),
		phyItem(offPhy4, 0),
		psItem(offPSA),
	})
	buf := make([]byte, 512)

	res, err := f.enc.CollectStatistics(page, eses.ByType(ses.ElemExpanderPhy), buf)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)

	res, err = f.enc.CollectStatistics(page, eses.BySlot(ses.ElemArrayDevSlot, 1, 3), buf)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, uint8(1), res.Entries[0].SlotOrID)

	res, err = f.enc.CollectStatistics(page, eses.BySlot(ses.ElemExpanderPhy, 4, 4), buf)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, ses.ElemSASConnector, res.Entries[0].DrvOrConn)

	_, err = f.enc.CollectStatistics(page, eses.ByType(ses.ElemDisplay), buf)
	assert.ErrorIs(t, err, eses.ErrParameterInvalid)
	_, err = f.enc.CollectStatistics(page, eses.BySlot(ses.ElemPowerSupply, 0, 1), buf)
	assert.ErrorIs(t, err, eses.ErrIllegalRequest)
	_, err = f.enc.CollectStatistics(page, eses.BySlot(ses.ElemArrayDevSlot, 3, 1), buf)
	assert.ErrorIs(t, err, eses.ErrParameterInvalid)
	_, err = f.enc.CollectStatistics(testConfigPage(), eses.All(), buf)
	assert.ErrorIs(t, err, ses.ErrUnexpectedPage)
}

func TestParseStatisticsPageShortItem(t *testing.T) {
	page := sestest.StatisticsPage(fixtureGen, []sestest.StatsItem{slotItem(offSlot0, 1, 0)})
	page[ses.PageHeaderLen+1] = 9 // claims more than the page holds

	_, err := eses.ParseStatisticsPage(page)
	assert.ErrorIs(t, err, ses.ErrPageTooShort)
}

func TestStatsEntryDecode(t *testing.T) {
	tests := []struct {
		name  string
		entry eses.StatsEntry
		want  any
	}{
		{
			name:  "slot",
			entry: statsEntry(ses.ElemArrayDevSlot, slotItem(offSlot0, 5, 6)),
			want:  eses.DriveSlotStats{InsertCount: 5, PowerDownCount: 6},
		},
		{
			name:  "phy",
			entry: statsEntry(ses.ElemExpanderPhy, phyItem(offPhy0, 0x01020304)),
			want:  eses.PhyStats{InvalidDword: 0x01020304, PhyChange: 9, CRCPmonAccum: 0x0102},
		},
		{
			name:  "power supply",
			entry: statsEntry(ses.ElemPowerSupply, psItem(offPSA)),
			want:  eses.PowerSupplyStats{DCOver: 1, DCUnder: 2, Fail: 3, OTFail: 4, ACFail: 5, DCFail: 6},
		},
		{
			name:  "cooling",
			entry: statsEntry(ses.ElemCooling, sestest.StatsItem{Payload: []byte{7}}),
			want:  eses.CoolingStats{Fail: 7},
		},
		{
			name:  "temperature",
			entry: statsEntry(ses.ElemTempSensor, sestest.StatsItem{Payload: []byte{1, 8}}),
			want:  eses.TempSensorStats{OTFail: 1, OTWarn: 8},
		},
		{
			name:  "expander",
			entry: statsEntry(ses.ElemSASExpander, sestest.StatsItem{Payload: []byte{0x01, 0x00}}),
			want:  eses.ExpanderStats{ExpChange: 256},
		},
		{
			name:  "no typed view",
			entry: statsEntry(ses.ElemDisplay, sestest.StatsItem{Payload: []byte{1}}),
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.entry.Decode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := statsEntry(ses.ElemExpanderPhy, slotItem(offPhy0, 0, 0)).Decode()
	assert.ErrorIs(t, err, ses.ErrPageTooShort)
}

func statsEntry(t ses.ElementType, it sestest.StatsItem) eses.StatsEntry {
	return eses.StatsEntry{
		StatsIdentity: eses.StatsIdentity{ElementType: t},
		Item:          eses.StatsItem{ElementOffset: it.ElementOffset, Payload: it.Payload},
	}
}

func TestProcessStatisticsPageCompletesPowerCycle(t *testing.T) {
	f := newFixture(t)
	f.decode(t, f.okPage())
	require.NoError(t, f.enc.RequestPowerCycle(1))

	stats := func(powerDowns uint8) []byte {
		return sestest.StatisticsPage(fixtureGen, []sestest.StatsItem{
			slotItem(offSlot0, 1, 40),
			slotItem(offSlot1, 1, powerDowns),
			psItem(offPSA),
		})
	}

	// before the control page goes out the counter is only recorded
	require.NoError(t, f.enc.ProcessStatisticsPage(stats(255)))
	assert.Equal(t, uint8(255), f.getU8(t, edal.DriveSlot, 1, edal.PowerDownCount))
	assert.Zero(t, f.getU8(t, edal.DriveSlot, 0, edal.PowerDownCount), "slot without a pending cycle")

	require.NoError(t, f.enc.MarkPowerCycleSent(1))
	require.NoError(t, f.enc.ProcessStatisticsPage(stats(255)))
	assert.True(t, f.getBool(t, edal.DriveSlot, 1, edal.PowerCyclePending))

	// counter wrapped
	require.NoError(t, f.enc.ProcessStatisticsPage(stats(0)))
	assert.False(t, f.getBool(t, edal.DriveSlot, 1, edal.PowerCyclePending))
	assert.True(t, f.getBool(t, edal.DriveSlot, 1, edal.PowerCycleCompleted))
	assert.Zero(t, f.getU8(t, edal.DriveSlot, 1, edal.PowerDownCount))
}

func TestProcessStatisticsPageWaitsForPowerOn(t *testing.T) {
	f := newFixture(t)
	f.decode(t, f.okPage())
	require.NoError(t, f.enc.RequestPowerCycle(0))
	require.NoError(t, f.enc.ProcessStatisticsPage(sestest.StatisticsPage(fixtureGen,
		[]sestest.StatsItem{slotItem(offSlot0, 1, 3)})))
	require.NoError(t, f.enc.MarkPowerCycleSent(0))

	f.decode(t, f.okPage().Set(gSlot, 1, sestest.Rec(byte(ses.StatusOK), 0, 0, slotDevOff)))
	require.NoError(t, f.enc.ProcessStatisticsPage(sestest.StatisticsPage(fixtureGen,
		[]sestest.StatsItem{slotItem(offSlot0, 1, 4)})))
	assert.True(t, f.getBool(t, edal.DriveSlot, 0, edal.PowerCyclePending), "still off")

	require.NoError(t, f.enc.ResetPowerCyclePending())
	assert.False(t, f.getBool(t, edal.DriveSlot, 0, edal.PowerCyclePending))
	assert.False(t, f.getBool(t, edal.DriveSlot, 0, edal.WriteData))
}
