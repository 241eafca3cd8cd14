package eses_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/eses"
	"github.com/sigreer/esesgod/internal/ses"
	"github.com/sigreer/esesgod/internal/ses/sestest"
)

func TestDeviceOffReasonFor(t *testing.T) {
	tests := []struct {
		name string
		in   eses.DeviceOffInput
		want eses.DeviceOffReason
	}{
		{
			name: "powered on",
			in:   eses.DeviceOffInput{Code: ses.StatusOK, Inserted: true, FirstRead: true, Current: eses.DeviceOffPersistent},
			want: eses.DeviceOffPoweredOn,
		},
		{
			name: "power save survives power on",
			in:   eses.DeviceOffInput{Code: ses.StatusOK, Inserted: true, FirstRead: true, Current: eses.DeviceOffPowerSave},
			want: eses.DeviceOffPowerSave,
		},
		{
			name: "passive power save survives power on",
			in:   eses.DeviceOffInput{Code: ses.StatusOK, Inserted: true, Current: eses.DeviceOffPowerSavePassive},
			want: eses.DeviceOffPowerSavePassive,
		},
		{
			name: "unrecoverable",
			in:   eses.DeviceOffInput{PoweredOff: true, Code: ses.StatusUnrecover, Inserted: true, FirstRead: true, Current: eses.DeviceOffPoweredOn},
			want: eses.DeviceOffHardware,
		},
		{
			name: "unrecoverable before first read",
			in:   eses.DeviceOffInput{PoweredOff: true, Code: ses.StatusUnrecover},
			want: eses.DeviceOffHardware,
		},
		{
			name: "drive absent",
			in:   eses.DeviceOffInput{PoweredOff: true, Code: ses.StatusNotInstalled, FirstRead: true, Current: eses.DeviceOffPoweredOn},
			want: eses.DeviceOffNonPersistent,
		},
		{
			name: "off at first read",
			in:   eses.DeviceOffInput{PoweredOff: true, Code: ses.StatusOK, Inserted: true},
			want: eses.DeviceOffNonPersistent,
		},
		{
			name: "turned off",
			in:   eses.DeviceOffInput{PoweredOff: true, Code: ses.StatusOK, Inserted: true, FirstRead: true, Current: eses.DeviceOffPoweredOn},
			want: eses.DeviceOffPersistent,
		},
		{
			name: "no prior reason",
			in:   eses.DeviceOffInput{PoweredOff: true, Code: ses.StatusOK, Inserted: true, FirstRead: true},
			want: eses.DeviceOffPersistent,
		},
		{
			name: "keeps power save while off",
			in:   eses.DeviceOffInput{PoweredOff: true, Code: ses.StatusOK, Inserted: true, FirstRead: true, Current: eses.DeviceOffPowerSave},
			want: eses.DeviceOffPowerSave,
		},
		{
			name: "keeps non persistent while off",
			in:   eses.DeviceOffInput{PoweredOff: true, Code: ses.StatusOK, Inserted: true, FirstRead: true, Current: eses.DeviceOffNonPersistent},
			want: eses.DeviceOffNonPersistent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eses.DeviceOffReasonFor(tt.in))
		})
	}
}

func TestPhyDisableReasonFor(t *testing.T) {
	tests := []struct {
		name string
		in   eses.PhyDisableInput
		want eses.PhyDisableReason
	}{
		{
			name: "enabled",
			in:   eses.PhyDisableInput{Code: ses.StatusOK, FirstRead: true, Current: eses.PhyDisableHardware},
			want: eses.PhyDisableEnabled,
		},
		{
			name: "force disabled",
			in:   eses.PhyDisableInput{Disabled: true, ForceDisabled: true, Code: ses.StatusNotInstalled, InDisableList: true},
			want: eses.PhyDisableHardware,
		},
		{
			name: "critical",
			in:   eses.PhyDisableInput{Disabled: true, Code: ses.StatusCritical, FirstRead: true, CompInserted: true},
			want: eses.PhyDisableHardware,
		},
		{
			name: "unrecoverable",
			in:   eses.PhyDisableInput{Disabled: true, Code: ses.StatusUnrecover},
			want: eses.PhyDisableHardware,
		},
		{
			name: "connector on disable list",
			in:   eses.PhyDisableInput{Disabled: true, Code: ses.StatusNotInstalled, InDisableList: true},
			want: eses.PhyDisablePersistent,
		},
		{
			name: "before first read",
			in:   eses.PhyDisableInput{Disabled: true, Code: ses.StatusNotInstalled, CompInserted: true},
			want: eses.PhyDisableNonPersistent,
		},
		{
			name: "component pulled",
			in:   eses.PhyDisableInput{Disabled: true, Code: ses.StatusNotInstalled, FirstRead: true, Current: eses.PhyDisablePersistent},
			want: eses.PhyDisableNonPersistent,
		},
		{
			name: "component masked",
			in:   eses.PhyDisableInput{Disabled: true, Code: ses.StatusNotInstalled, FirstRead: true, CompInsertMasked: true, Current: eses.PhyDisableEnabled},
			want: eses.PhyDisablePersistent,
		},
		{
			name: "disabled with component present",
			in:   eses.PhyDisableInput{Disabled: true, Code: ses.StatusNotInstalled, FirstRead: true, CompInserted: true},
			want: eses.PhyDisablePersistent,
		},
		{
			name: "keeps current",
			in:   eses.PhyDisableInput{Disabled: true, Code: ses.StatusNotInstalled, FirstRead: true, CompInserted: true, Current: eses.PhyDisableNonPersistent},
			want: eses.PhyDisableNonPersistent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eses.PhyDisableReasonFor(tt.in))
		})
	}
}

func TestReasonStrings(t *testing.T) {
	assert.Equal(t, "power_save_passive", eses.DeviceOffPowerSavePassive.String())
	assert.Equal(t, "invalid", eses.DeviceOffReason(42).String())
	assert.Equal(t, "non_persistent", eses.PhyDisableNonPersistent.String())
	assert.Equal(t, "invalid", eses.PhyDisableInvalid.String())
}

func TestPhyDisableReasonFromDisableList(t *testing.T) {
	f := newFixture(t)
	f.decode(t, f.okPage())

	// phy 5 carries connector 1
	f.enc.SetConnectorDisableList([]uint8{1})
	f.decode(t, f.okPage().Set(gPhy, 6, sestest.Rec(byte(ses.StatusNotInstalled), fixtureExpIndex, 5, 0)))
	assert.Equal(t, uint8(eses.PhyDisablePersistent), f.getU8(t, edal.ExpanderPhy, 5, edal.DisableReason))

	f.enc.SetConnectorDisableList(nil)
	_, err := f.store.SetBool(edal.Connector, 1, edal.Inserted, false)
	require.NoError(t, err)
	_, err = f.store.SetU8(edal.ExpanderPhy, 5, edal.DisableReason, uint8(eses.PhyDisableEnabled))
	require.NoError(t, err)

	// phys decode before connectors, so the phy sees the pulled connector
	f.decode(t, f.okPage().
		SetCode(gConnA, 2, ses.StatusNotInstalled).
		Set(gPhy, 6, sestest.Rec(byte(ses.StatusNotInstalled), fixtureExpIndex, 5, 0)))
	assert.Equal(t, uint8(eses.PhyDisableNonPersistent), f.getU8(t, edal.ExpanderPhy, 5, edal.DisableReason))
}
