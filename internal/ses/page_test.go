package ses_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/esesgod/internal/ses"
	"github.com/sigreer/esesgod/internal/ses/sestest"
)

func TestParseHeader(t *testing.T) {
	page := sestest.NewStatusPage(testGroups, 0x01020304).Bytes()
	h, err := ses.ExpectPage(page, ses.PageEnclosureStatus)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), h.GenCode)
	assert.Equal(t, len(page), h.Size())

	_, err = ses.ParseHeader(page[:len(page)-1])
	assert.ErrorIs(t, err, ses.ErrPageTooShort)

	_, err = ses.ExpectPage(page, ses.PageEmcStatistics)
	assert.ErrorIs(t, err, ses.ErrUnexpectedPage)
}

func TestElementAt(t *testing.T) {
	page := sestest.NewStatusPage(testGroups, 1).
		Set(1, 2, sestest.Rec(0x41, 0x80, 0x02, 0x42)).
		Bytes()
	e, err := ses.ElementAt(page, int(testGroups[1].ByteOffset)+2*ses.ElementSize)
	require.NoError(t, err)
	assert.Equal(t, ses.StatusOK, e.Code())
	assert.True(t, e.PrdFail())

	_, err = ses.ElementAt(page, len(page)-2)
	assert.ErrorIs(t, err, ses.ErrPageTooShort)
}

func TestElementDecoders(t *testing.T) {
	t.Run("drive slot", func(t *testing.T) {
		s := sestest.Rec(0x04, 0x00, 0x02, 0x70).DriveSlot()
		assert.Equal(t, ses.DriveSlotStatus{
			Code: ses.StatusUnrecover, Ident: true, DevOff: true, FaultRequested: true, FaultSensed: true,
		}, s)
	})
	t.Run("expander phy", func(t *testing.T) {
		s := sestest.Rec(0x01, 0x0F, 0x85, 0xC8).ExpanderPhy()
		assert.Equal(t, uint8(0x0F), s.ExpanderIndex)
		assert.Equal(t, uint8(5), s.PhyID)
		assert.True(t, s.ForceDisabled)
		assert.True(t, s.CarrierDetect)
		assert.True(t, s.LinkReady)
		assert.True(t, s.PhyReady)
		assert.False(t, s.SpinupEnabled)
	})
	t.Run("connector", func(t *testing.T) {
		s := sestest.Rec(0x12, 0x82, 0x07, 0x40).Connector()
		assert.Equal(t, ses.ConnectorStatus{
			Code: ses.StatusCritical, Swap: true, ConnType: 2, Ident: true, PhysicalLink: 7, Fail: true,
		}, s)
	})
	t.Run("power supply", func(t *testing.T) {
		s := sestest.Rec(0x02, 0x80, 0x0E, 0x43).PowerSupply()
		assert.True(t, s.Ident)
		assert.True(t, s.DCOverCurr)
		assert.True(t, s.DCUnderVolt)
		assert.True(t, s.DCOverVolt)
		assert.True(t, s.DCFail)
		assert.True(t, s.ACFail)
		assert.True(t, s.Fail)
		assert.False(t, s.Off)
	})
	t.Run("cooling", func(t *testing.T) {
		s := sestest.Rec(0x01, 0x01, 0x2C, 0x23).Cooling()
		assert.Equal(t, uint16(300), s.FanSpeed)
		assert.Equal(t, uint8(3), s.SpeedCode)
		assert.True(t, s.RqstedOn)
	})
	t.Run("temperature", func(t *testing.T) {
		s := sestest.Rec(0x03, 0x00, 45, 0x04).TempSensor()
		assert.Equal(t, 25, s.Celsius())
		assert.True(t, s.OTWarning)
		assert.False(t, s.OTFailure)
	})
	t.Run("enclosure", func(t *testing.T) {
		s := sestest.Rec(0x01, 0x80, 0x0A, 0x0D).Enclosure()
		assert.True(t, s.Ident)
		assert.False(t, s.WarningIndication)
		assert.True(t, s.FailureIndication)
		assert.Equal(t, uint8(2), s.TimeUntilPowerCyc)
		assert.True(t, s.WarningRequested)
		assert.Equal(t, uint8(3), s.RqstPowerOffMinute)
	})
	t.Run("display", func(t *testing.T) {
		s := sestest.Rec(0x01, 0xC2, '7', 0).Display()
		assert.Equal(t, ses.DisplayModeChar, s.ModeStatus)
		assert.True(t, s.Fail)
		assert.Equal(t, uint8('7'), s.CharStatus)
	})
	t.Run("sps", func(t *testing.T) {
		s := sestest.Rec(0x01, 0x55, 0x10, 0xC2).SPS()
		assert.Equal(t, uint8(0x55), s.BatteryStatus)
		assert.True(t, s.ACFail)
		assert.True(t, s.BattFail)
		assert.True(t, s.Fail)
		assert.True(t, s.Ident)
	})
	t.Run("esc electronics", func(t *testing.T) {
		s := sestest.Rec(0x01, 0x40, 0x01, 0x80).EscElectronics()
		assert.Equal(t, ses.EscElectronicsStatus{Code: ses.StatusOK, Fail: true, Report: true, HotSwap: true}, s)
	})
}

func TestParseElementType(t *testing.T) {
	for in, want := range map[string]ses.ElementType{
		"drive":        ses.ElemArrayDevSlot,
		"phy":          ses.ElemExpanderPhy,
		"cooling":      ses.ElemCooling,
		"sas_expander": ses.ElemSASExpander,
	} {
		got, err := ses.ParseElementType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ses.ParseElementType("invalid")
	assert.Error(t, err)
	assert.Equal(t, "elem_type_0x42", ses.ElementType(0x42).String())
}
