package ses

import (
	"encoding/binary"
	"fmt"
)

// PageHeader is the common 8-byte header of SES diagnostic pages.
type PageHeader struct {
	Code    uint8
	Byte1   uint8 // page specific
	Length  uint16
	GenCode uint32
}

// Size returns the total page size described by the header.
func (h PageHeader) Size() int {
	return int(h.Length) + 4
}

// ParseHeader reads the page header and checks that buf holds the whole page.
func ParseHeader(buf []byte) (PageHeader, error) {
	if len(buf) < PageHeaderLen {
		return PageHeader{}, fmt.Errorf("%w: %d bytes", ErrPageTooShort, len(buf))
	}
	h := PageHeader{
		Code:    buf[0],
		Byte1:   buf[1],
		Length:  binary.BigEndian.Uint16(buf[2:4]),
		GenCode: binary.BigEndian.Uint32(buf[4:8]),
	}
	if len(buf) < h.Size() {
		return h, fmt.Errorf("%w: have %d, need %d", ErrPageTooShort, len(buf), h.Size())
	}
	return h, nil
}

// ExpectPage parses the header and verifies the page code.
func ExpectPage(buf []byte, code uint8) (PageHeader, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return h, err
	}
	if h.Code != code {
		return h, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrUnexpectedPage, h.Code, code)
	}
	return h, nil
}

// Element is one 4-byte status element record.
type Element [ElementSize]byte

// ElementAt returns the record at byte offset off (relative to the page start).
func ElementAt(page []byte, off int) (Element, error) {
	var e Element
	if off < 0 || off+ElementSize > len(page) {
		return e, fmt.Errorf("%w: element at %d", ErrPageTooShort, off)
	}
	copy(e[:], page[off:off+ElementSize])
	return e, nil
}

func bit(b byte, n uint) bool { return b&(1<<n) != 0 }

// Common status byte (byte 0)
func (e Element) Code() StatusCode { return StatusCode(e[0] & 0x0F) }
func (e Element) Swap() bool       { return bit(e[0], 4) }
func (e Element) Disabled() bool   { return bit(e[0], 5) }
func (e Element) PrdFail() bool    { return bit(e[0], 6) }

// DriveSlotStatus is the array device slot status element.
type DriveSlotStatus struct {
	Code           StatusCode
	Ident          bool
	DevOff         bool
	FaultRequested bool
	FaultSensed    bool
	DoNotRemove    bool
	ReadyToInsert  bool
}

func (e Element) DriveSlot() DriveSlotStatus {
	return DriveSlotStatus{
		Code:           e.Code(),
		Ident:          bit(e[2], 1),
		ReadyToInsert:  bit(e[2], 3),
		DoNotRemove:    bit(e[2], 6),
		DevOff:         bit(e[3], 4),
		FaultRequested: bit(e[3], 5),
		FaultSensed:    bit(e[3], 6),
	}
}

// ExpanderPhyStatus is the EMC expander phy status element.
type ExpanderPhyStatus struct {
	Code           StatusCode
	ExpanderIndex  uint8 // element index of the owning expander
	PhyID          uint8
	ForceDisabled  bool
	CarrierDetect  bool
	SataSpinupHold bool
	SpinupEnabled  bool
	LinkReady      bool
	PhyReady       bool
}

func (e Element) ExpanderPhy() ExpanderPhyStatus {
	return ExpanderPhyStatus{
		Code:           e.Code(),
		ExpanderIndex:  e[1],
		PhyID:          e[2] & 0x7F,
		ForceDisabled:  bit(e[2], 7),
		CarrierDetect:  bit(e[3], 3),
		SataSpinupHold: bit(e[3], 4),
		SpinupEnabled:  bit(e[3], 5),
		LinkReady:      bit(e[3], 6),
		PhyReady:       bit(e[3], 7),
	}
}

// ConnectorStatus is the SAS connector status element.
type ConnectorStatus struct {
	Code         StatusCode
	Swap         bool
	ConnType     uint8
	Ident        bool
	PhysicalLink uint8
	Fail         bool
}

func (e Element) Connector() ConnectorStatus {
	return ConnectorStatus{
		Code:         e.Code(),
		Swap:         e.Swap(),
		ConnType:     e[1] & 0x7F,
		Ident:        bit(e[1], 7),
		PhysicalLink: e[2],
		Fail:         bit(e[3], 6),
	}
}

// PowerSupplyStatus is the power supply status element.
type PowerSupplyStatus struct {
	Code        StatusCode
	Ident       bool
	DCOverCurr  bool
	DCUnderVolt bool
	DCOverVolt  bool
	DCFail      bool
	ACFail      bool
	TempWarn    bool
	OverTmpFail bool
	Off         bool
	RqstedOn    bool
	Fail        bool
}

func (e Element) PowerSupply() PowerSupplyStatus {
	return PowerSupplyStatus{
		Code:        e.Code(),
		Ident:       bit(e[1], 7),
		DCOverCurr:  bit(e[2], 1),
		DCUnderVolt: bit(e[2], 2),
		DCOverVolt:  bit(e[2], 3),
		DCFail:      bit(e[3], 0),
		ACFail:      bit(e[3], 1),
		TempWarn:    bit(e[3], 2),
		OverTmpFail: bit(e[3], 3),
		Off:         bit(e[3], 4),
		RqstedOn:    bit(e[3], 5),
		Fail:        bit(e[3], 6),
	}
}

// CoolingStatus is the cooling status element.
type CoolingStatus struct {
	Code      StatusCode
	Ident     bool
	FanSpeed  uint16 // in units of 10 rpm
	SpeedCode uint8
	Off       bool
	RqstedOn  bool
	Fail      bool
}

func (e Element) Cooling() CoolingStatus {
	return CoolingStatus{
		Code:      e.Code(),
		Ident:     bit(e[1], 7),
		FanSpeed:  uint16(e[1]&0x03)<<8 | uint16(e[2]),
		SpeedCode: e[3] & 0x07,
		Off:       bit(e[3], 4),
		RqstedOn:  bit(e[3], 5),
		Fail:      bit(e[3], 6),
	}
}

// TempSensorOffset is added by the expander to every temperature reading.
const TempSensorOffset = 20

// TempSensorStatus is the temperature sensor status element.
type TempSensorStatus struct {
	Code      StatusCode
	Ident     bool
	Temp      uint8 // degrees C + TempSensorOffset
	OTWarning bool
	OTFailure bool
}

// Celsius converts the raw reading.
func (t TempSensorStatus) Celsius() int { return int(t.Temp) - TempSensorOffset }

func (e Element) TempSensor() TempSensorStatus {
	return TempSensorStatus{
		Code:      e.Code(),
		Ident:     bit(e[1], 7),
		Temp:      e[2],
		OTWarning: bit(e[3], 2),
		OTFailure: bit(e[3], 3),
	}
}

// EnclosureStatus is the enclosure element (chassis or LCC shell).
type EnclosureStatus struct {
	Code               StatusCode
	Ident              bool
	WarningIndication  bool
	FailureIndication  bool
	TimeUntilPowerCyc  uint8
	WarningRequested   bool
	FailureRequested   bool
	RqstPowerOffMinute uint8
}

func (e Element) Enclosure() EnclosureStatus {
	return EnclosureStatus{
		Code:               e.Code(),
		Ident:              bit(e[1], 7),
		WarningIndication:  bit(e[2], 0),
		FailureIndication:  bit(e[2], 1),
		TimeUntilPowerCyc:  e[2] >> 2,
		WarningRequested:   bit(e[3], 0),
		FailureRequested:   bit(e[3], 1),
		RqstPowerOffMinute: e[3] >> 2,
	}
}

// DisplayModeChar makes the display show the character in byte 2.
const DisplayModeChar uint8 = 2

// DisplayStatus is the display status element.
type DisplayStatus struct {
	Code       StatusCode
	ModeStatus uint8
	Fail       bool
	Ident      bool
	CharStatus uint8
}

func (e Element) Display() DisplayStatus {
	return DisplayStatus{
		Code:       e.Code(),
		ModeStatus: e[1] & 0x03,
		Fail:       bit(e[1], 6),
		Ident:      bit(e[1], 7),
		CharStatus: e[2],
	}
}

// ExpanderStatus is the SAS expander status element.
type ExpanderStatus struct {
	Code  StatusCode
	Fail  bool
	Ident bool
}

func (e Element) Expander() ExpanderStatus {
	return ExpanderStatus{Code: e.Code(), Fail: bit(e[1], 6), Ident: bit(e[1], 7)}
}

// SPSStatus is the standby power (UPS) status element.
type SPSStatus struct {
	Code          StatusCode
	BatteryStatus uint8
	IntfFail      bool
	Warn          bool
	UPSFail       bool
	DCFail        bool
	ACFail        bool
	BattFail      bool
	Fail          bool
	Ident         bool
}

func (e Element) SPS() SPSStatus {
	return SPSStatus{
		Code:          e.Code(),
		BatteryStatus: e[1],
		IntfFail:      bit(e[2], 0),
		Warn:          bit(e[2], 1),
		UPSFail:       bit(e[2], 2),
		DCFail:        bit(e[2], 3),
		ACFail:        bit(e[2], 4),
		BattFail:      bit(e[3], 1),
		Fail:          bit(e[3], 6),
		Ident:         bit(e[3], 7),
	}
}

// EscElectronicsStatus is the ESC electronics status element.
type EscElectronicsStatus struct {
	Code    StatusCode
	Fail    bool
	Ident   bool
	Report  bool // set for the local LCC
	HotSwap bool
}

func (e Element) EscElectronics() EscElectronicsStatus {
	return EscElectronicsStatus{
		Code:    e.Code(),
		Fail:    bit(e[1], 6),
		Ident:   bit(e[1], 7),
		Report:  bit(e[2], 0),
		HotSwap: bit(e[3], 7),
	}
}
