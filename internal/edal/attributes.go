package edal

import "fmt"

// ComponentType is the closed set of enclosure components held in the store.
type ComponentType uint8

const (
	PowerSupply ComponentType = iota
	Cooling
	TempSensor
	DriveSlot
	ExpanderPhy
	Connector
	Expander
	LCC
	Enclosure
	Display
	SPS
	SSC
	numComponentTypes
)

var componentTypeNames = [numComponentTypes]string{
	PowerSupply: "power_supply",
	Cooling:     "cooling",
	TempSensor:  "temp_sensor",
	DriveSlot:   "drive_slot",
	ExpanderPhy: "expander_phy",
	Connector:   "connector",
	Expander:    "expander",
	LCC:         "lcc",
	Enclosure:   "enclosure",
	Display:     "display",
	SPS:         "sps",
	SSC:         "ssc",
}

func (c ComponentType) String() string {
	if c < numComponentTypes {
		return componentTypeNames[c]
	}
	return fmt.Sprintf("component_%d", uint8(c))
}

// ComponentTypes lists every component type in declaration order.
func ComponentTypes() []ComponentType {
	out := make([]ComponentType, 0, numComponentTypes)
	for c := ComponentType(0); c < numComponentTypes; c++ {
		out = append(out, c)
	}
	return out
}

// Kind is the value type of an attribute.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindU64
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindU8:
		return "u8"
	case KindU64:
		return "u64"
	}
	return "invalid"
}

// Attribute identifies one field of a component record.
type Attribute uint16

const (
	// shared by most component types
	Inserted Attribute = iota
	Faulted
	StatusValid
	AddlStatus
	PoweredOff
	FaultLED
	Marked
	ElemIndex
	Side
	WriteData
	WriteDataSent

	// drive slot
	SlotNumber
	InsertMasked
	Bypassed
	DrivePhyIndex
	PowerCyclePending
	PowerCycleCompleted
	PowerDownCount
	InsertCount
	UserReqPowerCntl
	DeviceOffDesired
	DeviceOffReason

	// expander phy
	ExpElemIndex
	PhyID
	Disabled
	LinkReady
	PhyReady
	ForceDisabled
	SpinupEnabled
	SataSpinupHold
	CarrierDetected
	DisableReason

	// connector
	ConnectorID
	ConnectorPhyIndex
	ConnectorType
	ConnectorDisabled
	Degraded
	ClearSwap
	PersistentDisable

	// power supply
	Supported
	AcFail

	// temperature sensor
	OverTempWarning
	OverTempFailure
	Temperature
	MaxTemperature

	// lcc
	SubenclID
	FaultStartTimestamp
	FaultMasked

	// display
	DisplayModeStatus
	DisplayCharStatus
	DisplayMode
	DisplayChar

	// enclosure
	ModeSenseUnsupported
	ModeSelectUnsupported
	LastGoodStatusTime

	numAttributes
)

type attrInfo struct {
	name string
	kind Kind
}

var attrTable = [numAttributes]attrInfo{
	Inserted:              {"inserted", KindBool},
	Faulted:               {"faulted", KindBool},
	StatusValid:           {"status_valid", KindBool},
	AddlStatus:            {"addl_status", KindU8},
	PoweredOff:            {"powered_off", KindBool},
	FaultLED:              {"fault_led", KindBool},
	Marked:                {"marked", KindBool},
	ElemIndex:             {"elem_index", KindU8},
	Side:                  {"side", KindU8},
	WriteData:             {"write_data", KindBool},
	WriteDataSent:         {"write_data_sent", KindBool},
	SlotNumber:            {"slot_number", KindU8},
	InsertMasked:          {"insert_masked", KindBool},
	Bypassed:              {"bypassed", KindBool},
	DrivePhyIndex:         {"drive_phy_index", KindU8},
	PowerCyclePending:     {"power_cycle_pending", KindBool},
	PowerCycleCompleted:   {"power_cycle_completed", KindBool},
	PowerDownCount:        {"power_down_count", KindU8},
	InsertCount:           {"insert_count", KindU8},
	UserReqPowerCntl:      {"user_req_power_cntl", KindBool},
	DeviceOffDesired:      {"device_off_desired", KindBool},
	DeviceOffReason:       {"device_off_reason", KindU8},
	ExpElemIndex:          {"exp_elem_index", KindU8},
	PhyID:                 {"phy_id", KindU8},
	Disabled:              {"disabled", KindBool},
	LinkReady:             {"link_ready", KindBool},
	PhyReady:              {"phy_ready", KindBool},
	ForceDisabled:         {"force_disabled", KindBool},
	SpinupEnabled:         {"spinup_enabled", KindBool},
	SataSpinupHold:        {"sata_spinup_hold", KindBool},
	CarrierDetected:       {"carrier_detected", KindBool},
	DisableReason:         {"disable_reason", KindU8},
	ConnectorID:           {"connector_id", KindU8},
	ConnectorPhyIndex:     {"connector_phy_index", KindU8},
	ConnectorType:         {"connector_type", KindU8},
	ConnectorDisabled:     {"connector_disabled", KindBool},
	Degraded:              {"degraded", KindBool},
	ClearSwap:             {"clear_swap", KindBool},
	PersistentDisable:     {"persistent_disable", KindBool},
	Supported:             {"supported", KindBool},
	AcFail:                {"ac_fail", KindBool},
	OverTempWarning:       {"over_temp_warning", KindBool},
	OverTempFailure:       {"over_temp_failure", KindBool},
	Temperature:           {"temperature", KindU8},
	MaxTemperature:        {"max_temperature", KindU8},
	SubenclID:             {"subencl_id", KindU8},
	FaultStartTimestamp:   {"fault_start_timestamp", KindU64},
	FaultMasked:           {"fault_masked", KindBool},
	DisplayModeStatus:     {"display_mode_status", KindU8},
	DisplayCharStatus:     {"display_char_status", KindU8},
	DisplayMode:           {"display_mode", KindU8},
	DisplayChar:           {"display_char", KindU8},
	ModeSenseUnsupported:  {"mode_sense_unsupported", KindBool},
	ModeSelectUnsupported: {"mode_select_unsupported", KindBool},
	LastGoodStatusTime:    {"last_good_status_time", KindU64},
}

func (a Attribute) String() string {
	if a < numAttributes {
		return attrTable[a].name
	}
	return fmt.Sprintf("attr_%d", uint16(a))
}

// Kind returns the value type of a.
func (a Attribute) Kind() Kind {
	if a < numAttributes {
		return attrTable[a].kind
	}
	return Kind(0xFF)
}

var common = []Attribute{Inserted, Faulted, StatusValid, AddlStatus, FaultLED, Marked, ElemIndex, Side}

func with(extra ...Attribute) []Attribute {
	out := make([]Attribute, 0, len(common)+len(extra))
	out = append(out, common...)
	return append(out, extra...)
}

// schema lists the attributes each component type carries.
var schema = map[ComponentType][]Attribute{
	PowerSupply: with(PoweredOff, Supported, AcFail, SubenclID),
	Cooling:     with(PoweredOff, SubenclID),
	TempSensor: with(PoweredOff, OverTempWarning, OverTempFailure,
		Temperature, MaxTemperature, SubenclID),
	DriveSlot: with(PoweredOff, SlotNumber, InsertMasked, Bypassed, DrivePhyIndex,
		PowerCyclePending, PowerCycleCompleted, PowerDownCount, InsertCount,
		UserReqPowerCntl, DeviceOffDesired, DeviceOffReason, WriteData, WriteDataSent),
	ExpanderPhy: with(ExpElemIndex, PhyID, Disabled, LinkReady, PhyReady,
		ForceDisabled, SpinupEnabled, SataSpinupHold, CarrierDetected, DisableReason),
	Connector: with(ConnectorID, ConnectorPhyIndex, ConnectorType, ConnectorDisabled,
		Degraded, ClearSwap, PersistentDisable, InsertMasked, WriteData),
	Expander:  with(SubenclID),
	LCC:       with(SubenclID, FaultStartTimestamp, FaultMasked, PoweredOff),
	Enclosure: with(ModeSenseUnsupported, ModeSelectUnsupported, LastGoodStatusTime, SubenclID),
	Display: with(DisplayModeStatus, DisplayCharStatus, DisplayMode, DisplayChar,
		WriteData, SubenclID),
	SPS: with(SubenclID),
	SSC: with(SubenclID),
}

// Has reports whether component type c carries attribute a.
func Has(c ComponentType, a Attribute) bool {
	for _, x := range schema[c] {
		if x == a {
			return true
		}
	}
	return false
}

// AttributesOf returns the schema of c.
func AttributesOf(c ComponentType) []Attribute {
	return append([]Attribute(nil), schema[c]...)
}
