package ses

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrEnclosureNotFound  = errors.New("enclosure not found")
	ErrSgSesNotInstalled  = errors.New("sg_ses not found in PATH")
	ErrLsscsiNotInstalled = errors.New("lsscsi not found in PATH")
	ErrPermissionDenied   = errors.New("permission denied (requires root)")
	ErrPageTooShort       = errors.New("diagnostic page shorter than its header claims")
	ErrUnexpectedPage     = errors.New("unexpected diagnostic page code")
	ErrOffsetOutOfRange   = errors.New("element offset beyond last element group")
	ErrIndexOutOfRange    = errors.New("element index beyond last element group")
	ErrOverallElement     = errors.New("offset addresses an overall element")
	ErrInvalidGroup       = errors.New("invalid element group id")
)

// InvalidGroup is returned by group lookups that find nothing.
const InvalidGroup = -1

// Page codes used by the decoder.
const (
	PageSupportedDiags  uint8 = 0x00
	PageConfiguration   uint8 = 0x01
	PageEnclosureStatus uint8 = 0x02
	PageThresholdIn     uint8 = 0x05
	PageAddlElemStatus  uint8 = 0x0A
	PageDownloadStatus  uint8 = 0x0E
	PageEmcEnclStatus   uint8 = 0x10
	PageEmcStatistics   uint8 = 0x11
)

// PageHeaderLen is the common header in front of every SES page.
const PageHeaderLen = 8

// ElementSize is the size of each status/control element record.
const ElementSize = 4

// ElementType is the SES element type code.
type ElementType uint8

// Element types reported by ESES expanders.
const (
	ElemPowerSupply   ElementType = 0x02
	ElemCooling       ElementType = 0x03
	ElemTempSensor    ElementType = 0x04
	ElemAlarm         ElementType = 0x06
	ElemEscElectronic ElementType = 0x07
	ElemUPS           ElementType = 0x0B
	ElemDisplay       ElementType = 0x0C
	ElemEnclosure     ElementType = 0x0E
	ElemLanguage      ElementType = 0x10
	ElemArrayDevSlot  ElementType = 0x17
	ElemSASExpander   ElementType = 0x18
	ElemSASConnector  ElementType = 0x19
	ElemExpanderPhy   ElementType = 0x81
	ElemInvalid       ElementType = 0xFF
)

var elementTypeNames = map[ElementType]string{
	ElemPowerSupply:   "power_supply",
	ElemCooling:       "cooling",
	ElemTempSensor:    "temp_sensor",
	ElemAlarm:         "alarm",
	ElemEscElectronic: "esc_electronics",
	ElemUPS:           "ups",
	ElemDisplay:       "display",
	ElemEnclosure:     "enclosure",
	ElemLanguage:      "language",
	ElemArrayDevSlot:  "array_dev_slot",
	ElemSASExpander:   "sas_expander",
	ElemSASConnector:  "sas_connector",
	ElemExpanderPhy:   "expander_phy",
	ElemInvalid:       "invalid",
}

func (t ElementType) String() string {
	if n, ok := elementTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("elem_type_0x%02x", uint8(t))
}

// ParseElementType accepts either a name from String() or a short alias.
func ParseElementType(s string) (ElementType, error) {
	switch s {
	case "ps", "psu":
		return ElemPowerSupply, nil
	case "fan":
		return ElemCooling, nil
	case "temp":
		return ElemTempSensor, nil
	case "drive", "slot":
		return ElemArrayDevSlot, nil
	case "phy":
		return ElemExpanderPhy, nil
	case "conn", "connector":
		return ElemSASConnector, nil
	case "exp", "expander":
		return ElemSASExpander, nil
	case "sps":
		return ElemUPS, nil
	}
	for t, n := range elementTypeNames {
		if n == s && t != ElemInvalid {
			return t, nil
		}
	}
	return ElemInvalid, fmt.Errorf("unknown element type %q", s)
}

// StatusCode is the 4-bit element status code in the common status byte.
type StatusCode uint8

// Standard SES element status codes.
const (
	StatusUnsupported  StatusCode = 0x0
	StatusOK           StatusCode = 0x1
	StatusCritical     StatusCode = 0x2
	StatusNonCritical  StatusCode = 0x3
	StatusUnrecover    StatusCode = 0x4
	StatusNotInstalled StatusCode = 0x5
	StatusUnknown      StatusCode = 0x6
	StatusUnavailable  StatusCode = 0x7
)

func (c StatusCode) String() string {
	switch c {
	case StatusUnsupported:
		return "unsupported"
	case StatusOK:
		return "ok"
	case StatusCritical:
		return "critical"
	case StatusNonCritical:
		return "noncritical"
	case StatusUnrecover:
		return "unrecoverable"
	case StatusNotInstalled:
		return "not_installed"
	case StatusUnknown:
		return "unknown"
	case StatusUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("reserved_0x%x", uint8(c))
}

// SubenclosureType comes from byte 40 of the subenclosure descriptor.
type SubenclosureType uint8

const (
	SubenclPowerSupply SubenclosureType = 0x02
	SubenclCooling     SubenclosureType = 0x03
	SubenclLCC         SubenclosureType = 0x07
	SubenclUPS         SubenclosureType = 0x0B
	SubenclChassis     SubenclosureType = 0x0E
	SubenclInvalid     SubenclosureType = 0xFF
)

func (t SubenclosureType) String() string {
	switch t {
	case SubenclPowerSupply:
		return "power_supply"
	case SubenclCooling:
		return "cooling"
	case SubenclLCC:
		return "lcc"
	case SubenclUPS:
		return "ups"
	case SubenclChassis:
		return "chassis"
	}
	return "invalid"
}

// Subenclosure identifiers
const (
	SubenclIDPrimary uint8 = 0    // local LCC
	SubenclIDNone    uint8 = 0xFF // never appears in a page
	ElemIndexNone    uint8 = 0xFF
)

// Subenclosure is the part of a configuration page subenclosure descriptor
// the decoder needs.
type Subenclosure struct {
	ID      uint8            `json:"id"`
	Type    SubenclosureType `json:"type"`
	Side    uint8            `json:"side"` // 0x1F when not sided
	Vendor  string           `json:"vendor"`
	Product string           `json:"product"`
	Serial  string           `json:"serial,omitempty"`
	NumType uint8            `json:"num_type_desc_hdrs"`
}

// EnclosureSES represents an SES-capable enclosure with its control device
type EnclosureSES struct {
	SGDevice string `json:"sg_device"` // /dev/sg<N> control device
	Vendor   string `json:"vendor"`
	Product  string `json:"product"`
	Revision string `json:"revision,omitempty"`
	HCTL     string `json:"hctl,omitempty"`
}
