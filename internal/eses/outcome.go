package eses

import "github.com/sigreer/esesgod/internal/ses"

// Outcome is the semantic reading of one element status code. Fields a
// component type does not use stay false.
type Outcome struct {
	Inserted   bool
	Faulted    bool
	PoweredOff bool
	Valid      bool

	Disabled  bool // phy, connector
	Bypassed  bool // drive behind a phy
	Degraded  bool // connector
	Supported bool // power supply
	Warning   bool // temperature sensor over-temperature warning
	Critical  bool // temperature sensor over-temperature failure
}

// DecodeDriveSlot maps an array device slot status code.
func DecodeDriveSlot(c ses.StatusCode) Outcome {
	switch c {
	case ses.StatusOK, ses.StatusCritical, ses.StatusUnavailable:
		return Outcome{Inserted: true, Valid: true}
	case ses.StatusUnrecover:
		return Outcome{Inserted: true, Faulted: true, Valid: true}
	case ses.StatusNotInstalled:
		return Outcome{Valid: true}
	}
	return Outcome{Faulted: true}
}

// DecodeExpanderPhy maps an expander phy status code.
func DecodeExpanderPhy(c ses.StatusCode) Outcome {
	switch c {
	case ses.StatusOK, ses.StatusNonCritical:
		return Outcome{Inserted: true, Valid: true}
	case ses.StatusCritical, ses.StatusUnrecover, ses.StatusUnavailable:
		return Outcome{Inserted: true, Disabled: true, Bypassed: true, Valid: true}
	case ses.StatusNotInstalled:
		return Outcome{Disabled: true, Bypassed: true, Valid: true}
	}
	return Outcome{Disabled: true, Bypassed: true}
}

// DecodeConnector maps a SAS connector status code.
func DecodeConnector(c ses.StatusCode) Outcome {
	switch c {
	case ses.StatusOK, ses.StatusUnavailable:
		return Outcome{Inserted: true, Valid: true}
	case ses.StatusCritical, ses.StatusUnknown:
		return Outcome{Inserted: true, Faulted: true, Disabled: true, Valid: true}
	case ses.StatusNotInstalled:
		return Outcome{Valid: true}
	case ses.StatusNonCritical:
		return Outcome{Inserted: true, Degraded: true, Valid: true}
	}
	return Outcome{Disabled: true}
}

// DecodePowerSupply maps a power supply status code.
func DecodePowerSupply(c ses.StatusCode) Outcome {
	switch c {
	case ses.StatusOK:
		return Outcome{Inserted: true, Supported: true, Valid: true}
	case ses.StatusCritical, ses.StatusNonCritical:
		return Outcome{Inserted: true, Faulted: true, Supported: true, Valid: true}
	case ses.StatusUnrecover, ses.StatusUnknown:
		return Outcome{Inserted: true, Faulted: true, PoweredOff: true, Valid: true}
	case ses.StatusNotInstalled:
		return Outcome{PoweredOff: true, Valid: true}
	case ses.StatusUnavailable:
		return Outcome{Inserted: true, Faulted: true, PoweredOff: true, Supported: true, Valid: true}
	}
	return Outcome{Faulted: true, PoweredOff: true}
}

// DecodeCooling maps a cooling element status code.
func DecodeCooling(c ses.StatusCode) Outcome {
	switch c {
	case ses.StatusOK:
		return Outcome{Inserted: true, Valid: true}
	case ses.StatusCritical, ses.StatusNonCritical:
		return Outcome{Inserted: true, Faulted: true, Valid: true}
	case ses.StatusNotInstalled:
		return Outcome{PoweredOff: true, Valid: true}
	case ses.StatusUnknown:
		return Outcome{Inserted: true, Faulted: true, PoweredOff: true, Valid: true}
	}
	return Outcome{Faulted: true, PoweredOff: true}
}

// DecodeTempSensor maps a temperature sensor status code. A sensor that is
// not installed or not readable is reported powered off.
func DecodeTempSensor(c ses.StatusCode) Outcome {
	switch c {
	case ses.StatusOK:
		return Outcome{Inserted: true, Valid: true}
	case ses.StatusCritical:
		return Outcome{Inserted: true, Critical: true, Valid: true}
	case ses.StatusNonCritical:
		return Outcome{Inserted: true, Warning: true, Valid: true}
	case ses.StatusNotInstalled:
		return Outcome{Faulted: true, PoweredOff: true, Valid: true}
	case ses.StatusUnknown:
		return Outcome{Inserted: true, Faulted: true, Valid: true}
	}
	return Outcome{Faulted: true, PoweredOff: true}
}

// DecodeShared maps the status code of the enclosure, LCC, display,
// expander, standby power and system status card elements.
func DecodeShared(c ses.StatusCode) Outcome {
	switch c {
	case ses.StatusOK:
		return Outcome{Inserted: true, Valid: true}
	case ses.StatusCritical, ses.StatusNonCritical, ses.StatusUnrecover:
		return Outcome{Inserted: true, Faulted: true, Valid: true}
	case ses.StatusNotInstalled:
		return Outcome{Valid: true}
	}
	return Outcome{Faulted: true}
}
