package eses

import (
	"fmt"
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

// DeviceOffReason explains why a drive slot is powered off.
type DeviceOffReason uint8

const (
	DeviceOffInvalid DeviceOffReason = iota
	DeviceOffPoweredOn
	DeviceOffHardware
	DeviceOffPersistent
	DeviceOffNonPersistent
	DeviceOffPowerSave
	DeviceOffPowerSavePassive
)

func (r DeviceOffReason) String() string {
	switch r {
	case DeviceOffPoweredOn:
		return "powered_on"
	case DeviceOffHardware:
		return "hardware"
	case DeviceOffPersistent:
		return "persistent"
	case DeviceOffNonPersistent:
		return "non_persistent"
	case DeviceOffPowerSave:
		return "power_save"
	case DeviceOffPowerSavePassive:
		return "power_save_passive"
	}
	return "invalid"
}

// DeviceOffInput is what the device-off reason depends on.
type DeviceOffInput struct {
	PoweredOff bool
	Code       ses.StatusCode
	Inserted   bool
	FirstRead  bool // a status page has been decoded before
	Current    DeviceOffReason
}

// DeviceOffReasonFor computes the next device-off reason.
func DeviceOffReasonFor(in DeviceOffInput) DeviceOffReason {
	if !in.PoweredOff {
		if in.Current == DeviceOffPowerSave || in.Current == DeviceOffPowerSavePassive {
			return in.Current
		}
		return DeviceOffPoweredOn
	}
	switch {
	case in.Code == ses.StatusUnrecover:
		return DeviceOffHardware
	case !in.Inserted || !in.FirstRead:
		return DeviceOffNonPersistent
	case in.Current == DeviceOffInvalid || in.Current == DeviceOffPoweredOn:
		return DeviceOffPersistent
	}
	return in.Current
}

// PhyDisableReason explains why an expander phy is disabled.
type PhyDisableReason uint8

const (
	PhyDisableInvalid PhyDisableReason = iota
	PhyDisableEnabled
	PhyDisableHardware
	PhyDisablePersistent
	PhyDisableNonPersistent
)

func (r PhyDisableReason) String() string {
	switch r {
	case PhyDisableEnabled:
		return "enabled"
	case PhyDisableHardware:
		return "hardware"
	case PhyDisablePersistent:
		return "persistent"
	case PhyDisableNonPersistent:
		return "non_persistent"
	}
	return "invalid"
}

// PhyDisableInput is what the phy disable reason depends on. The
// component fields describe the drive or connector behind the phy.
type PhyDisableInput struct {
	Disabled         bool
	ForceDisabled    bool
	Code             ses.StatusCode
	InDisableList    bool
	FirstRead        bool
	CompInserted     bool
	CompInsertMasked bool
	Current          PhyDisableReason
}

// PhyDisableReasonFor computes the next phy disable reason.
func PhyDisableReasonFor(in PhyDisableInput) PhyDisableReason {
	if !in.Disabled {
		return PhyDisableEnabled
	}
	switch {
	case in.ForceDisabled || in.Code == ses.StatusCritical || in.Code == ses.StatusUnrecover:
		return PhyDisableHardware
	case in.InDisableList:
		return PhyDisablePersistent
	case !in.FirstRead:
		return PhyDisableNonPersistent
	case !in.CompInserted && !in.CompInsertMasked:
		return PhyDisableNonPersistent
	case in.Current == PhyDisableInvalid || in.Current == PhyDisableEnabled:
		return PhyDisablePersistent
	}
	return in.Current
}

// updateDeviceOffReason recomputes the reason stored on slot idx.
func (e *Enclosure) updateDeviceOffReason(idx int) error {
	first, err := e.firstStatusReadCompleted()
	if err != nil {
		return fmt.Errorf("device off reason: %w", err)
	}
	in := DeviceOffInput{FirstRead: first}
	get := func(a edal.Attribute) bool {
		if err != nil {
			return false
		}
		var v bool
		v, err = e.store.GetBool(edal.DriveSlot, idx, a)
		return v
	}
	in.PoweredOff = get(edal.PoweredOff)
	in.Inserted = get(edal.Inserted)
	if err != nil {
		return fmt.Errorf("device off reason: %w", err)
	}
	code, err := e.store.GetU8(edal.DriveSlot, idx, edal.AddlStatus)
	if err != nil {
		return fmt.Errorf("device off reason: %w", err)
	}
	cur, err := e.store.GetU8(edal.DriveSlot, idx, edal.DeviceOffReason)
	if err != nil {
		return fmt.Errorf("device off reason: %w", err)
	}
	in.Code = ses.StatusCode(code)
	in.Current = DeviceOffReason(cur)

	next := DeviceOffReasonFor(in)
	st, err := e.store.SetU8(edal.DriveSlot, idx, edal.DeviceOffReason, uint8(next))
	if err != nil {
		return fmt.Errorf("device off reason: %w", err)
	}
	if st.Changed() {
		e.log.Debug("device off reason changed", slog.Int("slot", idx),
			slog.String("from", in.Current.String()), slog.String("to", next.String()))
	}
	return nil
}

// updatePhyDisableReason recomputes the reason stored on phy idx.
func (e *Enclosure) updatePhyDisableReason(idx int) error {
	first, err := e.firstStatusReadCompleted()
	if err != nil {
		return fmt.Errorf("phy disable reason: %w", err)
	}
	in := PhyDisableInput{FirstRead: first}
	if in.Disabled, err = e.store.GetBool(edal.ExpanderPhy, idx, edal.Disabled); err != nil {
		return fmt.Errorf("phy disable reason: %w", err)
	}
	if in.ForceDisabled, err = e.store.GetBool(edal.ExpanderPhy, idx, edal.ForceDisabled); err != nil {
		return fmt.Errorf("phy disable reason: %w", err)
	}
	code, err := e.store.GetU8(edal.ExpanderPhy, idx, edal.AddlStatus)
	if err != nil {
		return fmt.Errorf("phy disable reason: %w", err)
	}
	cur, err := e.store.GetU8(edal.ExpanderPhy, idx, edal.DisableReason)
	if err != nil {
		return fmt.Errorf("phy disable reason: %w", err)
	}
	in.Code = ses.StatusCode(code)
	in.Current = PhyDisableReason(cur)

	var comp edal.ComponentType
	compIdx, found := e.slotForPhy(idx)
	if found {
		comp = edal.DriveSlot
	} else if compIdx, found = e.connectorForPhy(idx); found {
		comp = edal.Connector
		id, err := e.store.GetU8(edal.Connector, compIdx, edal.ConnectorID)
		if err != nil {
			return fmt.Errorf("phy disable reason: %w", err)
		}
		e.mu.Lock()
		in.InDisableList = e.connectorDisable[id]
		e.mu.Unlock()
	}
	if found {
		if in.CompInserted, err = e.store.GetBool(comp, compIdx, edal.Inserted); err != nil {
			return fmt.Errorf("phy disable reason: %w", err)
		}
		if in.CompInsertMasked, err = e.store.GetBool(comp, compIdx, edal.InsertMasked); err != nil {
			return fmt.Errorf("phy disable reason: %w", err)
		}
	}

	next := PhyDisableReasonFor(in)
	st, err := e.store.SetU8(edal.ExpanderPhy, idx, edal.DisableReason, uint8(next))
	if err != nil {
		return fmt.Errorf("phy disable reason: %w", err)
	}
	if st.Changed() {
		e.log.Debug("phy disable reason changed", slog.Int("phy", idx),
			slog.String("from", in.Current.String()), slog.String("to", next.String()))
	}
	return nil
}

// SetConnectorDisableList replaces the connectors that are disabled on
// purpose.
func (e *Enclosure) SetConnectorDisableList(ids []uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connectorDisable = make(map[uint8]bool, len(ids))
	for _, id := range ids {
		e.connectorDisable[id] = true
	}
}
