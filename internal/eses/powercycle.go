package eses

import (
	"fmt"
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/lifecycle"
	"github.com/sigreer/esesgod/internal/ses"
)

// updatePowerCycleState completes a pending power cycle once the slot is
// seen powered back on. It must run before PoweredOff is overwritten.
func (e *Enclosure) updatePowerCycleState(idx int, devOff bool) error {
	pending, err := e.store.GetBool(edal.DriveSlot, idx, edal.PowerCyclePending)
	if err != nil {
		return fmt.Errorf("power cycle state: %w", err)
	}
	if !pending {
		return nil
	}
	wasOff, err := e.store.GetBool(edal.DriveSlot, idx, edal.PoweredOff)
	if err != nil {
		return fmt.Errorf("power cycle state: %w", err)
	}
	if !wasOff || devOff {
		return nil
	}
	return e.completePowerCycle(idx, "status")
}

func (e *Enclosure) completePowerCycle(idx int, source string) error {
	if _, err := e.store.SetBool(edal.DriveSlot, idx, edal.PowerCyclePending, false); err != nil {
		return fmt.Errorf("power cycle complete: %w", err)
	}
	if _, err := e.store.SetBool(edal.DriveSlot, idx, edal.PowerCycleCompleted, true); err != nil {
		return fmt.Errorf("power cycle complete: %w", err)
	}
	e.log.Info("drive power cycle completed", slog.Int("slot", idx), slog.String("source", source))
	return nil
}

// updatePowerCycleFromStats compares a slot's power-down counter with the
// one recorded when the cycle was issued. Any difference completes the
// cycle, so counter wraparound is tolerated.
func (e *Enclosure) updatePowerCycleFromStats(idx int, count uint8) error {
	get := func(a edal.Attribute) (bool, error) { return e.store.GetBool(edal.DriveSlot, idx, a) }

	write, err := get(edal.WriteData)
	if err != nil {
		return fmt.Errorf("power cycle stats: %w", err)
	}
	sent, err := get(edal.WriteDataSent)
	if err != nil {
		return fmt.Errorf("power cycle stats: %w", err)
	}
	if write && !sent {
		// command not sent yet: this is the baseline
		if _, err := e.store.SetU8(edal.DriveSlot, idx, edal.PowerDownCount, count); err != nil {
			return fmt.Errorf("power cycle stats: %w", err)
		}
		return nil
	}
	off, err := get(edal.PoweredOff)
	if err != nil {
		return fmt.Errorf("power cycle stats: %w", err)
	}
	if off {
		return nil
	}
	old, err := e.store.GetU8(edal.DriveSlot, idx, edal.PowerDownCount)
	if err != nil {
		return fmt.Errorf("power cycle stats: %w", err)
	}
	if old == count {
		return nil
	}
	if _, err := e.store.SetU8(edal.DriveSlot, idx, edal.PowerDownCount, count); err != nil {
		return fmt.Errorf("power cycle stats: %w", err)
	}
	return e.completePowerCycle(idx, "statistics")
}

// ProcessStatisticsPage feeds the slot power-down counters of page into
// the power cycle tracker.
func (e *Enclosure) ProcessStatisticsPage(page []byte) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	items, err := ParseStatisticsPage(page)
	if err != nil {
		return err
	}
	groups := e.config.Groups
	for _, it := range items {
		gid, overall, err := groups.GroupForOffset(it.ElementOffset)
		if err != nil || overall || groups[gid].ElementType != ses.ElemArrayDevSlot {
			continue
		}
		start, err := groups.ElementOffset(gid, 0)
		if err != nil {
			return err
		}
		idx, err := e.ComponentIndex(gid, it.ElementOffset-start)
		if err != nil {
			e.log.Debug("statistics slot not mapped", slog.Int("offset", int(it.ElementOffset)), slog.Any("error", err))
			continue
		}
		pending, err := e.store.GetBool(edal.DriveSlot, idx, edal.PowerCyclePending)
		if err != nil {
			return e.handleStoreError(edal.DriveSlot, idx, edal.PowerCyclePending.String(), err)
		}
		if !pending {
			continue
		}
		st, err := it.DriveSlot()
		if err != nil {
			return err
		}
		if err := e.updatePowerCycleFromStats(idx, st.PowerDownCount); err != nil {
			e.log.Warn("power cycle update from statistics failed", slog.Int("slot", idx), slog.Any("error", err))
			return err
		}
	}
	return nil
}

// RequestPowerCycle marks slot idx for a power cycle on the next control
// page write.
func (e *Enclosure) RequestPowerCycle(idx int) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()
	for _, a := range []struct {
		attr edal.Attribute
		v    bool
	}{
		{edal.PowerCyclePending, true},
		{edal.PowerCycleCompleted, false},
		{edal.WriteData, true},
		{edal.WriteDataSent, false},
	} {
		if _, err := e.store.SetBool(edal.DriveSlot, idx, a.attr, a.v); err != nil {
			return fmt.Errorf("request power cycle on slot %d: %w", idx, err)
		}
	}
	e.log.Info("drive power cycle requested", slog.Int("slot", idx))
	if err := e.raise(lifecycle.EmcSpecificControlNeeded, edal.DriveSlot, idx); err != nil {
		return err
	}
	return e.raise(lifecycle.StatisticsUnknown, edal.DriveSlot, idx)
}

// MarkPowerCycleSent records that the control page carrying the request
// went out.
func (e *Enclosure) MarkPowerCycleSent(idx int) error {
	if _, err := e.store.SetBool(edal.DriveSlot, idx, edal.WriteDataSent, true); err != nil {
		return fmt.Errorf("power cycle sent on slot %d: %w", idx, err)
	}
	return nil
}

// ResetPowerCyclePending drops every pending power cycle after an
// expander ride-through; the requester re-issues them.
func (e *Enclosure) ResetPowerCyclePending() error {
	e.passMu.Lock()
	defer e.passMu.Unlock()
	for idx := 0; idx < e.store.Count(edal.DriveSlot); idx++ {
		pending, err := e.store.GetBool(edal.DriveSlot, idx, edal.PowerCyclePending)
		if err != nil {
			return err
		}
		if !pending {
			continue
		}
		if _, err := e.store.SetBool(edal.DriveSlot, idx, edal.PowerCyclePending, false); err != nil {
			return err
		}
		if _, err := e.store.SetBool(edal.DriveSlot, idx, edal.WriteData, false); err != nil {
			return err
		}
		e.log.Info("pending power cycle dropped after ride-through", slog.Int("slot", idx))
	}
	return nil
}
