package eses

import (
	"fmt"
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

func (e *Enclosure) extractDriveSlot(p *pass, id int, recs []ses.Element) error {
	var insChanges uint64
	for elem := 1; elem < len(recs); elem++ {
		idx, ok, err := e.mapElement(edal.DriveSlot, id, uint8(elem))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		st := recs[elem].DriveSlot()
		o := DecodeDriveSlot(st.Code)
		a := e.access(edal.DriveSlot, idx)
		if !writeValidity(a, o, st.Code) {
			if a.err != nil {
				return a.err
			}
			continue
		}

		inserted := o.Inserted
		if a.getBool(edal.InsertMasked) {
			inserted = false
		}
		if a.setBool(edal.Inserted, inserted).Changed() && idx < 64 {
			insChanges |= 1 << uint(idx)
		}
		a.setBool(edal.Faulted, o.Faulted)
		if a.err != nil {
			return a.err
		}

		if err := e.updatePowerCycleState(idx, st.DevOff); err != nil {
			e.log.Warn("power cycle update failed", slog.Int("slot", idx), slog.Any("error", err))
			return err
		}
		a.setBool(edal.PoweredOff, st.DevOff)
		a.setBool(edal.FaultLED, st.FaultRequested || st.FaultSensed)
		a.setBool(edal.Marked, st.Ident)
		if a.err != nil {
			return a.err
		}

		if err := e.reconcileUserPowerControl(idx); err != nil {
			e.log.Warn("user power control update failed", slog.Int("slot", idx), slog.Any("error", err))
			return err
		}
		if err := e.updateDeviceOffReason(idx); err != nil {
			e.log.Warn("device off reason update failed", slog.Int("slot", idx), slog.Any("error", err))
			return err
		}
		a.trace()
	}
	if insChanges != 0 {
		p.res.InsertChanges |= insChanges
		e.log.Info("drive slots inserted or removed", slog.Int("group", id),
			slog.String("mask", fmt.Sprintf("%#x", insChanges)))
	}
	return nil
}

// reconcileUserPowerControl clears a user power request once the slot
// reaches the requested state.
func (e *Enclosure) reconcileUserPowerControl(idx int) error {
	req, err := e.store.GetBool(edal.DriveSlot, idx, edal.UserReqPowerCntl)
	if err != nil || !req {
		return err
	}
	off, err := e.store.GetBool(edal.DriveSlot, idx, edal.PoweredOff)
	if err != nil {
		return err
	}
	want, err := e.store.GetBool(edal.DriveSlot, idx, edal.DeviceOffDesired)
	if err != nil {
		return err
	}
	if off != want {
		return nil
	}
	if _, err := e.store.SetBool(edal.DriveSlot, idx, edal.UserReqPowerCntl, false); err != nil {
		return err
	}
	e.log.Info("user requested power control satisfied", slog.Int("slot", idx), slog.Bool("powered_off", off))
	return nil
}
