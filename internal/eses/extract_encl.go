package eses

import (
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/lifecycle"
	"github.com/sigreer/esesgod/internal/ses"
)

// extractEnclosure decodes enclosure elements, which describe either an
// LCC or the chassis depending on the owning subenclosure.
func (e *Enclosure) extractEnclosure(p *pass, id int, recs []ses.Element) error {
	ct, _, err := e.groupComponentType(id)
	if err != nil {
		return e.handleStoreError(edal.Enclosure, 0, "enclosure group type", err)
	}
	chassisCritical := false
	for elem := 0; elem < len(recs); elem++ {
		idx, ok, err := e.mapElement(ct, id, uint8(elem))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		st := recs[elem].Enclosure()
		o := DecodeShared(st.Code)
		a := e.access(ct, idx)
		if !writeValidity(a, o, st.Code) {
			if a.err != nil {
				return a.err
			}
			continue
		}
		if a.setBool(edal.Inserted, o.Inserted).Changed() && !o.Inserted && ct == edal.LCC {
			e.log.Info("lcc removed", slog.Int("index", idx))
			e.handleFupRemoval(edal.LCC, idx)
		}
		faulted := o.Faulted
		if ct == edal.LCC {
			faulted = e.debounceLCCFault(a, o.Faulted)
		}
		a.setBool(edal.Faulted, faulted)
		a.setBool(edal.FaultLED, st.FailureIndication)
		a.setBool(edal.Marked, st.Ident)
		if a.err != nil {
			return a.err
		}
		if ct == edal.Enclosure && st.Code == ses.StatusCritical {
			chassisCritical = true
		}
		a.trace()
	}
	if chassisCritical {
		// re-read the shutdown reason
		return e.raise(lifecycle.EmcSpecificStatusUnknown, edal.Enclosure, 0)
	}
	return nil
}

func (e *Enclosure) extractDisplay(p *pass, id int, recs []ses.Element) error {
	for elem := 0; elem < len(recs); elem++ {
		idx, ok, err := e.mapElement(edal.Display, id, uint8(elem))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		st := recs[elem].Display()
		o := DecodeShared(st.Code)
		a := e.access(edal.Display, idx)
		if !writeValidity(a, o, st.Code) {
			if a.err != nil {
				return a.err
			}
			continue
		}
		a.setBool(edal.Inserted, o.Inserted)
		a.setBool(edal.Faulted, o.Faulted)
		a.setU8(edal.DisplayModeStatus, st.ModeStatus)
		a.setU8(edal.DisplayCharStatus, st.CharStatus)
		a.setBool(edal.Marked, st.Ident)

		want := a.getU8(edal.DisplayChar)
		switch {
		case a.err != nil:
		case want != 0 && want != st.CharStatus:
			a.setU8(edal.DisplayChar, want)
			a.setU8(edal.DisplayMode, ses.DisplayModeChar)
			a.setBool(edal.WriteData, true)
			if a.err != nil {
				return a.err
			}
			if err := e.raise(lifecycle.ExpanderControlNeeded, edal.Display, idx); err != nil {
				return err
			}
		case want == 0 && st.CharStatus != 0:
			a.setU8(edal.DisplayChar, st.CharStatus)
		}
		if a.err != nil {
			return a.err
		}
		a.trace()
	}
	return nil
}

// extractShared decodes the expander, standby power and ESC electronics
// elements.
func (e *Enclosure) extractShared(p *pass, id int, recs []ses.Element) error {
	ct, keep, err := e.groupComponentType(id)
	if err != nil {
		return e.handleStoreError(edal.Enclosure, 0, "group type", err)
	}
	if !keep {
		return nil
	}
	for elem := 0; elem < len(recs); elem++ {
		idx, ok, err := e.mapElement(ct, id, uint8(elem))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		code := recs[elem].Code()
		o := DecodeShared(code)
		a := e.access(ct, idx)
		if !writeValidity(a, o, code) {
			if a.err != nil {
				return a.err
			}
			continue
		}
		a.setBool(edal.Inserted, o.Inserted)
		a.setBool(edal.Faulted, o.Faulted)
		if a.err != nil {
			return a.err
		}
		a.trace()
	}
	return nil
}
