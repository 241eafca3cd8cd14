package eses

import (
	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/lifecycle"
	"github.com/sigreer/esesgod/internal/ses"
)

func (e *Enclosure) extractConnector(p *pass, id int, recs []ses.Element) error {
	linkChanged := false
	for elem := 0; elem < len(recs); elem++ {
		idx, ok, err := e.mapElement(edal.Connector, id, uint8(elem))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		st := recs[elem].Connector()
		a := e.access(edal.Connector, idx)

		if st.Swap && a.setBool(edal.ClearSwap, true).Changed() {
			if err := e.raise(lifecycle.EmcSpecificStatusUnknown, edal.Connector, idx); err != nil {
				return err
			}
			a.setBool(edal.WriteData, true)
			if a.err != nil {
				return a.err
			}
			if err := e.raise(lifecycle.ExpanderControlNeeded, edal.Connector, idx); err != nil {
				return err
			}
		}
		if a.err != nil {
			return a.err
		}

		o := DecodeConnector(st.Code)
		if !writeValidity(a, o, st.Code) {
			if a.err != nil {
				return a.err
			}
			continue
		}
		a.setBool(edal.FaultLED, st.Fail)
		a.setBool(edal.Marked, st.Ident)
		if a.setBool(edal.ConnectorDisabled, o.Disabled).Changed() {
			linkChanged = true
		}

		// a read failure here leaves the connector unmasked
		masked, _ := e.store.GetBool(edal.Connector, idx, edal.InsertMasked)
		inserted := o.Inserted && !masked
		insChanged := a.setBool(edal.Inserted, inserted).Changed()
		if insChanged {
			linkChanged = true
		}
		degraded := o.Degraded
		if degraded && insChanged && inserted {
			// a freshly cabled link reports degraded until it trains
			degraded = false
		}
		a.setBool(edal.Degraded, degraded)
		a.setBool(edal.Faulted, o.Faulted)
		a.setU8(edal.ConnectorType, st.ConnType)
		if a.err != nil {
			return a.err
		}
		a.trace()
	}
	if linkChanged {
		return e.raise(lifecycle.EmcSpecificStatusUnknown, edal.Connector, 0)
	}
	return nil
}
