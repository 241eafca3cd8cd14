package eses

import (
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

func (e *Enclosure) extractPowerSupply(p *pass, id int, recs []ses.Element) error {
	for elem := 0; elem < len(recs); elem++ {
		idx, ok, err := e.mapElement(edal.PowerSupply, id, uint8(elem))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		st := recs[elem].PowerSupply()
		o := DecodePowerSupply(st.Code)
		a := e.access(edal.PowerSupply, idx)
		if !writeValidity(a, o, st.Code) {
			if a.err != nil {
				return a.err
			}
			continue
		}
		if a.setBool(edal.Inserted, o.Inserted).Changed() && !o.Inserted {
			e.log.Info("power supply removed", slog.Int("index", idx))
			e.handleFupRemoval(edal.PowerSupply, idx)
		}
		a.setBool(edal.Faulted, o.Faulted)
		a.setBool(edal.PoweredOff, o.PoweredOff)
		a.setBool(edal.Supported, o.Supported)
		a.setBool(edal.AcFail, st.ACFail)
		if a.err != nil {
			return a.err
		}
		a.trace()
	}
	return nil
}

func (e *Enclosure) extractCooling(p *pass, id int, recs []ses.Element) error {
	for elem := 0; elem < len(recs); elem++ {
		idx, ok, err := e.mapElement(edal.Cooling, id, uint8(elem))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		st := recs[elem].Cooling()
		o := DecodeCooling(st.Code)
		a := e.access(edal.Cooling, idx)
		if !writeValidity(a, o, st.Code) {
			if a.err != nil {
				return a.err
			}
			continue
		}
		a.setBool(edal.Inserted, o.Inserted)
		a.setBool(edal.PoweredOff, o.PoweredOff)
		a.setBool(edal.Faulted, o.Faulted)
		if a.err != nil {
			return a.err
		}
		a.trace()
	}
	return nil
}

func (e *Enclosure) extractTempSensor(p *pass, id int, recs []ses.Element) error {
	for elem := 0; elem < len(recs); elem++ {
		idx, ok, err := e.mapElement(edal.TempSensor, id, uint8(elem))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		st := recs[elem].TempSensor()
		o := DecodeTempSensor(st.Code)
		a := e.access(edal.TempSensor, idx)
		if !writeValidity(a, o, st.Code) {
			if a.err != nil {
				return a.err
			}
			continue
		}
		a.setBool(edal.Inserted, o.Inserted)
		a.setBool(edal.PoweredOff, o.PoweredOff)
		a.setBool(edal.Faulted, o.Faulted)
		a.setBool(edal.OverTempWarning, st.OTWarning || o.Warning)
		a.setBool(edal.OverTempFailure, st.OTFailure || o.Critical)
		a.setU8(edal.Temperature, st.Temp)
		if o.Inserted && !o.Faulted && st.Temp > a.getU8(edal.MaxTemperature) {
			a.setU8(edal.MaxTemperature, st.Temp)
		}
		if a.err != nil {
			return a.err
		}
		a.trace()
	}
	return nil
}
