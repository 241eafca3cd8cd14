package eses

import (
	"fmt"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

// TempThreshold is the overall threshold record of a chassis temperature
// sensor group. Values are raw readings including ses.TempSensorOffset.
type TempThreshold struct {
	Group          int   `json:"group"`
	SubenclosureID uint8 `json:"subencl_id"`
	HighCritical   uint8 `json:"high_critical"`
	HighWarning    uint8 `json:"high_warning"`
	LowWarning     uint8 `json:"low_warning"`
	LowCritical    uint8 `json:"low_critical"`
}

// CollectThresholds reads the threshold-in page. Only temperature sensor
// groups owned by the chassis are reported.
func (e *Enclosure) CollectThresholds(page []byte) ([]TempThreshold, error) {
	if _, err := ses.ExpectPage(page, ses.PageThresholdIn); err != nil {
		return nil, err
	}
	groups := e.config.Groups
	var out []TempThreshold
	for id := groups.GroupForType(ses.ElemTempSensor, 0); id != ses.InvalidGroup; id = groups.GroupForType(ses.ElemTempSensor, id+1) {
		g := groups[id]
		_, ct, err := e.subenclComponent(g.SubenclosureID)
		if err != nil {
			return nil, fmt.Errorf("threshold group %d: %w", id, err)
		}
		if ct != edal.Enclosure {
			continue
		}
		rec, err := ses.ElementAt(page, int(g.ByteOffset))
		if err != nil {
			return nil, fmt.Errorf("threshold group %d: %w", id, err)
		}
		out = append(out, TempThreshold{
			Group:          id,
			SubenclosureID: g.SubenclosureID,
			HighCritical:   rec[0],
			HighWarning:    rec[1],
			LowWarning:     rec[2],
			LowCritical:    rec[3],
		})
	}
	return out, nil
}
