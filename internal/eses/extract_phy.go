package eses

import (
	"fmt"
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

// extractExpanderPhy decodes the phys of the local expander. Phys reported
// by a peer LCC are left to that LCC's own status page.
func (e *Enclosure) extractExpanderPhy(p *pass, id int, recs []ses.Element) error {
	g := e.config.Groups[id]
	if g.SubenclosureID != ses.SubenclIDPrimary {
		return nil
	}
	for elem := 1; elem < len(recs); elem++ {
		st := recs[elem].ExpanderPhy()
		phy, ok := e.phyIndex(st.ExpanderIndex, st.PhyID)
		if !ok {
			e.log.Debug("no phy for status element", slog.Int("group", id), slog.Int("element", elem),
				slog.Int("expander", int(st.ExpanderIndex)), slog.Int("phy_id", int(st.PhyID)))
			continue
		}
		elemIndex := g.FirstElementIndex + uint8(elem) - 1
		if _, err := e.store.SetU8(edal.ExpanderPhy, phy, edal.ElemIndex, elemIndex); err != nil {
			return e.handleStoreError(edal.ExpanderPhy, phy, edal.ElemIndex.String(),
				fmt.Errorf("%w: %w", ErrMappingFailed, err))
		}

		o := DecodeExpanderPhy(st.Code)
		a := e.access(edal.ExpanderPhy, phy)
		if !writeValidity(a, o, st.Code) {
			if a.err != nil {
				return a.err
			}
			continue
		}
		a.setBool(edal.Disabled, o.Disabled)
		a.setBool(edal.Inserted, o.Inserted)
		if a.err != nil {
			return a.err
		}
		if slot, ok := e.slotForPhy(phy); ok {
			sa := e.access(edal.DriveSlot, slot)
			sa.setBool(edal.Bypassed, o.Bypassed)
			if sa.err != nil {
				return sa.err
			}
			sa.trace()
		}
		a.setBool(edal.LinkReady, st.LinkReady)
		a.setBool(edal.PhyReady, st.PhyReady)
		a.setBool(edal.ForceDisabled, st.ForceDisabled)
		a.setBool(edal.SpinupEnabled, st.SpinupEnabled)
		a.setBool(edal.SataSpinupHold, st.SataSpinupHold)
		a.setBool(edal.CarrierDetected, st.CarrierDetect)
		if a.err != nil {
			return a.err
		}
		if err := e.updatePhyDisableReason(phy); err != nil {
			e.log.Warn("phy disable reason update failed", slog.Int("phy", phy), slog.Any("error", err))
			return err
		}
		a.trace()
	}
	return nil
}
