package eses

import (
	"fmt"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

// subenclComponent resolves a subenclosure id to its side and the component
// type that represents it.
func (e *Enclosure) subenclComponent(id uint8) (uint8, edal.ComponentType, error) {
	s, ok := e.config.Subenclosure(id)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown subenclosure %d", ErrMappingFailed, id)
	}
	side := s.Side
	if side == 0x1F {
		side = 0
	}
	switch s.Type {
	case ses.SubenclLCC:
		return side, edal.LCC, nil
	case ses.SubenclChassis:
		return side, edal.Enclosure, nil
	case ses.SubenclPowerSupply:
		return side, edal.PowerSupply, nil
	case ses.SubenclCooling:
		return side, edal.Cooling, nil
	case ses.SubenclUPS:
		return side, edal.SPS, nil
	}
	return 0, 0, fmt.Errorf("%w: subenclosure %d has type %s", ErrMappingFailed, id, s.Type)
}

// groupComponentType returns the component type decoded from group id, or
// false for element types the decoder does not keep.
func (e *Enclosure) groupComponentType(id int) (edal.ComponentType, bool, error) {
	g := e.config.Groups[id]
	switch g.ElementType {
	case ses.ElemPowerSupply:
		return edal.PowerSupply, true, nil
	case ses.ElemCooling:
		return edal.Cooling, true, nil
	case ses.ElemTempSensor:
		return edal.TempSensor, true, nil
	case ses.ElemArrayDevSlot:
		return edal.DriveSlot, true, nil
	case ses.ElemExpanderPhy:
		return edal.ExpanderPhy, true, nil
	case ses.ElemSASConnector:
		return edal.Connector, true, nil
	case ses.ElemSASExpander:
		return edal.Expander, true, nil
	case ses.ElemDisplay:
		return edal.Display, true, nil
	case ses.ElemUPS:
		return edal.SPS, true, nil
	case ses.ElemEscElectronic:
		return edal.SSC, true, nil
	case ses.ElemEnclosure:
		_, ct, err := e.subenclComponent(g.SubenclosureID)
		if err != nil {
			return 0, false, err
		}
		if ct != edal.LCC && ct != edal.Enclosure {
			return 0, false, fmt.Errorf("%w: enclosure element in %s subenclosure", ErrMappingFailed, ct)
		}
		return ct, true, nil
	}
	return 0, false, nil
}

// ComponentIndex maps record elem (0 = overall) of group id to the index of
// the component it describes. ErrEdalNotNeeded means the record is not
// kept; any other error is a mapping failure.
func (e *Enclosure) ComponentIndex(id int, elem uint8) (int, error) {
	groups := e.config.Groups
	if id < 0 || id >= len(groups) {
		return 0, fmt.Errorf("%w: %w: group %d", ErrMappingFailed, ses.ErrInvalidGroup, id)
	}
	g := groups[id]
	if elem > g.NumPossibleElements {
		return 0, fmt.Errorf("%w: element %d of group %d", ErrComponentUnsupported, elem, id)
	}
	side, subType, err := e.subenclComponent(g.SubenclosureID)
	if err != nil {
		return 0, err
	}
	p := e.profile
	n := int(elem)
	s := int(side)

	var ct edal.ComponentType
	idx := 0
	notNeeded := func() (int, error) { return 0, ErrEdalNotNeeded }

	switch g.ElementType {
	case ses.ElemPowerSupply:
		ct = edal.PowerSupply
		sub := p.psSubelements()
		switch {
		case p.PSOverallSaved && subType == edal.PowerSupply && n <= sub:
			idx = s*p.psPerSide() + n
		case p.PSOverallSaved, n == 0:
			return notNeeded()
		case subType == edal.PowerSupply && n <= sub:
			idx = s*sub + n - 1
		default:
			return notNeeded()
		}

	case ses.ElemEnclosure:
		switch {
		case n == 0:
			return notNeeded()
		case subType == edal.LCC && n == 1:
			ct = edal.LCC
			idx = e.store.FindFirstU8(edal.SubenclID, edal.LCC, 0, g.SubenclosureID)
			if idx == edal.NotFound {
				return notNeeded()
			}
		case subType == edal.Enclosure && n == 1:
			ct = edal.Enclosure
			idx = 0
		default:
			return notNeeded()
		}

	case ses.ElemCooling:
		ct = edal.Cooling
		base := p.PowerSupplies * p.CoolingPerPS
		switch {
		case subType == edal.PowerSupply && n < p.CoolingPerPS:
			idx = s*p.CoolingPerPS + n
		case subType == edal.Enclosure && n < p.CoolingOnChassis:
			idx = base + n
		case subType == edal.Cooling && n < elemsPerExternalCooling:
			idx = base + p.CoolingOnChassis + s*elemsPerExternalCooling + n
		case subType == edal.LCC && n < p.CoolingOnLCC:
			idx = base + p.CoolingOnChassis + p.ExternalCooling*elemsPerExternalCooling + n
		default:
			return notNeeded()
		}

	case ses.ElemTempSensor:
		ct = edal.TempSensor
		switch {
		case subType == edal.LCC && n < p.TempPerLCC:
			if p.LCCsWithTemp == 1 {
				idx = n
			} else {
				idx = s*p.TempPerLCC + n
			}
		case subType == edal.Enclosure && n < p.TempOnChassis:
			idx = p.LCCsWithTemp*p.TempPerLCC + n
		default:
			return notNeeded()
		}

	case ses.ElemDisplay:
		ct = edal.Display
		if n == 0 || g.SubenclosureID != ses.SubenclIDPrimary || subType != edal.LCC {
			return notNeeded()
		}
		nth := e.nthDisplayGroup(id)
		switch {
		case g.NumPossibleElements == elemsPerTwoDigitDisplay && n <= elemsPerTwoDigitDisplay && n <= p.DisplayChars:
			idx = nth*elemsPerTwoDigitDisplay + n - 1
		case g.NumPossibleElements == elemsPerOneDigitDisplay && n <= elemsPerOneDigitDisplay && n <= p.DisplayChars:
			idx = p.TwoDigitDisplays*elemsPerTwoDigitDisplay + nth*elemsPerOneDigitDisplay + n - 1
		default:
			return notNeeded()
		}

	case ses.ElemSASExpander:
		ct = edal.Expander
		if n == 0 || subType != edal.LCC || n > p.ExpandersPerLCC {
			return notNeeded()
		}
		idx = s*p.ExpandersPerLCC + n - 1

	case ses.ElemSASConnector:
		ct = edal.Connector
		if n == 0 || subType != edal.LCC || n > p.ConnectorsPerLCC {
			return notNeeded()
		}
		idx = s*p.ConnectorsPerLCC + n - 1

	case ses.ElemArrayDevSlot:
		ct = edal.DriveSlot
		if n == 0 {
			return notNeeded()
		}
		if n-1 >= p.Slots {
			return 0, fmt.Errorf("%w: slot element %d beyond %d slots", ErrComponentUnsupported, n, p.Slots)
		}
		idx = n - 1

	case ses.ElemExpanderPhy:
		ct = edal.ExpanderPhy
		if n == 0 {
			return notNeeded()
		}
		elemIndex := g.FirstElementIndex + elem - 1
		idx = e.store.FindFirstU8(edal.ElemIndex, edal.ExpanderPhy, 0, elemIndex)
		if idx == edal.NotFound {
			return 0, fmt.Errorf("%w: no phy with element index %d", ErrMappingFailed, elemIndex)
		}

	case ses.ElemUPS:
		ct = edal.SPS
		if n == 0 {
			return notNeeded()
		}
		idx = n - 1

	case ses.ElemEscElectronic:
		ct = edal.SSC
		if subType != edal.Enclosure || n != 1 {
			return notNeeded()
		}
		idx = 0

	default:
		return notNeeded()
	}

	if idx < 0 || idx >= e.store.Count(ct) {
		return 0, fmt.Errorf("%w: %s index %d out of %d (group %d, element %d)",
			ErrMappingFailed, ct, idx, e.store.Count(ct), id, elem)
	}
	return idx, nil
}

// nthDisplayGroup counts earlier display groups with the same number of
// possible elements.
func (e *Enclosure) nthDisplayGroup(id int) int {
	groups := e.config.Groups
	n := 0
	for i := 0; i < id; i++ {
		if groups[i].ElementType == ses.ElemDisplay &&
			groups[i].NumPossibleElements == groups[id].NumPossibleElements {
			n++
		}
	}
	return n
}

// componentForOffset maps a page element offset to its component.
func (e *Enclosure) componentForOffset(off uint8) (edal.ComponentType, int, error) {
	groups := e.config.Groups
	id, _, err := groups.GroupForOffset(off)
	if err != nil {
		return 0, 0, err
	}
	start, err := groups.ElementOffset(id, 0)
	if err != nil {
		return 0, 0, err
	}
	ct, ok, err := e.groupComponentType(id)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, ErrEdalNotNeeded
	}
	idx, err := e.ComponentIndex(id, off-start)
	return ct, idx, err
}

// phyIndex finds the phy with the given owning expander element index and
// phy id.
func (e *Enclosure) phyIndex(expElemIndex, phyID uint8) (int, bool) {
	for i := e.store.FindFirstU8(edal.ExpElemIndex, edal.ExpanderPhy, 0, expElemIndex); i != edal.NotFound; i = e.store.FindFirstU8(edal.ExpElemIndex, edal.ExpanderPhy, i+1, expElemIndex) {
		if id, err := e.store.GetU8(edal.ExpanderPhy, i, edal.PhyID); err == nil && id == phyID {
			return i, true
		}
	}
	return 0, false
}

// slotForPhy returns the drive slot attached to phy, if any.
func (e *Enclosure) slotForPhy(phy int) (int, bool) {
	if phy < 0 || phy > 0xFF {
		return 0, false
	}
	i := e.store.FindFirstU8(edal.DrivePhyIndex, edal.DriveSlot, 0, uint8(phy))
	return i, i != edal.NotFound
}

// connectorForPhy returns the connector attached to phy, if any.
func (e *Enclosure) connectorForPhy(phy int) (int, bool) {
	if phy < 0 || phy > 0xFF {
		return 0, false
	}
	i := e.store.FindFirstU8(edal.ConnectorPhyIndex, edal.Connector, 0, uint8(phy))
	return i, i != edal.NotFound
}
