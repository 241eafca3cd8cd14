package eses

import (
	"fmt"
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

// LCCTopology places one LCC.
type LCCTopology struct {
	SubenclosureID uint8 `yaml:"subencl_id" json:"subencl_id"`
	Side           uint8 `yaml:"side" json:"side"`
}

// PhyTopology places one expander phy.
type PhyTopology struct {
	ExpanderElemIndex uint8 `yaml:"expander_elem_index" json:"expander_elem_index"`
	PhyID             uint8 `yaml:"phy_id" json:"phy_id"`
	ElemIndex         uint8 `yaml:"elem_index" json:"elem_index"`
}

// SlotTopology attaches a drive slot to a phy.
type SlotTopology struct {
	SlotNumber uint8 `yaml:"slot_number" json:"slot_number"`
	PhyIndex   uint8 `yaml:"phy_index" json:"phy_index"`
	ElemIndex  uint8 `yaml:"elem_index" json:"elem_index"`
}

// ConnectorTopology attaches a connector to a phy.
type ConnectorTopology struct {
	ID       uint8 `yaml:"id" json:"id"`
	PhyIndex uint8 `yaml:"phy_index" json:"phy_index"`
}

// Topology is what discovery learns before the first status page: who
// owns which phy and where each LCC sits. Slice positions are component
// indices.
type Topology struct {
	LCCs             []LCCTopology       `yaml:"lccs" json:"lccs"`
	Phys             []PhyTopology       `yaml:"phys" json:"phys"`
	Slots            []SlotTopology      `yaml:"slots" json:"slots"`
	Connectors       []ConnectorTopology `yaml:"connectors" json:"connectors"`
	ConnectorDisable []uint8             `yaml:"connector_disable" json:"connector_disable,omitempty"`
}

// DefaultTopology derives a topology from the configuration page: LCCs in
// side order, the local expander's phys numbered from zero, drive slots on
// the first phys and connectors on the phys after them.
func DefaultTopology(cfg *ses.Configuration, p Profile) Topology {
	var t Topology
	for _, s := range cfg.Subenclosures {
		if s.Type == ses.SubenclLCC && len(t.LCCs) < p.LCCs {
			t.LCCs = append(t.LCCs, LCCTopology{SubenclosureID: s.ID, Side: s.Side})
		}
	}

	expIndex := ses.ElemIndexNone
	for id := cfg.Groups.GroupForType(ses.ElemSASExpander, 0); id != ses.InvalidGroup; id = cfg.Groups.GroupForType(ses.ElemSASExpander, id+1) {
		if cfg.Groups[id].SubenclosureID == ses.SubenclIDPrimary && cfg.Groups[id].NumPossibleElements > 0 {
			expIndex = cfg.Groups[id].FirstElementIndex
			break
		}
	}
	phyElems := groupElemIndices(cfg.Groups, ses.ElemExpanderPhy, true)
	for i := 0; i < p.Phys; i++ {
		pt := PhyTopology{ExpanderElemIndex: expIndex, PhyID: uint8(i), ElemIndex: ses.ElemIndexNone}
		if i < len(phyElems) {
			pt.ElemIndex = phyElems[i]
		}
		t.Phys = append(t.Phys, pt)
	}

	slotElems := groupElemIndices(cfg.Groups, ses.ElemArrayDevSlot, false)
	for i := 0; i < p.Slots; i++ {
		st := SlotTopology{SlotNumber: uint8(i), PhyIndex: ses.ElemIndexNone, ElemIndex: ses.ElemIndexNone}
		if i < p.Phys {
			st.PhyIndex = uint8(i)
		}
		if i < len(slotElems) {
			st.ElemIndex = slotElems[i]
		}
		t.Slots = append(t.Slots, st)
	}

	for i := 0; i < p.LCCs*p.ConnectorsPerLCC; i++ {
		ct := ConnectorTopology{ID: uint8(i), PhyIndex: ses.ElemIndexNone}
		// only the local LCC's connectors are cabled to local phys
		if i < p.ConnectorsPerLCC && p.Slots+i < p.Phys {
			ct.PhyIndex = uint8(p.Slots + i)
		}
		t.Connectors = append(t.Connectors, ct)
	}
	return t
}

func groupElemIndices(groups ses.GroupTable, t ses.ElementType, primaryOnly bool) []uint8 {
	var out []uint8
	for id := groups.GroupForType(t, 0); id != ses.InvalidGroup; id = groups.GroupForType(t, id+1) {
		g := groups[id]
		if primaryOnly && g.SubenclosureID != ses.SubenclIDPrimary {
			continue
		}
		for n := uint8(0); n < g.NumPossibleElements; n++ {
			out = append(out, g.FirstElementIndex+n)
		}
	}
	return out
}

// Seed writes the topology into the attribute store. Entries beyond the
// profile's component counts are an error.
func (e *Enclosure) Seed(t Topology) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	var err error
	setU8 := func(c edal.ComponentType, idx int, a edal.Attribute, v uint8) {
		if err == nil {
			if _, serr := e.store.SetU8(c, idx, a, v); serr != nil {
				err = fmt.Errorf("seed %s %d: %w", c, idx, serr)
			}
		}
	}

	for i, l := range t.LCCs {
		setU8(edal.LCC, i, edal.SubenclID, l.SubenclosureID)
		setU8(edal.LCC, i, edal.Side, l.Side)
	}
	for i, ph := range t.Phys {
		setU8(edal.ExpanderPhy, i, edal.ExpElemIndex, ph.ExpanderElemIndex)
		setU8(edal.ExpanderPhy, i, edal.PhyID, ph.PhyID)
		setU8(edal.ExpanderPhy, i, edal.ElemIndex, ph.ElemIndex)
	}
	for i, s := range t.Slots {
		setU8(edal.DriveSlot, i, edal.SlotNumber, s.SlotNumber)
		setU8(edal.DriveSlot, i, edal.DrivePhyIndex, s.PhyIndex)
		setU8(edal.DriveSlot, i, edal.ElemIndex, s.ElemIndex)
	}
	for i, c := range t.Connectors {
		setU8(edal.Connector, i, edal.ConnectorID, c.ID)
		setU8(edal.Connector, i, edal.ConnectorPhyIndex, c.PhyIndex)
	}
	if err != nil {
		return err
	}
	e.SetConnectorDisableList(t.ConnectorDisable)
	e.log.Debug("topology seeded", slog.Int("lccs", len(t.LCCs)), slog.Int("phys", len(t.Phys)),
		slog.Int("slots", len(t.Slots)), slog.Int("connectors", len(t.Connectors)))
	return nil
}
