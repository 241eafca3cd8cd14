package eses

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

const (
	statsItemHdrLen = 2
	statsIdentLen   = 4
	valueInvalid    = 0xFF
)

// StatsItem is one variable-length record of the statistics page.
type StatsItem struct {
	ElementOffset uint8
	Payload       []byte
}

// Size is the item's size on the page.
func (it StatsItem) Size() int { return statsItemHdrLen + len(it.Payload) }

func (it StatsItem) bytes() []byte {
	out := make([]byte, 0, it.Size())
	out = append(out, it.ElementOffset, uint8(len(it.Payload)))
	return append(out, it.Payload...)
}

// ParseStatisticsPage splits the EMC statistics page into its items.
func ParseStatisticsPage(page []byte) ([]StatsItem, error) {
	h, err := ses.ExpectPage(page, ses.PageEmcStatistics)
	if err != nil {
		return nil, err
	}
	end := h.Size()
	var items []StatsItem
	for off := ses.PageHeaderLen; off < end; {
		if off+statsItemHdrLen > end {
			return nil, fmt.Errorf("%w: item header at %d", ses.ErrPageTooShort, off)
		}
		n := int(page[off+1])
		if off+statsItemHdrLen+n > end {
			return nil, fmt.Errorf("%w: item at %d claims %d bytes", ses.ErrPageTooShort, off, n)
		}
		items = append(items, StatsItem{
			ElementOffset: page[off],
			Payload:       page[off+statsItemHdrLen : off+statsItemHdrLen+n],
		})
		off += statsItemHdrLen + n
	}
	return items, nil
}

// StatsIdentity names the element a statistics entry belongs to. For a phy
// SlotOrID is the phy id and DrvOrConn/DrvOrConnNum name the attached
// drive slot or connector.
type StatsIdentity struct {
	ElementType  ses.ElementType `json:"element_type"`
	SlotOrID     uint8           `json:"slot_or_id"`
	DrvOrConn    ses.ElementType `json:"drv_or_conn"`
	DrvOrConnNum uint8           `json:"drv_or_conn_num"`
}

// StatsEntry is one identity plus item copied to the response buffer.
type StatsEntry struct {
	StatsIdentity
	Item StatsItem `json:"item"`
}

// Size is the entry's size in the response buffer.
func (en StatsEntry) Size() int { return statsIdentLen + en.Item.Size() }

// SelectMode picks which items CollectStatistics copies.
type SelectMode uint8

const (
	SelectAll SelectMode = iota
	SelectType
	SelectSlots
)

// Selection filters statistics items.
type Selection struct {
	Mode  SelectMode
	Type  ses.ElementType
	First uint8
	Last  uint8
}

// All selects every individual element.
func All() Selection { return Selection{Mode: SelectAll} }

// ByType selects every element of type t.
func ByType(t ses.ElementType) Selection { return Selection{Mode: SelectType, Type: t} }

// BySlot selects drive slots or phys whose slot number (phy id) is in
// [first, last].
func BySlot(t ses.ElementType, first, last uint8) Selection {
	return Selection{Mode: SelectSlots, Type: t, First: first, Last: last}
}

func statsTypeAllowed(t ses.ElementType) bool {
	switch t {
	case ses.ElemPowerSupply, ses.ElemCooling, ses.ElemTempSensor,
		ses.ElemExpanderPhy, ses.ElemArrayDevSlot, ses.ElemSASExpander:
		return true
	}
	return false
}

func (s Selection) validate() error {
	switch s.Mode {
	case SelectAll:
		return nil
	case SelectType:
		if !statsTypeAllowed(s.Type) {
			return fmt.Errorf("%w: no statistics for %s", ErrParameterInvalid, s.Type)
		}
		return nil
	case SelectSlots:
		if s.Type != ses.ElemArrayDevSlot && s.Type != ses.ElemExpanderPhy {
			return fmt.Errorf("%w: slot selection on %s", ErrIllegalRequest, s.Type)
		}
		if s.First > s.Last {
			return fmt.Errorf("%w: slot range %d-%d", ErrParameterInvalid, s.First, s.Last)
		}
		return nil
	}
	return fmt.Errorf("%w: selection mode %d", ErrParameterInvalid, s.Mode)
}

func (s Selection) match(id StatsIdentity) bool {
	switch s.Mode {
	case SelectType:
		return id.ElementType == s.Type
	case SelectSlots:
		return id.ElementType == s.Type && id.SlotOrID >= s.First && id.SlotOrID <= s.Last
	}
	return true
}

// StatsResult reports what CollectStatistics copied.
type StatsResult struct {
	Entries      []StatsEntry `json:"entries"`
	BytesCopied  int          `json:"bytes_copied"`
	RequiredSize int          `json:"required_size"`
	Truncated    bool         `json:"truncated"`
}

// CollectStatistics copies the selected items of page into buf as
// identity+item entries. Only whole entries are copied; once one does not
// fit nothing more is copied, but RequiredSize keeps counting so the
// caller can retry with a bigger buffer.
func (e *Enclosure) CollectStatistics(page []byte, sel Selection, buf []byte) (StatsResult, error) {
	var res StatsResult
	if err := sel.validate(); err != nil {
		return res, err
	}
	items, err := ParseStatisticsPage(page)
	if err != nil {
		return res, err
	}
	avail := len(buf)
	for _, it := range items {
		id, overall, err := e.statsIdentity(it.ElementOffset)
		if err != nil {
			e.log.Debug("statistics item not attributed",
				slog.Int("offset", int(it.ElementOffset)), slog.Any("error", err))
			continue
		}
		if overall || !sel.match(id) {
			continue
		}
		entry := StatsEntry{StatsIdentity: id, Item: it}
		size := entry.Size()
		res.RequiredSize += size
		if size > avail {
			avail = 0
			res.Truncated = true
			continue
		}
		off := res.BytesCopied
		buf[off] = uint8(id.ElementType)
		buf[off+1] = id.SlotOrID
		buf[off+2] = uint8(id.DrvOrConn)
		buf[off+3] = id.DrvOrConnNum
		copy(buf[off+statsIdentLen:], it.bytes())
		res.BytesCopied += size
		avail -= size
		res.Entries = append(res.Entries, entry)
	}
	if res.Truncated {
		e.log.Info("statistics response truncated",
			slog.Int("copied", res.BytesCopied), slog.Int("required", res.RequiredSize))
	}
	return res, nil
}

// statsIdentity resolves the element at offset off.
func (e *Enclosure) statsIdentity(off uint8) (StatsIdentity, bool, error) {
	id := StatsIdentity{
		ElementType:  ses.ElemInvalid,
		SlotOrID:     valueInvalid,
		DrvOrConn:    ses.ElemInvalid,
		DrvOrConnNum: valueInvalid,
	}
	groups := e.config.Groups
	gid, overall, err := groups.GroupForOffset(off)
	if err != nil {
		return id, false, err
	}
	id.ElementType = groups[gid].ElementType
	if overall {
		return id, true, nil
	}
	elemIndex, err := groups.ElementIndexForOffset(gid, off)
	if err != nil {
		return id, false, err
	}
	switch id.ElementType {
	case ses.ElemExpanderPhy:
		phy := e.store.FindFirstU8(edal.ElemIndex, edal.ExpanderPhy, 0, elemIndex)
		if phy == edal.NotFound {
			break
		}
		if pid, err := e.store.GetU8(edal.ExpanderPhy, phy, edal.PhyID); err == nil {
			id.SlotOrID = pid
		}
		if slot, ok := e.slotForPhy(phy); ok {
			id.DrvOrConn = ses.ElemArrayDevSlot
			id.DrvOrConnNum = uint8(slot)
		} else if conn, ok := e.connectorForPhy(phy); ok {
			id.DrvOrConn = ses.ElemSASConnector
			id.DrvOrConnNum = uint8(conn)
		}
	case ses.ElemArrayDevSlot:
		if slot := e.store.FindFirstU8(edal.ElemIndex, edal.DriveSlot, 0, elemIndex); slot != edal.NotFound {
			id.SlotOrID = uint8(slot)
		}
	default:
		id.SlotOrID = elemIndex
	}
	return id, false, nil
}

// ParseStatsResponse splits a response buffer filled by CollectStatistics.
func ParseStatsResponse(buf []byte) ([]StatsEntry, error) {
	var out []StatsEntry
	for off := 0; off < len(buf); {
		if off+statsIdentLen+statsItemHdrLen > len(buf) {
			return out, fmt.Errorf("%w: entry at %d", ses.ErrPageTooShort, off)
		}
		n := int(buf[off+statsIdentLen+1])
		end := off + statsIdentLen + statsItemHdrLen + n
		if end > len(buf) {
			return out, fmt.Errorf("%w: entry at %d claims %d bytes", ses.ErrPageTooShort, off, n)
		}
		out = append(out, StatsEntry{
			StatsIdentity: StatsIdentity{
				ElementType:  ses.ElementType(buf[off]),
				SlotOrID:     buf[off+1],
				DrvOrConn:    ses.ElementType(buf[off+2]),
				DrvOrConnNum: buf[off+3],
			},
			Item: StatsItem{
				ElementOffset: buf[off+statsIdentLen],
				Payload:       buf[off+statsIdentLen+statsItemHdrLen : end],
			},
		})
		off = end
	}
	return out, nil
}

// DriveSlotStats are the counters of an array device slot.
type DriveSlotStats struct {
	InsertCount    uint8 `json:"insert_count"`
	PowerDownCount uint8 `json:"power_down_count"`
}

// PhyStats are the counters of an expander phy.
type PhyStats struct {
	InvalidDword   uint32 `json:"invalid_dword"`
	DisparityError uint32 `json:"disparity_error"`
	LossDwordSync  uint32 `json:"loss_dword_sync"`
	PhyResetFail   uint32 `json:"phy_reset_fail"`
	CodeViolation  uint32 `json:"code_violation"`
	PhyChange      uint8  `json:"phy_change"`
	CRCPmonAccum   uint16 `json:"crc_pmon_accum"`
	InConnectCRC   uint16 `json:"in_connect_crc"`
}

// PowerSupplyStats are the counters of a power supply.
type PowerSupplyStats struct {
	DCOver  uint8 `json:"dc_over"`
	DCUnder uint8 `json:"dc_under"`
	Fail    uint8 `json:"fail"`
	OTFail  uint8 `json:"ot_fail"`
	ACFail  uint8 `json:"ac_fail"`
	DCFail  uint8 `json:"dc_fail"`
}

// CoolingStats are the counters of a cooling element.
type CoolingStats struct {
	Fail uint8 `json:"fail"`
}

// TempSensorStats are the counters of a temperature sensor.
type TempSensorStats struct {
	OTFail uint8 `json:"ot_fail"`
	OTWarn uint8 `json:"ot_warn"`
}

// ExpanderStats are the counters of a SAS expander.
type ExpanderStats struct {
	ExpChange uint16 `json:"exp_change"`
}

const (
	driveSlotStatsLen = 2
	phyStatsLen       = 26
	psStatsLen        = 6
	coolingStatsLen   = 1
	tempStatsLen      = 2
	expanderStatsLen  = 2
)

func (it StatsItem) need(n int, what string) error {
	if len(it.Payload) < n {
		return fmt.Errorf("%w: %s statistics need %d bytes, have %d", ses.ErrPageTooShort, what, n, len(it.Payload))
	}
	return nil
}

func (it StatsItem) DriveSlot() (DriveSlotStats, error) {
	if err := it.need(driveSlotStatsLen, "drive slot"); err != nil {
		return DriveSlotStats{}, err
	}
	return DriveSlotStats{InsertCount: it.Payload[0], PowerDownCount: it.Payload[1]}, nil
}

func (it StatsItem) Phy() (PhyStats, error) {
	if err := it.need(phyStatsLen, "phy"); err != nil {
		return PhyStats{}, err
	}
	p := it.Payload[1:] // reserved byte
	be := binary.BigEndian
	return PhyStats{
		InvalidDword:   be.Uint32(p[0:4]),
		DisparityError: be.Uint32(p[4:8]),
		LossDwordSync:  be.Uint32(p[8:12]),
		PhyResetFail:   be.Uint32(p[12:16]),
		CodeViolation:  be.Uint32(p[16:20]),
		PhyChange:      p[20],
		CRCPmonAccum:   be.Uint16(p[21:23]),
		InConnectCRC:   be.Uint16(p[23:25]),
	}, nil
}

func (it StatsItem) PowerSupply() (PowerSupplyStats, error) {
	if err := it.need(psStatsLen, "power supply"); err != nil {
		return PowerSupplyStats{}, err
	}
	p := it.Payload
	return PowerSupplyStats{DCOver: p[0], DCUnder: p[1], Fail: p[2], OTFail: p[3], ACFail: p[4], DCFail: p[5]}, nil
}

func (it StatsItem) Cooling() (CoolingStats, error) {
	if err := it.need(coolingStatsLen, "cooling"); err != nil {
		return CoolingStats{}, err
	}
	return CoolingStats{Fail: it.Payload[0]}, nil
}

func (it StatsItem) TempSensor() (TempSensorStats, error) {
	if err := it.need(tempStatsLen, "temperature"); err != nil {
		return TempSensorStats{}, err
	}
	return TempSensorStats{OTFail: it.Payload[0], OTWarn: it.Payload[1]}, nil
}

func (it StatsItem) Expander() (ExpanderStats, error) {
	if err := it.need(expanderStatsLen, "expander"); err != nil {
		return ExpanderStats{}, err
	}
	return ExpanderStats{ExpChange: binary.BigEndian.Uint16(it.Payload[0:2])}, nil
}

// Decode returns the typed view matching the entry's element type, or nil
// for types without one.
func (en StatsEntry) Decode() (any, error) {
	switch en.ElementType {
	case ses.ElemArrayDevSlot:
		return en.Item.DriveSlot()
	case ses.ElemExpanderPhy:
		return en.Item.Phy()
	case ses.ElemPowerSupply:
		return en.Item.PowerSupply()
	case ses.ElemCooling:
		return en.Item.Cooling()
	case ses.ElemTempSensor:
		return en.Item.TempSensor()
	case ses.ElemSASExpander:
		return en.Item.Expander()
	}
	return nil, nil
}
