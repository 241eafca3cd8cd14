// Package sestest builds raw diagnostic pages for tests and fixtures.
package sestest

import (
	"encoding/binary"

	"github.com/sigreer/esesgod/internal/ses"
)

// TypeHeader is one type descriptor header of a configuration page.
type TypeHeader struct {
	ElementType    ses.ElementType
	NumPossible    uint8
	SubenclosureID uint8
}

const subenclDescLen = 64

func pad(dst []byte, s string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, s)
}

// ConfigPage encodes a configuration page. subs[0] is the primary
// subenclosure; every TypeHeader is attributed to the subenclosure whose ID
// it names, in the order given.
func ConfigPage(genCode uint32, subs []ses.Subenclosure, hdrs []TypeHeader) []byte {
	counts := map[uint8]uint8{}
	for _, h := range hdrs {
		counts[h.SubenclosureID]++
	}
	body := []byte{}
	for _, s := range subs {
		d := make([]byte, subenclDescLen)
		d[1] = s.ID
		d[2] = counts[s.ID]
		d[3] = subenclDescLen - 4
		pad(d[12:20], s.Vendor)
		pad(d[20:36], s.Product)
		d[40] = uint8(s.Type)
		d[41] = s.Side & 0x1F
		pad(d[47:63], s.Serial)
		body = append(body, d...)
	}
	for _, h := range hdrs {
		body = append(body, uint8(h.ElementType), h.NumPossible, h.SubenclosureID, 0)
	}
	secondary := 0
	if len(subs) > 0 {
		secondary = len(subs) - 1
	}
	return withHeader(ses.PageConfiguration, uint8(secondary), genCode, body)
}

func withHeader(code, byte1 uint8, genCode uint32, body []byte) []byte {
	page := make([]byte, ses.PageHeaderLen+len(body))
	page[0] = code
	page[1] = byte1
	binary.BigEndian.PutUint16(page[2:4], uint16(len(page)-4))
	binary.BigEndian.PutUint32(page[4:8], genCode)
	copy(page[ses.PageHeaderLen:], body)
	return page
}

// StatusPage is a mutable status (or threshold) page laid out per a group table.
type StatusPage struct {
	groups ses.GroupTable
	buf    []byte
}

// NewStatusPage allocates a page with every record zeroed.
func NewStatusPage(groups ses.GroupTable, genCode uint32) *StatusPage {
	n := 0
	for _, g := range groups {
		n += int(g.NumPossibleElements) + 1
	}
	return &StatusPage{
		groups: groups,
		buf:    withHeader(ses.PageEnclosureStatus, 0, genCode, make([]byte, n*ses.ElementSize)),
	}
}

// Set writes record elem (0 = overall) of group id.
func (p *StatusPage) Set(id int, elem uint8, e ses.Element) *StatusPage {
	off := int(p.groups[id].ByteOffset) + int(elem)*ses.ElementSize
	copy(p.buf[off:off+ses.ElementSize], e[:])
	return p
}

// SetCode sets only the status code of record elem.
func (p *StatusPage) SetCode(id int, elem uint8, code ses.StatusCode) *StatusPage {
	off := int(p.groups[id].ByteOffset) + int(elem)*ses.ElementSize
	p.buf[off] = p.buf[off]&0xF0 | uint8(code)&0x0F
	return p
}

// Code overrides the page code, e.g. for the threshold-in page.
func (p *StatusPage) Code(code uint8) *StatusPage {
	p.buf[0] = code
	return p
}

// Bytes returns a copy of the page.
func (p *StatusPage) Bytes() []byte {
	out := make([]byte, len(p.buf))
	copy(out, p.buf)
	return out
}

// StatsItem is one variable-length item of the statistics page.
type StatsItem struct {
	ElementOffset uint8
	Payload       []byte
}

// StatisticsPage encodes an EMC statistics page.
func StatisticsPage(genCode uint32, items []StatsItem) []byte {
	body := []byte{}
	for _, it := range items {
		body = append(body, it.ElementOffset, uint8(len(it.Payload)))
		body = append(body, it.Payload...)
	}
	return withHeader(ses.PageEmcStatistics, 0, genCode, body)
}

// Rec builds a status element from its four bytes.
func Rec(b0, b1, b2, b3 byte) ses.Element {
	return ses.Element{b0, b1, b2, b3}
}
