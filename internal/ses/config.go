package ses

import (
	"fmt"
	"strings"
)

const (
	subenclDescHdrLen  = 4
	typeDescHdrLen     = 4
	subenclSideNone    = 0x1F
	subenclDescMinLen  = 42
	subenclSerialStart = 47
	subenclSerialEnd   = 63
)

// Configuration is the decoded configuration diagnostic page.
type Configuration struct {
	GenCode       uint32         `json:"gen_code"`
	Subenclosures []Subenclosure `json:"subenclosures"`
	Groups        GroupTable     `json:"groups"`
}

// Subenclosure returns the descriptor with the given id.
func (c *Configuration) Subenclosure(id uint8) (Subenclosure, bool) {
	for _, s := range c.Subenclosures {
		if s.ID == id {
			return s, true
		}
	}
	return Subenclosure{}, false
}

// ParseConfigPage decodes page 0x01 into subenclosure descriptors and the
// element group table.
func ParseConfigPage(buf []byte) (*Configuration, error) {
	h, err := ExpectPage(buf, PageConfiguration)
	if err != nil {
		return nil, err
	}
	page := buf[:h.Size()]
	cfg := &Configuration{GenCode: h.GenCode}

	numSubencl := int(h.Byte1) + 1
	off := PageHeaderLen
	numTypeHdrs := 0
	for i := 0; i < numSubencl; i++ {
		if off+subenclDescHdrLen > len(page) {
			return nil, fmt.Errorf("subenclosure %d: %w", i, ErrPageTooShort)
		}
		descLen := subenclDescHdrLen + int(page[off+3])
		if off+descLen > len(page) {
			return nil, fmt.Errorf("subenclosure %d: %w", i, ErrPageTooShort)
		}
		d := page[off : off+descLen]
		s := Subenclosure{
			ID:      d[1],
			NumType: d[2],
			Type:    SubenclInvalid,
			Side:    subenclSideNone,
		}
		if len(d) >= 36 {
			s.Vendor = asciiField(d[12:20])
			s.Product = asciiField(d[20:36])
		}
		if len(d) >= subenclDescMinLen {
			s.Type = SubenclosureType(d[40])
			s.Side = d[41] & 0x1F
		}
		if len(d) >= subenclSerialEnd {
			s.Serial = asciiField(d[subenclSerialStart:subenclSerialEnd])
		}
		numTypeHdrs += int(s.NumType)
		cfg.Subenclosures = append(cfg.Subenclosures, s)
		off += descLen
	}

	if off+numTypeHdrs*typeDescHdrLen > len(page) {
		return nil, fmt.Errorf("type descriptor headers: %w", ErrPageTooShort)
	}
	byteOffset := PageHeaderLen
	elemIndex := 0
	for i := 0; i < numTypeHdrs; i++ {
		th := page[off+i*typeDescHdrLen : off+(i+1)*typeDescHdrLen]
		g := ElementGroup{
			ElementType:         ElementType(th[0]),
			NumPossibleElements: th[1],
			SubenclosureID:      th[2],
			FirstElementIndex:   uint8(elemIndex),
			ByteOffset:          uint16(byteOffset),
		}
		cfg.Groups = append(cfg.Groups, g)
		byteOffset += ElementSize * (int(g.NumPossibleElements) + 1)
		elemIndex += int(g.NumPossibleElements)
	}
	return cfg, nil
}

func asciiField(b []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}
