package ses

import "fmt"

// ElementGroup describes one type descriptor header of the configuration
// page: a run of one overall element followed by NumPossibleElements
// individual elements of the same type, owned by one subenclosure.
type ElementGroup struct {
	ElementType         ElementType `json:"element_type"`
	SubenclosureID      uint8       `json:"subencl_id"`
	FirstElementIndex   uint8       `json:"first_elem_index"`
	NumPossibleElements uint8       `json:"num_possible_elems"`
	ByteOffset          uint16      `json:"byte_offset"` // of the overall element in the status page
}

// GroupTable is built once from the configuration page and never modified.
//
// Element offsets count every record in page order, overall elements
// included:
//
//	group 0  offset 0  overall
//	         offset 1  element index 0
//	         offset 2  element index 1
//	group 1  offset 3  overall
//	         offset 4  element index 2
type GroupTable []ElementGroup

// GroupForOffset returns the group holding element offset off, and whether
// off addresses that group's overall element.
func (gt GroupTable) GroupForOffset(off uint8) (int, bool, error) {
	acc := 0
	for id, g := range gt {
		end := acc + int(g.NumPossibleElements) + 1
		if int(off) < end {
			return id, int(off) == acc, nil
		}
		acc = end
	}
	return InvalidGroup, false, fmt.Errorf("%w: offset %d", ErrOffsetOutOfRange, off)
}

// GroupForType returns the first group at or after start whose element
// type is t, or InvalidGroup.
func (gt GroupTable) GroupForType(t ElementType, start int) int {
	if start < 0 {
		start = 0
	}
	for id := start; id < len(gt); id++ {
		if gt[id].ElementType == t {
			return id
		}
	}
	return InvalidGroup
}

// ElementIndexForOffset converts an individual element offset inside group
// id to its element index.
func (gt GroupTable) ElementIndexForOffset(id int, off uint8) (uint8, error) {
	if id < 0 || id >= len(gt) {
		return ElemIndexNone, fmt.Errorf("%w: %d", ErrInvalidGroup, id)
	}
	if int(off) < id+1 {
		return ElemIndexNone, fmt.Errorf("%w: offset %d in group %d", ErrOverallElement, off, id)
	}
	idx := int(off) - (id + 1)
	g := gt[id]
	if idx < int(g.FirstElementIndex) || idx >= int(g.FirstElementIndex)+int(g.NumPossibleElements) {
		return ElemIndexNone, fmt.Errorf("%w: offset %d in group %d", ErrOverallElement, off, id)
	}
	return uint8(idx), nil
}

// OffsetForElementIndex is the inverse of ElementIndexForOffset.
func (gt GroupTable) OffsetForElementIndex(idx uint8) (uint8, error) {
	for id, g := range gt {
		first := int(g.FirstElementIndex)
		if int(idx) >= first && int(idx) < first+int(g.NumPossibleElements) {
			return uint8(int(idx) + id + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: element index %d", ErrIndexOutOfRange, idx)
}

// ElementOffset returns the element offset of record elem (0 = overall)
// within group id.
func (gt GroupTable) ElementOffset(id int, elem uint8) (uint8, error) {
	if id < 0 || id >= len(gt) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGroup, id)
	}
	if elem > gt[id].NumPossibleElements {
		return 0, fmt.Errorf("%w: element %d of group %d", ErrIndexOutOfRange, elem, id)
	}
	off := 0
	for i := 0; i < id; i++ {
		off += int(gt[i].NumPossibleElements) + 1
	}
	return uint8(off + int(elem)), nil
}

// ElementIndex returns the element index of individual record elem (1..n)
// of group id.
func (gt GroupTable) ElementIndex(id int, elem uint8) (uint8, error) {
	if id < 0 || id >= len(gt) {
		return ElemIndexNone, fmt.Errorf("%w: %d", ErrInvalidGroup, id)
	}
	if elem == 0 {
		return ElemIndexNone, fmt.Errorf("%w: group %d", ErrOverallElement, id)
	}
	if elem > gt[id].NumPossibleElements {
		return ElemIndexNone, fmt.Errorf("%w: element %d of group %d", ErrIndexOutOfRange, elem, id)
	}
	return gt[id].FirstElementIndex + elem - 1, nil
}

// NthGroupOfType returns how many earlier groups share group id's element type.
func (gt GroupTable) NthGroupOfType(id int) int {
	if id < 0 || id >= len(gt) {
		return 0
	}
	n := 0
	for i := 0; i < id; i++ {
		if gt[i].ElementType == gt[id].ElementType {
			n++
		}
	}
	return n
}

// Records returns the overall record followed by every individual record of
// group id, sliced from a status-layout page.
func (gt GroupTable) Records(page []byte, id int) ([]Element, error) {
	if id < 0 || id >= len(gt) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGroup, id)
	}
	g := gt[id]
	recs := make([]Element, int(g.NumPossibleElements)+1)
	for i := range recs {
		e, err := ElementAt(page, int(g.ByteOffset)+i*ElementSize)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", id, err)
		}
		recs[i] = e
	}
	return recs, nil
}

// NumElements returns the sum of individual elements of every group.
func (gt GroupTable) NumElements() int {
	n := 0
	for _, g := range gt {
		n += int(g.NumPossibleElements)
	}
	return n
}
