// Package edal holds the decoded state of every enclosure component as a
// typed table keyed by (component type, component index, attribute).
package edal

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/exp/constraints"
)

var (
	ErrUnknownAttribute  = errors.New("attribute not defined for component type")
	ErrComponentNotFound = errors.New("component index out of range")
	ErrKindMismatch      = errors.New("attribute accessed with wrong kind")
)

// NotFound is returned by the find-first queries.
const NotFound = -1

// Status tells a setter's caller whether the stored value moved.
type Status uint8

const (
	Unchanged Status = iota
	Changed
)

func (s Status) Changed() bool { return s == Changed }

type record struct {
	vals [numAttributes]uint64
}

// Store is safe for concurrent use. Decode passes for one enclosure are
// serialized by the caller; other readers may run alongside.
type Store struct {
	mu    sync.RWMutex
	comps [numComponentTypes][]record
}

// New allocates counts[c] zeroed records for every component type c.
func New(counts map[ComponentType]int) *Store {
	s := &Store{}
	for c, n := range counts {
		if c < numComponentTypes && n > 0 {
			s.comps[c] = make([]record, n)
		}
	}
	return s
}

// Count returns the number of components of type c.
func (s *Store) Count(c ComponentType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c >= numComponentTypes {
		return 0
	}
	return len(s.comps[c])
}

func (s *Store) check(c ComponentType, idx int, a Attribute, k Kind) error {
	if c >= numComponentTypes || idx < 0 || idx >= len(s.comps[c]) {
		return fmt.Errorf("%w: %s %d", ErrComponentNotFound, c, idx)
	}
	if !Has(c, a) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, c, a)
	}
	if a.Kind() != k {
		return fmt.Errorf("%w: %s is %s, not %s", ErrKindMismatch, a, a.Kind(), k)
	}
	return nil
}

func get[T constraints.Unsigned](s *Store, c ComponentType, idx int, a Attribute, k Kind) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(c, idx, a, k); err != nil {
		return 0, err
	}
	return T(s.comps[c][idx].vals[a]), nil
}

func set[T constraints.Unsigned](s *Store, c ComponentType, idx int, a Attribute, k Kind, v T) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(c, idx, a, k); err != nil {
		return Unchanged, err
	}
	cur := &s.comps[c][idx].vals[a]
	if *cur == uint64(v) {
		return Unchanged, nil
	}
	*cur = uint64(v)
	return Changed, nil
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (s *Store) GetBool(c ComponentType, idx int, a Attribute) (bool, error) {
	v, err := get[uint8](s, c, idx, a, KindBool)
	return v != 0, err
}

func (s *Store) GetU8(c ComponentType, idx int, a Attribute) (uint8, error) {
	return get[uint8](s, c, idx, a, KindU8)
}

func (s *Store) GetU64(c ComponentType, idx int, a Attribute) (uint64, error) {
	return get[uint64](s, c, idx, a, KindU64)
}

func (s *Store) SetBool(c ComponentType, idx int, a Attribute, v bool) (Status, error) {
	return set(s, c, idx, a, KindBool, b2u(v))
}

func (s *Store) SetU8(c ComponentType, idx int, a Attribute, v uint8) (Status, error) {
	return set(s, c, idx, a, KindU8, v)
}

func (s *Store) SetU64(c ComponentType, idx int, a Attribute, v uint64) (Status, error) {
	return set(s, c, idx, a, KindU64, v)
}

// FindFirstU8 returns the lowest index >= start of type c whose attribute a
// equals v, or NotFound.
func (s *Store) FindFirstU8(a Attribute, c ComponentType, start int, v uint8) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if start < 0 {
		start = 0
	}
	for idx := start; c < numComponentTypes && idx < len(s.comps[c]); idx++ {
		if s.check(c, idx, a, KindU8) != nil {
			return NotFound
		}
		if s.comps[c][idx].vals[a] == uint64(v) {
			return idx
		}
	}
	return NotFound
}

// CountU8 returns how many components of type c have attribute a equal to v.
func (s *Store) CountU8(a Attribute, c ComponentType, v uint8) int {
	n := 0
	for idx := s.FindFirstU8(a, c, 0, v); idx != NotFound; idx = s.FindFirstU8(a, c, idx+1, v) {
		n++
	}
	return n
}

// Component is one record of a Snapshot.
type Component struct {
	Type  string         `json:"type"`
	Index int            `json:"index"`
	Attrs map[string]any `json:"attrs"`
}

// Snapshot copies every record into a JSON-ready form, ordered by type and
// index.
func (s *Store) Snapshot() []Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Component
	for c := ComponentType(0); c < numComponentTypes; c++ {
		attrs := schema[c]
		for idx, r := range s.comps[c] {
			comp := Component{Type: c.String(), Index: idx, Attrs: make(map[string]any, len(attrs))}
			for _, a := range attrs {
				comp.Attrs[a.String()] = value(a, r.vals[a])
			}
			out = append(out, comp)
		}
	}
	return out
}

func value(a Attribute, raw uint64) any {
	switch a.Kind() {
	case KindBool:
		return raw != 0
	case KindU8:
		return uint8(raw)
	}
	return raw
}

// Change is one attribute that differs between two snapshots.
type Change struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Attr  string `json:"attr"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// Diff lists the attributes that differ between before and after, which
// must come from the same store.
func Diff(before, after []Component) []Change {
	var out []Change
	for i := range after {
		if i >= len(before) {
			break
		}
		b, a := before[i], after[i]
		if b.Type != a.Type || b.Index != a.Index {
			continue
		}
		keys := make([]string, 0, len(a.Attrs))
		for k := range a.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if b.Attrs[k] != a.Attrs[k] {
				out = append(out, Change{Type: a.Type, Index: a.Index, Attr: k, Old: b.Attrs[k], New: a.Attrs[k]})
			}
		}
	}
	return out
}
