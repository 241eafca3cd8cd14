package eses

import (
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
)

// compAccess reads and writes one component. The first store failure is
// routed through the enclosure's error handler and kept in err; every later
// call is a no-op, so a caller only checks err between steps.
type compAccess struct {
	e       *Enclosure
	c       edal.ComponentType
	idx     int
	err     error
	changed bool
}

func (e *Enclosure) access(c edal.ComponentType, idx int) *compAccess {
	return &compAccess{e: e, c: c, idx: idx}
}

func (a *compAccess) fail(attr edal.Attribute, err error) {
	a.err = a.e.handleStoreError(a.c, a.idx, attr.String(), err)
}

func (a *compAccess) note(st edal.Status) edal.Status {
	if st.Changed() {
		a.changed = true
	}
	return st
}

func (a *compAccess) setBool(attr edal.Attribute, v bool) edal.Status {
	if a.err != nil {
		return edal.Unchanged
	}
	st, err := a.e.store.SetBool(a.c, a.idx, attr, v)
	if err != nil {
		a.fail(attr, err)
		return edal.Unchanged
	}
	return a.note(st)
}

func (a *compAccess) setU8(attr edal.Attribute, v uint8) edal.Status {
	if a.err != nil {
		return edal.Unchanged
	}
	st, err := a.e.store.SetU8(a.c, a.idx, attr, v)
	if err != nil {
		a.fail(attr, err)
		return edal.Unchanged
	}
	return a.note(st)
}

func (a *compAccess) setU64(attr edal.Attribute, v uint64) edal.Status {
	if a.err != nil {
		return edal.Unchanged
	}
	st, err := a.e.store.SetU64(a.c, a.idx, attr, v)
	if err != nil {
		a.fail(attr, err)
		return edal.Unchanged
	}
	return a.note(st)
}

func (a *compAccess) getBool(attr edal.Attribute) bool {
	if a.err != nil {
		return false
	}
	v, err := a.e.store.GetBool(a.c, a.idx, attr)
	if err != nil {
		a.fail(attr, err)
	}
	return v
}

func (a *compAccess) getU8(attr edal.Attribute) uint8 {
	if a.err != nil {
		return 0
	}
	v, err := a.e.store.GetU8(a.c, a.idx, attr)
	if err != nil {
		a.fail(attr, err)
	}
	return v
}

func (a *compAccess) getU64(attr edal.Attribute) uint64 {
	if a.err != nil {
		return 0
	}
	v, err := a.e.store.GetU64(a.c, a.idx, attr)
	if err != nil {
		a.fail(attr, err)
	}
	return v
}

// trace logs a component whose attributes moved during this element.
func (a *compAccess) trace() {
	if a.err != nil || !a.changed {
		return
	}
	a.e.log.Debug("component state changed",
		slog.String("component", a.c.String()), slog.Int("index", a.idx))
}
