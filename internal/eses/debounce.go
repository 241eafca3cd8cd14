package eses

import (
	"time"

	"github.com/sigreer/esesgod/internal/edal"
)

// DebounceState is the per-LCC fault mask. Since is zero while no fault is
// being timed.
type DebounceState struct {
	Masked bool
	Since  time.Time
}

// Debounce hides a raw fault until it has persisted for window. It returns
// the new state and the fault to report.
func Debounce(now time.Time, st DebounceState, raw bool, window time.Duration) (DebounceState, bool) {
	switch {
	case !raw:
		st = DebounceState{}
	case st.Since.IsZero():
		st = DebounceState{Masked: true, Since: now}
	case now.Sub(st.Since) >= window:
		st.Masked = false
	default:
		st.Masked = true
	}
	return st, raw && !st.Masked
}

// debounceLCCFault runs Debounce against the state stored on LCC idx and
// returns the fault to write.
func (e *Enclosure) debounceLCCFault(a *compAccess, raw bool) bool {
	st := DebounceState{Masked: a.getBool(edal.FaultMasked)}
	if ms := a.getU64(edal.FaultStartTimestamp); ms != 0 {
		st.Since = time.UnixMilli(int64(ms))
	}
	if a.err != nil {
		return raw
	}
	next, fault := Debounce(e.now(), st, raw, e.window)
	var ms uint64
	if !next.Since.IsZero() {
		ms = uint64(next.Since.UnixMilli())
	}
	a.setU64(edal.FaultStartTimestamp, ms)
	a.setBool(edal.FaultMasked, next.Masked)
	return fault
}
