package eses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/ses"
)

// PassResult summarizes one decode of a status page.
type PassResult struct {
	ID        uuid.UUID     `json:"id"`
	Enclosure uuid.UUID     `json:"enclosure"`
	Device    string        `json:"device"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	GenCode   uint32        `json:"gen_code"`
	Changes   []edal.Change `json:"changes,omitempty"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`

	// drive slots whose inserted state changed, bit n = slot n
	InsertChanges uint64 `json:"insert_changes,omitempty"`
}

type extractFunc func(e *Enclosure, p *pass, id int, recs []ses.Element) error

// pass holds the state of one DecodeStatusPage call.
type pass struct {
	res *PassResult
}

func extractorFor(t ses.ElementType) extractFunc {
	switch t {
	case ses.ElemArrayDevSlot:
		return (*Enclosure).extractDriveSlot
	case ses.ElemExpanderPhy:
		return (*Enclosure).extractExpanderPhy
	case ses.ElemSASConnector:
		return (*Enclosure).extractConnector
	case ses.ElemPowerSupply:
		return (*Enclosure).extractPowerSupply
	case ses.ElemCooling:
		return (*Enclosure).extractCooling
	case ses.ElemTempSensor:
		return (*Enclosure).extractTempSensor
	case ses.ElemEnclosure:
		return (*Enclosure).extractEnclosure
	case ses.ElemDisplay:
		return (*Enclosure).extractDisplay
	case ses.ElemSASExpander, ses.ElemUPS, ses.ElemEscElectronic:
		return (*Enclosure).extractShared
	}
	return nil
}

// DecodeStatusPage decodes one enclosure status page into the attribute
// store. The first failure ends the pass; the store keeps whatever was
// written before it.
func (e *Enclosure) DecodeStatusPage(ctx context.Context, page []byte) (*PassResult, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	start := e.now()
	res := &PassResult{ID: uuid.New(), Enclosure: e.ID, Device: e.Device, Started: start}
	log := e.log.With(slog.String("pass", res.ID.String()))

	err := e.decode(ctx, &pass{res: res}, page, log)
	res.Duration = e.now().Sub(start)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		log.Warn("status page decode failed", slog.Any("error", err))
	} else {
		log.Debug("status page decoded", slog.Int("changes", len(res.Changes)),
			slog.Duration("took", res.Duration))
	}
	if e.obs != nil {
		e.obs.ObservePass(res)
	}
	return res, err
}

func (e *Enclosure) decode(ctx context.Context, p *pass, page []byte, log *slog.Logger) error {
	h, err := ses.ExpectPage(page, ses.PageEnclosureStatus)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParameterInvalid, err)
	}
	p.res.GenCode = h.GenCode
	if h.GenCode != e.config.GenCode {
		log.Info("status page generation differs from configuration",
			slog.Uint64("status_gen", uint64(h.GenCode)), slog.Uint64("config_gen", uint64(e.config.GenCode)))
	}
	before := e.store.Snapshot()

	for id, g := range e.config.Groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn := extractorFor(g.ElementType)
		if fn == nil {
			continue
		}
		recs, err := e.config.Groups.Records(page, id)
		if err != nil {
			return e.handleStoreError(edal.Enclosure, 0, fmt.Sprintf("group %d", id), err)
		}
		if err := fn(e, p, id, recs); err != nil {
			return fmt.Errorf("group %d (%s): %w", id, g.ElementType, err)
		}
	}

	if _, err := e.store.SetU64(edal.Enclosure, 0, edal.LastGoodStatusTime, uint64(e.now().UnixMilli())); err != nil {
		return e.handleStoreError(edal.Enclosure, 0, edal.LastGoodStatusTime.String(), err)
	}
	p.res.Changes = edal.Diff(before, e.store.Snapshot())
	for _, c := range p.res.Changes {
		if c.Attr == edal.LastGoodStatusTime.String() {
			continue
		}
		log.Debug("attribute changed", slog.String("component", c.Type), slog.Int("index", c.Index),
			slog.String("attr", c.Attr), slog.Any("old", c.Old), slog.Any("new", c.New))
	}
	return nil
}

// mapElement resolves record elem of group id. ok is false when the record
// is not kept; a mapping failure is routed through the error handler.
func (e *Enclosure) mapElement(c edal.ComponentType, id int, elem uint8) (int, bool, error) {
	idx, err := e.ComponentIndex(id, elem)
	switch {
	case err == nil:
		return idx, true, nil
	case errors.Is(err, ErrEdalNotNeeded):
		return 0, false, nil
	}
	return 0, false, e.handleStoreError(c, int(elem), fmt.Sprintf("map group %d element %d", id, elem), err)
}

// writeValidity stores StatusValid and the raw status code, and reports
// whether the rest of the element should be decoded.
func writeValidity(a *compAccess, o Outcome, code ses.StatusCode) bool {
	a.setBool(edal.StatusValid, o.Valid)
	a.setU8(edal.AddlStatus, uint8(code))
	return a.err == nil && o.Valid
}
