package main

import (
	"log/slog"

	"github.com/sigreer/esesgod/internal/db"
	"github.com/sigreer/esesgod/internal/eses"
)

// multiObserver fans decoder notifications out in order.
type multiObserver []eses.Observer

func (m multiObserver) ObservePass(res *eses.PassResult) {
	for _, o := range m {
		o.ObservePass(res)
	}
}

func (m multiObserver) ObserveDecision(op eses.Opcode, d eses.Decision) {
	for _, o := range m {
		o.ObserveDecision(op, d)
	}
}

// dbObserver persists every pass.
type dbObserver struct {
	db  *db.DB
	log *slog.Logger
}

func (o dbObserver) ObservePass(res *eses.PassResult) {
	if err := o.db.RecordPass(res); err != nil {
		o.log.Warn("recording decode pass", slog.String("pass", res.ID.String()), slog.Any("error", err))
	}
}

func (dbObserver) ObserveDecision(eses.Opcode, eses.Decision) {}
