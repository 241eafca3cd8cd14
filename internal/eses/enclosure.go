// Package eses decodes ESES status, statistics and threshold pages into
// per-component state, and classifies failed enclosure commands.
package eses

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/lifecycle"
	"github.com/sigreer/esesgod/internal/ses"
)

// DefaultDebounceWindow is how long an LCC fault must persist before it is
// reported.
const DefaultDebounceWindow = 9 * time.Second

// DefaultMaxModeRetries bounds MODE SENSE/SELECT retries before the page is
// latched unsupported.
const DefaultMaxModeRetries = 3

// Store is the attribute store the decoder reads and writes.
// *edal.Store implements it.
type Store interface {
	GetBool(c edal.ComponentType, idx int, a edal.Attribute) (bool, error)
	GetU8(c edal.ComponentType, idx int, a edal.Attribute) (uint8, error)
	GetU64(c edal.ComponentType, idx int, a edal.Attribute) (uint64, error)
	SetBool(c edal.ComponentType, idx int, a edal.Attribute, v bool) (edal.Status, error)
	SetU8(c edal.ComponentType, idx int, a edal.Attribute, v uint8) (edal.Status, error)
	SetU64(c edal.ComponentType, idx int, a edal.Attribute, v uint64) (edal.Status, error)
	FindFirstU8(a edal.Attribute, c edal.ComponentType, start int, v uint8) int
	Count(c edal.ComponentType) int
	Snapshot() []edal.Component
}

// Observer is told about every finished pass and retry decision.
type Observer interface {
	ObservePass(*PassResult)
	ObserveDecision(Opcode, Decision)
}

// Options configures an Enclosure. Zero values select the defaults.
type Options struct {
	Logger         *slog.Logger
	Now            func() time.Time
	DebounceWindow time.Duration
	MaxModeRetries int
	Profile        *Profile
	Store          Store
	Scheduler      lifecycle.Scheduler
	Observer       Observer
}

// Enclosure is the decode state of one ESES enclosure. Decode passes are
// serialized; the store may be read concurrently by other goroutines.
type Enclosure struct {
	ID      uuid.UUID
	Device  string
	config  *ses.Configuration
	profile Profile
	store   Store
	sched   lifecycle.Scheduler
	obs     Observer
	log     *slog.Logger
	now     func() time.Time
	window  time.Duration

	maxModeRetries int

	passMu sync.Mutex

	mu                sync.Mutex
	fup               FirmwareUpgrade
	spsDevSupported   bool
	modeSenseRetries  int
	modeSelectRetries int
	connectorDisable  map[uint8]bool
}

// New builds the decode state for the enclosure described by cfg.
func New(device string, cfg *ses.Configuration, opts Options) (*Enclosure, error) {
	if cfg == nil || len(cfg.Groups) == 0 {
		return nil, fmt.Errorf("%w: configuration has no element groups", ErrParameterInvalid)
	}
	e := &Enclosure{
		ID:               uuid.New(),
		Device:           device,
		config:           cfg,
		profile:          DefaultProfile(),
		store:            opts.Store,
		sched:            opts.Scheduler,
		obs:              opts.Observer,
		log:              opts.Logger,
		now:              opts.Now,
		window:           opts.DebounceWindow,
		maxModeRetries:   opts.MaxModeRetries,
		spsDevSupported:  true,
		connectorDisable: make(map[uint8]bool),
	}
	if opts.Profile != nil {
		e.profile = *opts.Profile
	}
	if e.store == nil {
		e.store = edal.New(e.profile.Counts())
	}
	if e.sched == nil {
		e.sched = lifecycle.NewRecorder(nil)
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.log = e.log.With(slog.String("enclosure", e.ID.String()), slog.String("device", device))
	if e.now == nil {
		e.now = time.Now
	}
	if e.window <= 0 {
		e.window = DefaultDebounceWindow
	}
	if e.maxModeRetries <= 0 {
		e.maxModeRetries = DefaultMaxModeRetries
	}
	return e, nil
}

// Configuration returns the configuration page the enclosure was built from.
func (e *Enclosure) Configuration() *ses.Configuration { return e.config }

// Groups returns the element group table.
func (e *Enclosure) Groups() ses.GroupTable { return e.config.Groups }

// Profile returns the enclosure profile.
func (e *Enclosure) Profile() Profile { return e.profile }

// Store returns the attribute store.
func (e *Enclosure) Store() Store { return e.store }

// Scheduler returns the lifecycle the enclosure reports to.
func (e *Enclosure) Scheduler() lifecycle.Scheduler { return e.sched }

// SPSDeviceSupported is cleared once MODE SELECT is rejected as illegal.
func (e *Enclosure) SPSDeviceSupported() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spsDevSupported
}

// handleStoreError records a fault symptom, fails the enclosure and
// returns err unchanged. A failure to record is only logged.
func (e *Enclosure) handleStoreError(c edal.ComponentType, idx int, detail string, err error) error {
	fs := lifecycle.FaultSymptom{
		Symptom:   symptomOf(err),
		Component: c.String(),
		Index:     idx,
		Detail:    detail,
		At:        e.now(),
	}
	e.log.Error("attribute store failure, failing enclosure",
		slog.String("component", c.String()), slog.Int("index", idx),
		slog.String("attr", detail), slog.Any("error", err))
	if herr := e.sched.Fail(fs); herr != nil {
		e.log.Warn("could not record fault symptom", slog.Any("error", herr))
	}
	return err
}

// raise sets a lifecycle condition; failure goes through the store error
// handler and comes back as ErrLifecycleFailed.
func (e *Enclosure) raise(cond lifecycle.Condition, c edal.ComponentType, idx int) error {
	if err := e.sched.SetCondition(cond); err != nil {
		lerr := fmt.Errorf("%w: set %s: %v", ErrLifecycleFailed, cond, err)
		return e.handleStoreError(c, idx, cond.String(), lerr)
	}
	e.log.Debug("condition raised", slog.String("condition", cond.String()),
		slog.String("component", c.String()), slog.Int("index", idx))
	return nil
}

// firstStatusReadCompleted reports whether a status page has ever been
// decoded without error.
func (e *Enclosure) firstStatusReadCompleted() (bool, error) {
	t, err := e.store.GetU64(edal.Enclosure, 0, edal.LastGoodStatusTime)
	if err != nil {
		return false, err
	}
	return t != 0, nil
}
