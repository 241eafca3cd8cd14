// Package lifecycle records the conditions a decode pass raises for the
// polling scheduler and the fault symptoms that fail an enclosure.
package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var ErrAlreadyFailed = errors.New("enclosure already failed")

// Condition asks the scheduler to read or write a page on its next run.
type Condition uint8

const (
	ConditionNone Condition = iota
	// re-read the EMC enclosure status page (extended identity, shutdown reason)
	EmcSpecificStatusUnknown
	// write the EMC enclosure control page
	EmcSpecificControlNeeded
	// write the standard enclosure control page
	ExpanderControlNeeded
	StatusUnknown
	ConfigurationUnknown
	AddlStatusUnknown
	// statistics page refresh for power cycle tracking
	StatisticsUnknown
)

var conditionNames = map[Condition]string{
	ConditionNone:            "none",
	EmcSpecificStatusUnknown: "emc_specific_status_unknown",
	EmcSpecificControlNeeded: "emc_specific_control_needed",
	ExpanderControlNeeded:    "expander_control_needed",
	StatusUnknown:            "status_unknown",
	ConfigurationUnknown:     "configuration_unknown",
	AddlStatusUnknown:        "addl_status_unknown",
	StatisticsUnknown:        "statistics_unknown",
}

func (c Condition) String() string {
	if n, ok := conditionNames[c]; ok {
		return n
	}
	return fmt.Sprintf("condition_%d", uint8(c))
}

// State is the enclosure object's lifecycle state.
type State uint8

const (
	StateSpecialize State = iota
	StateReady
	StateFail
)

func (s State) String() string {
	switch s {
	case StateSpecialize:
		return "specialize"
	case StateReady:
		return "ready"
	case StateFail:
		return "fail"
	}
	return "invalid"
}

// Symptom classifies why an enclosure was failed or a page was latched.
type Symptom uint8

const (
	SymptomNone Symptom = iota
	SymptomEdalError
	SymptomComponentNotFound
	SymptomAttributeNotFound
	SymptomMapCompIndexFailed
	SymptomElemGroupInvalid
	SymptomEsesPageInvalid
	SymptomModeCmdUnsupported
	SymptomCompTypeUnsupported
)

var symptomNames = map[Symptom]string{
	SymptomNone:                "none",
	SymptomEdalError:           "edal_error",
	SymptomComponentNotFound:   "component_not_found",
	SymptomAttributeNotFound:   "attribute_not_found",
	SymptomMapCompIndexFailed:  "map_comp_index_failed",
	SymptomElemGroupInvalid:    "elem_group_invalid",
	SymptomEsesPageInvalid:     "eses_page_invalid",
	SymptomModeCmdUnsupported:  "mode_cmd_unsupported",
	SymptomCompTypeUnsupported: "comp_type_unsupported",
}

func (s Symptom) String() string {
	if n, ok := symptomNames[s]; ok {
		return n
	}
	return fmt.Sprintf("symptom_%d", uint8(s))
}

// FaultSymptom is recorded against an enclosure.
type FaultSymptom struct {
	Symptom   Symptom   `json:"symptom"`
	Component string    `json:"component,omitempty"`
	Index     int       `json:"index"`
	Detail    string    `json:"detail,omitempty"` // failing function or opcode
	At        time.Time `json:"at"`
}

// Scheduler is the engine's view of the external lifecycle.
type Scheduler interface {
	SetCondition(Condition) error
	Fail(FaultSymptom) error
	State() State
}

// SymptomSink persists fault symptoms as they are recorded.
type SymptomSink interface {
	RecordSymptom(FaultSymptom) error
}

// Recorder collects conditions for the next scheduler run. It does not
// schedule anything itself.
type Recorder struct {
	mu       sync.Mutex
	state    State
	pending  map[Condition]int
	symptoms []FaultSymptom
	sink     SymptomSink
	now      func() time.Time
}

func NewRecorder(sink SymptomSink) *Recorder {
	return &Recorder{
		state:   StateReady,
		pending: make(map[Condition]int),
		sink:    sink,
		now:     time.Now,
	}
}

// SetState overrides the lifecycle state, e.g. to model an enclosure that
// is still specializing.
func (r *Recorder) SetState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) SetCondition(c Condition) error {
	if c == ConditionNone {
		return fmt.Errorf("invalid condition %s", c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[c]++
	return nil
}

// Fail latches the failed state and records the symptom. A second failure
// is recorded but returns ErrAlreadyFailed.
func (r *Recorder) Fail(fs FaultSymptom) error {
	r.mu.Lock()
	if fs.At.IsZero() {
		fs.At = r.now()
	}
	r.symptoms = append(r.symptoms, fs)
	already := r.state == StateFail
	r.state = StateFail
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		if err := sink.RecordSymptom(fs); err != nil {
			return fmt.Errorf("record fault symptom: %w", err)
		}
	}
	if already {
		return ErrAlreadyFailed
	}
	return nil
}

// Record adds a symptom without failing the enclosure.
func (r *Recorder) Record(fs FaultSymptom) error {
	r.mu.Lock()
	if fs.At.IsZero() {
		fs.At = r.now()
	}
	r.symptoms = append(r.symptoms, fs)
	sink := r.sink
	r.mu.Unlock()
	if sink != nil {
		return sink.RecordSymptom(fs)
	}
	return nil
}

// Pending returns the raised conditions in a stable order.
func (r *Recorder) Pending() []Condition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Condition, 0, len(r.pending))
	for c := range r.pending {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsPending reports whether c has been raised since the last Drain.
func (r *Recorder) IsPending(c Condition) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending[c] > 0
}

// Drain returns and clears the raised conditions.
func (r *Recorder) Drain() []Condition {
	out := r.Pending()
	r.mu.Lock()
	r.pending = make(map[Condition]int)
	r.mu.Unlock()
	return out
}

// Symptoms returns a copy of every recorded symptom.
func (r *Recorder) Symptoms() []FaultSymptom {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FaultSymptom(nil), r.symptoms...)
}
