package eses

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/lifecycle"
)

// Opcode identifies an enclosure command.
type Opcode uint8

const (
	OpGetConfiguration Opcode = iota
	OpGetEnclosureStatus
	OpGetAdditionalStatus
	OpGetEmcSpecificStatus
	OpGetStatistics
	OpGetThresholdIn
	OpGetInquiryData
	OpGetSasEnclType
	OpValidateIdentity
	OpModeSense
	OpModeSelect
	OpGetDownloadStatus
	OpDownloadFirmware
	OpSetEmcSpecificCtrl
	OpSetEnclosureControl
	OpReadBuffer
	OpResetEnclosure
	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpGetConfiguration:     "get_configuration",
	OpGetEnclosureStatus:   "get_enclosure_status",
	OpGetAdditionalStatus:  "get_additional_status",
	OpGetEmcSpecificStatus: "get_emc_specific_status",
	OpGetStatistics:        "get_statistics",
	OpGetThresholdIn:       "get_threshold_in",
	OpGetInquiryData:       "get_inquiry_data",
	OpGetSasEnclType:       "get_sas_encl_type",
	OpValidateIdentity:     "validate_identity",
	OpModeSense:            "mode_sense",
	OpModeSelect:           "mode_select",
	OpGetDownloadStatus:    "get_download_status",
	OpDownloadFirmware:     "download_firmware",
	OpSetEmcSpecificCtrl:   "set_emc_specific_ctrl",
	OpSetEnclosureControl:  "set_enclosure_control",
	OpReadBuffer:           "read_buffer",
	OpResetEnclosure:       "reset_enclosure",
}

func (o Opcode) String() string {
	if o < numOpcodes {
		return opcodeNames[o]
	}
	return fmt.Sprintf("opcode_%d", uint8(o))
}

// ParseOpcode accepts the names printed by String, with '-' or '_'.
func ParseOpcode(s string) (Opcode, error) {
	s = strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for o := Opcode(0); o < numOpcodes; o++ {
		if opcodeNames[o] == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown opcode %q", s)
}

// Opcodes lists every opcode.
func Opcodes() []Opcode {
	out := make([]Opcode, 0, numOpcodes)
	for o := Opcode(0); o < numOpcodes; o++ {
		out = append(out, o)
	}
	return out
}

// Action is what the caller does with a completed command.
type Action uint8

const (
	NoAction Action = iota
	Retry
	Fail
)

func (a Action) String() string {
	switch a {
	case NoAction:
		return "no_action"
	case Retry:
		return "retry"
	case Fail:
		return "fail"
	}
	return fmt.Sprintf("action_%d", uint8(a))
}

// Decision is the outcome of Decide. The flags are side effects the
// enclosure applies in DecideRetry.
type Decision struct {
	Result            Result              `json:"result"`
	Action            Action              `json:"action"`
	MarkUnsupported   bool                `json:"mark_unsupported,omitempty"`
	DisableCapability bool                `json:"disable_capability,omitempty"`
	Rearm             lifecycle.Condition `json:"rearm,omitempty"`
	Symptom           lifecycle.Symptom   `json:"symptom,omitempty"`
}

// RetryContext carries the enclosure state some buckets look at.
type RetryContext struct {
	RetryCount int // retries already spent on this opcode
	MaxRetries int
	Ready      bool // lifecycle state is ready

	FupRetryCount       int
	FupBytesTransferred uint32
}

func structural(r Result) bool {
	switch r {
	case ResultParameterInvalid, ResultEdalFailed, ResultLifecycleFailed, ResultBuildCdbFailed:
		return true
	}
	return false
}

// Decide classifies the completion of op with result res.
func Decide(op Opcode, res Result, ctx RetryContext) Decision {
	d := Decision{Result: res}
	switch op {
	case OpModeSense, OpModeSelect:
		switch {
		case res == ResultOK:
		case res == ResultUnsupportedPageHandled, res == ResultEnclFuncUnsupported:
			d.Symptom = lifecycle.SymptomModeCmdUnsupported
		case structural(res):
			d.Action = Fail
		case res == ResultIllegalRequest && op == OpModeSelect:
			d.DisableCapability = true
		case res == ResultIllegalRequest:
			d.Action = Fail
		case ctx.RetryCount > ctx.MaxRetries:
			d.Symptom = lifecycle.SymptomModeCmdUnsupported
			d.MarkUnsupported = true
		default:
			d.Action = Retry
		}

	case OpGetConfiguration, OpGetSasEnclType, OpGetAdditionalStatus,
		OpGetEmcSpecificStatus, OpGetInquiryData, OpValidateIdentity:
		switch {
		case res == ResultOK, res == ResultUnsupportedPageHandled:
		case structural(res), res == ResultEnclFuncUnsupported:
			d.Action = Fail
		default:
			d.Action = Retry
		}

	case OpGetDownloadStatus:
		if res == ResultBusy || res == ResultCdbRequestFailed {
			d.Action = Retry
		}

	case OpDownloadFirmware:
		switch {
		case res == ResultBusy, res == ResultCdbRequestFailed:
			d.Action = Retry
		case ctx.FupRetryCount == 0 && ctx.FupBytesTransferred == 0:
			// first page of a download
			d.Action = Retry
		}

	case OpSetEmcSpecificCtrl:
		if !ctx.Ready {
			d.Rearm = lifecycle.EmcSpecificControlNeeded
			return d
		}
		d.Action = defaultAction(res)

	default:
		d.Action = defaultAction(res)
	}
	return d
}

func defaultAction(res Result) Action {
	switch {
	case res == ResultOK, res == ResultOKValueChanged, res == ResultUnsupportedPageHandled,
		res == ResultParameterInvalid, res == ResultEnclFuncUnsupported, res == ResultHardwareError:
		return NoAction
	case structural(res):
		return Fail
	}
	return Retry
}

type symptomRecorder interface {
	Record(lifecycle.FaultSymptom) error
}

// DecideRetry classifies the completion of op with err, counts mode page
// retries and applies the decision's side effects.
func (e *Enclosure) DecideRetry(op Opcode, err error) Decision {
	res := ResultOf(err)
	ready := e.sched.State() == lifecycle.StateReady

	e.mu.Lock()
	ctx := RetryContext{
		MaxRetries:          e.maxModeRetries,
		Ready:               ready,
		FupRetryCount:       e.fup.RetryCount,
		FupBytesTransferred: e.fup.BytesTransferred,
	}
	var counter *int
	switch op {
	case OpModeSense:
		counter = &e.modeSenseRetries
	case OpModeSelect:
		counter = &e.modeSelectRetries
	}
	if counter != nil {
		if res == ResultOK {
			*counter = 0
		} else {
			*counter++
		}
		ctx.RetryCount = *counter
	}
	d := Decide(op, res, ctx)
	if d.DisableCapability {
		e.spsDevSupported = false
	}
	if op == OpDownloadFirmware && d.Action == Retry {
		e.fup.RetryCount++
	}
	e.mu.Unlock()

	log := e.log.With(slog.String("opcode", op.String()), slog.String("result", res.String()),
		slog.String("action", d.Action.String()))
	if err != nil {
		log = log.With(slog.Any("error", err))
	}
	switch d.Action {
	case Fail:
		log.Warn("enclosure command failed")
	case Retry:
		log.Debug("retrying enclosure command", slog.Int("retries", ctx.RetryCount))
	default:
		log.Debug("enclosure command completed")
	}

	if d.MarkUnsupported {
		attr := edal.ModeSenseUnsupported
		if op == OpModeSelect {
			attr = edal.ModeSelectUnsupported
		}
		if _, serr := e.store.SetBool(edal.Enclosure, 0, attr, true); serr != nil {
			log.Error("could not latch mode page unsupported", slog.Any("error", serr))
		} else {
			log.Warn("mode page latched unsupported", slog.Int("retries", ctx.RetryCount))
		}
	}
	if d.DisableCapability {
		log.Warn("standby power device support disabled")
	}
	if d.Symptom != lifecycle.SymptomNone {
		fs := lifecycle.FaultSymptom{Symptom: d.Symptom, Component: edal.Enclosure.String(), Detail: op.String(), At: e.now()}
		if rec, ok := e.sched.(symptomRecorder); ok {
			if rerr := rec.Record(fs); rerr != nil {
				log.Warn("could not record fault symptom", slog.Any("error", rerr))
			}
		} else {
			log.Warn("fault symptom", slog.String("symptom", d.Symptom.String()))
		}
	}
	if d.Rearm != lifecycle.ConditionNone {
		if rerr := e.sched.SetCondition(d.Rearm); rerr != nil {
			log.Error("could not re-arm condition", slog.String("condition", d.Rearm.String()), slog.Any("error", rerr))
		}
	}
	if e.obs != nil {
		e.obs.ObserveDecision(op, d)
	}
	return d
}
