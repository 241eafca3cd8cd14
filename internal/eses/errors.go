package eses

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/lifecycle"
	"github.com/sigreer/esesgod/internal/ses"
)

// Result is the enclosure status taxonomy shared by the decoder and the
// retry engine.
type Result uint8

const (
	ResultOK Result = iota
	ResultOKValueChanged
	ResultEdalNotNeeded
	ResultParameterInvalid
	ResultEdalFailed
	ResultLifecycleFailed
	ResultBuildCdbFailed
	ResultMappingFailed
	ResultComponentNotFound
	ResultComponentUnsupported
	ResultIllegalRequest
	ResultBusy
	ResultCdbRequestFailed
	ResultHardwareError
	ResultUnsupportedPageHandled
	ResultEnclFuncUnsupported
	numResults
)

var resultNames = [numResults]string{
	ResultOK:                     "ok",
	ResultOKValueChanged:         "ok_value_changed",
	ResultEdalNotNeeded:          "edal_not_needed",
	ResultParameterInvalid:       "parameter_invalid",
	ResultEdalFailed:             "edal_failed",
	ResultLifecycleFailed:        "lifecycle_failed",
	ResultBuildCdbFailed:         "build_cdb_failed",
	ResultMappingFailed:          "mapping_failed",
	ResultComponentNotFound:      "component_not_found",
	ResultComponentUnsupported:   "component_unsupported",
	ResultIllegalRequest:         "illegal_request",
	ResultBusy:                   "busy",
	ResultCdbRequestFailed:       "cdb_request_failed",
	ResultHardwareError:          "hardware_error",
	ResultUnsupportedPageHandled: "unsupported_page_handled",
	ResultEnclFuncUnsupported:    "encl_func_unsupported",
}

func (r Result) String() string {
	if r < numResults {
		return resultNames[r]
	}
	return fmt.Sprintf("result_%d", uint8(r))
}

// ParseResult accepts the names printed by String, with '-' or '_'.
func ParseResult(s string) (Result, error) {
	s = strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for r := Result(0); r < numResults; r++ {
		if resultNames[r] == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown result %q", s)
}

// Sentinel errors, one per failing Result.
var (
	ErrEdalNotNeeded          = errors.New("component not kept in the attribute store")
	ErrParameterInvalid       = errors.New("parameter invalid")
	ErrEdalFailed             = errors.New("attribute store access failed")
	ErrLifecycleFailed        = errors.New("lifecycle condition could not be set")
	ErrBuildCdbFailed         = errors.New("failed to build cdb")
	ErrMappingFailed          = errors.New("element could not be mapped to a component")
	ErrComponentNotFound      = errors.New("component not found")
	ErrComponentUnsupported   = errors.New("component not supported by this enclosure")
	ErrIllegalRequest         = errors.New("illegal request")
	ErrBusy                   = errors.New("enclosure busy")
	ErrCdbRequestFailed       = errors.New("cdb request failed")
	ErrHardwareError          = errors.New("hardware error")
	ErrUnsupportedPageHandled = errors.New("unsupported page handled")
	ErrEnclFuncUnsupported    = errors.New("enclosure function unsupported")
	ErrInvalidRevision        = errors.New("invalid firmware revision")
)

var resultErrs = []struct {
	err error
	res Result
}{
	{ErrEdalNotNeeded, ResultEdalNotNeeded},
	{ErrParameterInvalid, ResultParameterInvalid},
	{ErrEdalFailed, ResultEdalFailed},
	{ErrLifecycleFailed, ResultLifecycleFailed},
	{ErrBuildCdbFailed, ResultBuildCdbFailed},
	{ErrMappingFailed, ResultMappingFailed},
	{ErrComponentNotFound, ResultComponentNotFound},
	{ErrComponentUnsupported, ResultComponentUnsupported},
	{ErrIllegalRequest, ResultIllegalRequest},
	{ErrBusy, ResultBusy},
	{ErrCdbRequestFailed, ResultCdbRequestFailed},
	{ErrHardwareError, ResultHardwareError},
	{ErrUnsupportedPageHandled, ResultUnsupportedPageHandled},
	{ErrEnclFuncUnsupported, ResultEnclFuncUnsupported},
	{ErrInvalidRevision, ResultParameterInvalid},
	{edal.ErrComponentNotFound, ResultComponentNotFound},
	{edal.ErrUnknownAttribute, ResultEdalFailed},
	{edal.ErrKindMismatch, ResultEdalFailed},
	{ses.ErrPageTooShort, ResultParameterInvalid},
	{ses.ErrUnexpectedPage, ResultParameterInvalid},
	{ses.ErrOffsetOutOfRange, ResultParameterInvalid},
	{ses.ErrIndexOutOfRange, ResultParameterInvalid},
	{ses.ErrInvalidGroup, ResultParameterInvalid},
	{lifecycle.ErrAlreadyFailed, ResultLifecycleFailed},
}

// ResultOf classifies err. Errors that match no sentinel are treated as a
// failed request to the enclosure.
func ResultOf(err error) Result {
	if err == nil {
		return ResultOK
	}
	for _, re := range resultErrs {
		if errors.Is(err, re.err) {
			return re.res
		}
	}
	return ResultCdbRequestFailed
}

// Err returns the sentinel for r, or nil for the success results.
func (r Result) Err() error {
	switch r {
	case ResultOK, ResultOKValueChanged:
		return nil
	}
	for _, re := range resultErrs {
		if re.res == r {
			return re.err
		}
	}
	return fmt.Errorf("%s", r)
}

// symptomOf translates a store failure into the fault symptom recorded
// against the enclosure.
func symptomOf(err error) lifecycle.Symptom {
	switch {
	case errors.Is(err, edal.ErrComponentNotFound):
		return lifecycle.SymptomComponentNotFound
	case errors.Is(err, edal.ErrUnknownAttribute):
		return lifecycle.SymptomAttributeNotFound
	case errors.Is(err, ErrMappingFailed), errors.Is(err, ErrComponentUnsupported):
		return lifecycle.SymptomMapCompIndexFailed
	case errors.Is(err, ses.ErrInvalidGroup):
		return lifecycle.SymptomElemGroupInvalid
	case errors.Is(err, ses.ErrPageTooShort), errors.Is(err, ses.ErrUnexpectedPage):
		return lifecycle.SymptomEsesPageInvalid
	}
	return lifecycle.SymptomEdalError
}
