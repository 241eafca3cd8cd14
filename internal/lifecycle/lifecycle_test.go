package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkFunc func(FaultSymptom) error

func (f sinkFunc) RecordSymptom(fs FaultSymptom) error { return f(fs) }

func TestRecorderConditions(t *testing.T) {
	r := NewRecorder(nil)
	require.NoError(t, r.SetCondition(ExpanderControlNeeded))
	require.NoError(t, r.SetCondition(EmcSpecificStatusUnknown))
	require.NoError(t, r.SetCondition(ExpanderControlNeeded))
	assert.Error(t, r.SetCondition(ConditionNone))

	assert.True(t, r.IsPending(ExpanderControlNeeded))
	assert.Equal(t, []Condition{EmcSpecificStatusUnknown, ExpanderControlNeeded}, r.Drain())
	assert.Empty(t, r.Pending())
	assert.False(t, r.IsPending(ExpanderControlNeeded))
}

func TestRecorderFail(t *testing.T) {
	var got []FaultSymptom
	r := NewRecorder(sinkFunc(func(fs FaultSymptom) error {
		got = append(got, fs)
		return nil
	}))
	r.now = func() time.Time { return time.Unix(100, 0) }

	assert.Equal(t, StateReady, r.State())
	require.NoError(t, r.Fail(FaultSymptom{Symptom: SymptomEdalError, Component: "drive_slot", Index: 3}))
	assert.Equal(t, StateFail, r.State())

	err := r.Fail(FaultSymptom{Symptom: SymptomMapCompIndexFailed})
	assert.ErrorIs(t, err, ErrAlreadyFailed)

	require.Len(t, got, 2)
	assert.Equal(t, time.Unix(100, 0), got[0].At)
	assert.Len(t, r.Symptoms(), 2)
}

func TestRecorderSinkError(t *testing.T) {
	boom := errors.New("disk full")
	r := NewRecorder(sinkFunc(func(FaultSymptom) error { return boom }))
	err := r.Fail(FaultSymptom{Symptom: SymptomEdalError})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFail, r.State())

	assert.ErrorIs(t, r.Record(FaultSymptom{Symptom: SymptomModeCmdUnsupported}), boom)
	assert.Equal(t, "mode_cmd_unsupported", SymptomModeCmdUnsupported.String())
}
