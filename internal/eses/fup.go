package eses

import (
	"log/slog"

	"github.com/sigreer/esesgod/internal/edal"
)

// FupTarget is the component a firmware download is aimed at.
type FupTarget uint8

const (
	FupTargetNone FupTarget = iota
	FupTargetLCCMain
	FupTargetLCCExpander
	FupTargetPowerSupply
	FupTargetCooling
	FupTargetSPS
)

func (t FupTarget) String() string {
	switch t {
	case FupTargetLCCMain:
		return "lcc_main"
	case FupTargetLCCExpander:
		return "lcc_expander"
	case FupTargetPowerSupply:
		return "power_supply"
	case FupTargetCooling:
		return "cooling"
	case FupTargetSPS:
		return "sps"
	}
	return "none"
}

// FupOperation is the download step in progress.
type FupOperation uint8

const (
	FupOpNone FupOperation = iota
	FupOpDownload
	FupOpActivate
	FupOpGetStatus
	FupOpAbort
)

func (o FupOperation) String() string {
	switch o {
	case FupOpDownload:
		return "download"
	case FupOpActivate:
		return "activate"
	case FupOpGetStatus:
		return "get_status"
	case FupOpAbort:
		return "abort"
	}
	return "none"
}

// FupStatus is the outcome reported for the upgrade.
type FupStatus uint8

const (
	FupStatusNone FupStatus = iota
	FupStatusInProgress
	FupStatusComplete
	FupStatusFailed
	FupStatusAborted
)

func (s FupStatus) String() string {
	switch s {
	case FupStatusInProgress:
		return "in_progress"
	case FupStatusComplete:
		return "complete"
	case FupStatusFailed:
		return "failed"
	case FupStatusAborted:
		return "aborted"
	}
	return "none"
}

// FirmwareUpgrade is the download in flight on an enclosure. The decoder
// only reads it to abort an upgrade whose target was pulled.
type FirmwareUpgrade struct {
	Target           FupTarget    `json:"target"`
	Side             uint8        `json:"side"`
	Operation        FupOperation `json:"operation"`
	Status           FupStatus    `json:"status"`
	ExtStatus        uint8        `json:"ext_status"`
	BytesTransferred uint32       `json:"bytes_transferred"`
	RetryCount       int          `json:"retry_count"`
}

// StartFirmwareUpgrade records a new download aimed at target on side.
func (e *Enclosure) StartFirmwareUpgrade(target FupTarget, side uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fup = FirmwareUpgrade{
		Target:    target,
		Side:      side,
		Operation: FupOpDownload,
		Status:    FupStatusInProgress,
	}
}

// UpdateFirmwareUpgrade lets the download path report progress.
func (e *Enclosure) UpdateFirmwareUpgrade(fn func(*FirmwareUpgrade)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.fup)
}

// FirmwareUpgrade returns a copy of the current upgrade context.
func (e *Enclosure) FirmwareUpgrade() FirmwareUpgrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fup
}

// handleFupRemoval clears the upgrade context when the component it
// targets was just removed.
func (e *Enclosure) handleFupRemoval(c edal.ComponentType, idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	abort := false
	switch c {
	case edal.PowerSupply:
		abort = e.fup.Target == FupTargetPowerSupply && int(e.fup.Side) == idx
	case edal.LCC:
		abort = e.fup.Target == FupTargetLCCMain && int(e.fup.Side) == idx
	}
	if !abort {
		return
	}
	e.log.Warn("firmware upgrade target removed, aborting upgrade",
		slog.String("component", c.String()), slog.Int("index", idx),
		slog.String("target", e.fup.Target.String()))
	e.fup.Operation = FupOpNone
	e.fup.Status = FupStatusNone
	e.fup.ExtStatus = 0
}
