// Package validation classifies a single sample against the session it targets
// and the configured thresholds. It never mutates state.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"batteryeis/backend/services/ingest-service/internal/models"
	"batteryeis/backend/services/ingest-service/internal/thresholds"
)

// Outcome of classifying a sample.
type Outcome int

const (
	Accept Outcome = iota
	SoftReject
	HardFault
)

func (o Outcome) String() string {
	switch o {
	case Accept:
		return "accept"
	case SoftReject:
		return "soft_reject"
	case HardFault:
		return "hard_fault"
	default:
		return "unknown"
	}
}

// FaultKind separates identity errors from business-rule errors.
type FaultKind int

const (
	FaultNone FaultKind = iota
	FaultDataFormat
	FaultValidation
)

// Prior is the part of session state the validator reads.
type Prior struct {
	LastRowIndex int
	BatteryID    string
	SoC          int
}

// Classification is the validator verdict. Message holds the fault text for
// HardFault and the reject reason for SoftReject.
type Classification struct {
	Outcome Outcome
	Fault   FaultKind
	Message string
}

// Classify applies the checks in a fixed order: identity, row order, frequency,
// resistance bound, range bound. A nil prior means the session is unknown.
func Classify(sample *models.Sample, prior *Prior, cfg thresholds.Config) Classification {
	if sample == nil || strings.TrimSpace(sample.SessionID) == "" {
		return hardFault(FaultDataFormat, "Sample or SessionId is null")
	}
	if prior == nil {
		return hardFault(FaultDataFormat, "Session not started")
	}
	if sample.RowIndex <= prior.LastRowIndex {
		return hardFault(FaultValidation, fmt.Sprintf(
			"RowIndex %d must be greater than last accepted row %d", sample.RowIndex, prior.LastRowIndex))
	}
	if !(sample.FrequencyHz > 0) {
		return hardFault(FaultValidation, fmt.Sprintf(
			"Row %d: FrequencyHz must be > 0, got %s", sample.RowIndex, formatFloat(sample.FrequencyHz)))
	}

	if !within(sample.ROhm, cfg.ResistanceMin(), cfg.ResistanceMax()) {
		return softReject(sample, prior, "R_ohm", sample.ROhm, cfg.ResistanceMin(), cfg.ResistanceMax())
	}
	if !within(sample.RangeOhm, cfg.RangeMin(), cfg.RangeMax()) {
		return softReject(sample, prior, "Range_ohm", sample.RangeOhm, cfg.RangeMin(), cfg.RangeMax())
	}

	return Classification{Outcome: Accept}
}

// within is written so NaN falls outside every bound.
func within(v, min, max float64) bool {
	return v >= min && v <= max
}

func hardFault(kind FaultKind, msg string) Classification {
	return Classification{Outcome: HardFault, Fault: kind, Message: msg}
}

func softReject(sample *models.Sample, prior *Prior, field string, actual, min, max float64) Classification {
	reason := fmt.Sprintf("Row %d battery %s SoC %d%%: Expected %s [%s-%s], got %s",
		sample.RowIndex, prior.BatteryID, prior.SoC, field,
		formatFloat(min), formatFloat(max), formatFloat(actual))
	return Classification{Outcome: SoftReject, Message: reason}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
