// Package spike flags temperature excursions between consecutive samples.
package spike

import (
	"math"

	"batteryeis/backend/services/ingest-service/internal/models"
)

// Reading is the last observed temperature of a session. The zero value is unset.
type Reading struct {
	Value float64
	Set   bool
}

// Result annotates a response; it never rejects a sample.
type Result struct {
	IsSpike   bool
	DeltaT    float64
	Direction string
}

// Detect compares current against prior and returns the verdict plus the
// reading to keep for the next call.
func Detect(prior Reading, current, threshold float64) (Result, Reading) {
	next := Reading{Value: current, Set: true}
	if !prior.Set {
		return Result{}, next
	}

	delta := current - prior.Value
	direction := models.SpikeFall
	if delta > 0 {
		direction = models.SpikeRise
	}
	return Result{
		IsSpike:   math.Abs(delta) > threshold,
		DeltaT:    delta,
		Direction: direction,
	}, next
}
