package spike

import (
	"math"
	"testing"

	"batteryeis/backend/services/ingest-service/internal/models"
)

func TestDetectFirstReadingNeverSpikes(t *testing.T) {
	res, next := Detect(Reading{}, 80, 5)
	if res.IsSpike {
		t.Fatal("first reading must not spike")
	}
	if !next.Set || next.Value != 80 {
		t.Fatalf("expected next reading 80, got %+v", next)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		prior     float64
		current   float64
		threshold float64
		spike     bool
		delta     float64
		direction string
	}{
		{"rise above threshold", 25, 32, 5, true, 7, models.SpikeRise},
		{"fall above threshold", 32, 25, 5, true, -7, models.SpikeFall},
		{"exactly threshold", 25, 30, 5, false, 5, models.SpikeRise},
		{"small change", 25, 25.5, 5, false, 0.5, models.SpikeRise},
		{"no change", 25, 25, 0, false, 0, models.SpikeFall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, next := Detect(Reading{Value: tt.prior, Set: true}, tt.current, tt.threshold)
			if res.IsSpike != tt.spike {
				t.Fatalf("expected spike=%v, got %v", tt.spike, res.IsSpike)
			}
			if math.Abs(res.DeltaT-tt.delta) > 1e-9 {
				t.Fatalf("expected delta %.2f, got %.2f", tt.delta, res.DeltaT)
			}
			if res.Direction != tt.direction {
				t.Fatalf("expected direction %s, got %s", tt.direction, res.Direction)
			}
			if next.Value != tt.current {
				t.Fatalf("expected next %.2f, got %.2f", tt.current, next.Value)
			}
		})
	}
}
