package health

import (
	"testing"

	"battwatch/internal/models"
)

func i64(v int64) *int64 { return &v }

func TestEstimateCapacityBoundaryValid(t *testing.T) {
	cfg := DefaultEstimatorConfig()

	// 300 mAh over a 5% climb extrapolates to 6000 mAh.
	got, ok := EstimateCapacity(i64(1_000_000), i64(1_300_000), 50, 55, cfg)
	if !ok {
		t.Fatalf("expected computable estimate")
	}
	if got != 6000 {
		t.Fatalf("expected 6000 mAh, got %d", got)
	}
}

func TestEstimateCapacityNotComputable(t *testing.T) {
	cfg := DefaultEstimatorConfig()

	cases := []struct {
		name       string
		start, end *int64
		startPct   int
		endPct     int
	}{
		{"missing start counter", nil, i64(2_000_000), 40, 70},
		{"missing end counter", i64(2_000_000), nil, 40, 70},
		{"percent delta below minimum", i64(1_000_000), i64(1_300_000), 50, 54},
		{"zero charge delta", i64(1_000_000), i64(1_000_000), 40, 70},
		{"result below plausibility band", i64(1_000_000), i64(1_020_000), 40, 50},
		{"result above plausibility band", i64(1_000_000), i64(3_500_000), 50, 60},
	}

	for _, tc := range cases {
		if _, ok := EstimateCapacity(tc.start, tc.end, tc.startPct, tc.endPct, cfg); ok {
			t.Fatalf("%s: expected not computable", tc.name)
		}
	}
}

func TestEstimateCapacityBetweenSnapshots(t *testing.T) {
	cfg := DefaultEstimatorConfig()

	start := models.Snapshot{Percentage: 40, ChargeCounterUAH: i64(2_000_000)}
	end := models.Snapshot{Percentage: 70, ChargeCounterUAH: i64(2_900_000)}

	got, ok := EstimateCapacityBetween(start, end, cfg)
	if !ok {
		t.Fatalf("expected computable estimate")
	}
	if got != 3000 {
		t.Fatalf("expected 3000 mAh, got %d", got)
	}

	if _, ok := EstimateCapacityBetween(start, models.Snapshot{Percentage: 70}, cfg); ok {
		t.Fatalf("expected not computable without an end counter")
	}
}

func TestEstimateCapacityMonotonicInChargeDelta(t *testing.T) {
	cfg := DefaultEstimatorConfig()

	prev := 0
	for delta := int64(300_000); delta <= 900_000; delta += 100_000 {
		got, ok := EstimateCapacity(i64(1_000_000), i64(1_000_000+delta), 40, 50, cfg)
		if !ok {
			t.Fatalf("delta %d: expected computable estimate", delta)
		}
		if got <= prev {
			t.Fatalf("delta %d: estimate %d not above previous %d", delta, got, prev)
		}
		prev = got
	}
}

func TestEstimateCapacityDirectionAgnostic(t *testing.T) {
	cfg := DefaultEstimatorConfig()

	up, okUp := EstimateCapacity(i64(2_000_000), i64(2_900_000), 40, 70, cfg)
	down, okDown := EstimateCapacity(i64(2_900_000), i64(2_000_000), 70, 40, cfg)
	if !okUp || !okDown {
		t.Fatalf("expected both directions computable")
	}
	if up != down {
		t.Fatalf("expected symmetric estimates, got %d and %d", up, down)
	}
	if up != 3000 {
		t.Fatalf("expected 3000 mAh, got %d", up)
	}
}
