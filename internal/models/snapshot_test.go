package models

import (
	"testing"
	"time"
)

func counter(v int64) *int64 { return &v }

func TestSnapshotSecondsBetween(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Snapshot{Timestamp: base}
	b := Snapshot{Timestamp: base.Add(90 * time.Second)}

	if got := a.SecondsBetween(b); got != 90 {
		t.Fatalf("expected 90 seconds, got %v", got)
	}
	if got := b.SecondsBetween(a); got != 90 {
		t.Fatalf("expected symmetric distance, got %v", got)
	}
	if got := a.SecondsBetween(a); got != 0 {
		t.Fatalf("expected zero distance to self, got %v", got)
	}
}

func TestSnapshotPercentDelta(t *testing.T) {
	a := Snapshot{Percentage: 40}
	b := Snapshot{Percentage: 70}

	if got := a.PercentDelta(b); got != 30 {
		t.Fatalf("expected delta 30, got %d", got)
	}
	if got := b.PercentDelta(a); got != 30 {
		t.Fatalf("expected symmetric delta, got %d", got)
	}
}

func TestSnapshotChargeDeltaMAH(t *testing.T) {
	a := Snapshot{ChargeCounterUAH: counter(2_000_000)}
	b := Snapshot{ChargeCounterUAH: counter(2_900_000)}

	got := a.ChargeDeltaMAH(b)
	if got == nil || *got != 900 {
		t.Fatalf("expected 900 mAh, got %v", got)
	}
	got = b.ChargeDeltaMAH(a)
	if got == nil || *got != 900 {
		t.Fatalf("expected symmetric delta, got %v", got)
	}
}

func TestSnapshotChargeDeltaMAHMissingCounter(t *testing.T) {
	withCounter := Snapshot{ChargeCounterUAH: counter(2_000_000)}
	without := Snapshot{}

	if got := withCounter.ChargeDeltaMAH(without); got != nil {
		t.Fatalf("expected nil when other snapshot lacks a counter, got %v", got)
	}
	if got := without.ChargeDeltaMAH(withCounter); got != nil {
		t.Fatalf("expected nil when receiver lacks a counter, got %v", got)
	}
	if got := without.ChargeDeltaMAH(without); got != nil {
		t.Fatalf("expected nil when both lack counters, got %v", got)
	}
}
