package health

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"battwatch/internal/models"
)

type fakeSessionSource struct {
	sessions []models.Session
	total    int
	err      error
}

func (f *fakeSessionSource) GetValidSessions(ctx context.Context) ([]models.Session, error) {
	return f.sessions, f.err
}

func (f *fakeSessionSource) CountSessions(ctx context.Context) (int, error) {
	return f.total, f.err
}

type fakeSpecSource struct {
	spec *models.DeviceSpec
}

func (f *fakeSpecSource) Resolve(ctx context.Context) (*models.DeviceSpec, error) {
	return f.spec, nil
}

type fakeReportCache struct {
	saved *models.HealthReport
	err   error
}

func (f *fakeReportCache) SaveReport(ctx context.Context, report *models.HealthReport) error {
	f.saved = report
	return f.err
}

func validSession(capacity int, chargerType string) models.Session {
	return models.Session{
		Valid:                true,
		ChargerType:          chargerType,
		EstimatedCapacityMAH: &capacity,
	}
}

func testSpec(capacity int, confidence float64) *models.DeviceSpec {
	return &models.DeviceSpec{
		DeviceModel: "Pixel 8",
		CapacityMAH: capacity,
		Source:      models.SpecSourceEmbedded,
		Confidence:  confidence,
	}
}

func TestAggregatorInsufficientData(t *testing.T) {
	agg := NewAggregator(&fakeSessionSource{}, &fakeSpecSource{spec: testSpec(3000, 0.9)}, nil, zap.NewNop())

	_, err := agg.Compute(context.Background())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAggregatorChargeEvidenceWeightedDouble(t *testing.T) {
	sessions := &fakeSessionSource{
		sessions: []models.Session{
			validSession(3000, models.ChargerAC),
			validSession(2400, models.ChargerDischarge),
		},
		total: 2,
	}
	agg := NewAggregator(sessions, &fakeSpecSource{spec: testSpec(3000, 0.9)}, nil, zap.NewNop())

	report, err := agg.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// (3000*2 + 2400) / 3 = 2800
	if report.EstimatedCapacityMAH != 2800 {
		t.Fatalf("expected weighted mean 2800, got %d", report.EstimatedCapacityMAH)
	}
	if report.ValidSessions != 2 || report.TotalSessions != 2 {
		t.Fatalf("unexpected session counts: %d/%d", report.ValidSessions, report.TotalSessions)
	}
}

func TestAggregatorClampsHealthPercent(t *testing.T) {
	sessions := &fakeSessionSource{
		sessions: []models.Session{validSession(4000, models.ChargerAC)},
		total:    1,
	}
	agg := NewAggregator(sessions, &fakeSpecSource{spec: testSpec(3000, 0.9)}, nil, zap.NewNop())

	report, err := agg.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if report.HealthPercent != 105 {
		t.Fatalf("expected clamp at 105, got %.1f", report.HealthPercent)
	}
}

func TestAggregatorFiltersOutliersPerPartition(t *testing.T) {
	sessions := &fakeSessionSource{
		sessions: []models.Session{
			validSession(2900, models.ChargerAC),
			validSession(3000, models.ChargerUSB),
			validSession(3100, models.ChargerAC),
			validSession(3200, models.ChargerAC),
			validSession(3300, models.ChargerWireless),
			validSession(5000, models.ChargerAC),
		},
		total: 6,
	}
	agg := NewAggregator(sessions, &fakeSpecSource{spec: testSpec(3100, 0.9)}, nil, zap.NewNop())

	report, err := agg.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// 5000 is fenced out; mean of the remaining five is 3100.
	if report.EstimatedCapacityMAH != 3100 {
		t.Fatalf("expected 3100 after outlier rejection, got %d", report.EstimatedCapacityMAH)
	}
	if report.HealthPercent != 100 {
		t.Fatalf("expected 100%% health, got %.1f", report.HealthPercent)
	}
}

func TestAggregatorPassesThroughSpecFields(t *testing.T) {
	sessions := &fakeSessionSource{
		sessions: []models.Session{validSession(3000, models.ChargerAC)},
		total:    3,
	}
	cache := &fakeReportCache{}
	agg := NewAggregator(sessions, &fakeSpecSource{spec: testSpec(3000, 0.95)}, cache, zap.NewNop())

	report, err := agg.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if report.SpecSource != models.SpecSourceEmbedded || report.SpecConfidence != 0.95 {
		t.Fatalf("expected spec pass-through, got %s/%.2f", report.SpecSource, report.SpecConfidence)
	}
	if cache.saved == nil {
		t.Fatalf("expected report cached")
	}
}

func TestAggregatorCacheFailureIsNotFatal(t *testing.T) {
	sessions := &fakeSessionSource{
		sessions: []models.Session{validSession(3000, models.ChargerAC)},
		total:    1,
	}
	cache := &fakeReportCache{err: errors.New("redis down")}
	agg := NewAggregator(sessions, &fakeSpecSource{spec: testSpec(3000, 0.9)}, cache, zap.NewNop())

	if _, err := agg.Compute(context.Background()); err != nil {
		t.Fatalf("expected cache failure to be swallowed, got %v", err)
	}
}

func TestAggregatorIgnoresSessionsWithoutEstimate(t *testing.T) {
	noEstimate := models.Session{Valid: true, ChargerType: models.ChargerAC}
	sessions := &fakeSessionSource{
		sessions: []models.Session{noEstimate},
		total:    1,
	}
	agg := NewAggregator(sessions, &fakeSpecSource{spec: testSpec(3000, 0.9)}, nil, zap.NewNop())

	if _, err := agg.Compute(context.Background()); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
