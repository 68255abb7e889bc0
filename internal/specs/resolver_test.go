package specs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"battwatch/internal/models"
)

type fakeStore struct {
	spec     *models.DeviceSpec
	upserted *models.DeviceSpec
}

func (f *fakeStore) GetByModel(ctx context.Context, model string) (*models.DeviceSpec, error) {
	return f.spec, nil
}

func (f *fakeStore) Upsert(ctx context.Context, spec *models.DeviceSpec) error {
	f.upserted = spec
	return nil
}

type fakeProbe struct {
	name   string
	spec   *models.DeviceSpec
	err    error
	called int
}

func (f *fakeProbe) Name() string { return f.name }

func (f *fakeProbe) Lookup(ctx context.Context, device models.DeviceInfo) (*models.DeviceSpec, error) {
	f.called++
	return f.spec, f.err
}

var testDevice = models.DeviceInfo{Model: "Pixel 8", Manufacturer: "Google", ScreenInches: 6.2}

func TestResolverCachedStoreWins(t *testing.T) {
	store := &fakeStore{spec: &models.DeviceSpec{DeviceModel: "Pixel 8", CapacityMAH: 4575, Source: models.SpecSourceCache}}
	probe := &fakeProbe{name: "platform", spec: &models.DeviceSpec{CapacityMAH: 9999}}
	resolver := NewResolver(testDevice, store, nil, []Probe{probe}, zap.NewNop())

	spec, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if spec.CapacityMAH != 4575 {
		t.Fatalf("expected cached capacity 4575, got %d", spec.CapacityMAH)
	}
	if probe.called != 0 {
		t.Fatalf("probes must not run when the store has a spec")
	}
}

func TestResolverFirstSuccessWinsAndPersists(t *testing.T) {
	store := &fakeStore{}
	noMatch := &fakeProbe{name: "platform"}
	match := &fakeProbe{name: "embedded", spec: &models.DeviceSpec{CapacityMAH: 4575, Source: models.SpecSourceEmbedded, Confidence: 0.9}}
	never := &fakeProbe{name: "screen", spec: &models.DeviceSpec{CapacityMAH: 4000, Source: models.SpecSourceScreen, Confidence: 0.2}}
	resolver := NewResolver(testDevice, store, nil, []Probe{noMatch, match, never}, zap.NewNop())

	spec, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if spec.Source != models.SpecSourceEmbedded {
		t.Fatalf("expected embedded source, got %s", spec.Source)
	}
	if spec.DeviceModel != "Pixel 8" || spec.Manufacturer != "Google" {
		t.Fatalf("expected device identity filled in, got %+v", spec)
	}
	if never.called != 0 {
		t.Fatalf("later probes must not run after a success")
	}
	if store.upserted == nil {
		t.Fatalf("expected first success persisted")
	}

	// Second resolve is served from the memo; no probe re-runs.
	if _, err := resolver.Resolve(context.Background()); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if match.called != 1 {
		t.Fatalf("expected probe chain to run once, ran %d times", match.called)
	}
}

func TestResolverProbeErrorFallsThrough(t *testing.T) {
	store := &fakeStore{}
	failing := &fakeProbe{name: "api", err: errors.New("network down")}
	fallback := &fakeProbe{name: "screen", spec: &models.DeviceSpec{CapacityMAH: 4000, Source: models.SpecSourceScreen, Confidence: 0.2}}
	resolver := NewResolver(testDevice, store, nil, []Probe{failing, fallback}, zap.NewNop())

	spec, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if spec.Source != models.SpecSourceScreen {
		t.Fatalf("expected fall-through to screen estimate, got %s", spec.Source)
	}
}

func TestEmbeddedProbeExactAndSubstringMatch(t *testing.T) {
	probe, err := NewEmbeddedProbe()
	if err != nil {
		t.Fatalf("new embedded probe: %v", err)
	}

	spec, err := probe.Lookup(context.Background(), models.DeviceInfo{Model: "Pixel 8"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if spec == nil || spec.CapacityMAH != 4575 || spec.Confidence != 0.9 || !spec.Verified {
		t.Fatalf("unexpected exact match result: %+v", spec)
	}

	spec, err = probe.Lookup(context.Background(), models.DeviceInfo{Model: "Pixel 9 Pro XL"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if spec == nil || spec.Confidence != 0.75 || spec.Verified {
		t.Fatalf("unexpected substring match result: %+v", spec)
	}

	spec, err = probe.Lookup(context.Background(), models.DeviceInfo{Model: "UnknownPhone X"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if spec != nil {
		t.Fatalf("expected no match, got %+v", spec)
	}
}

func TestAPIProbeLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("model") != "Pixel 8" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"capacity_mah": 4575, "device_name": "Google Pixel 8", "confidence": 0.85, "verified": true}`))
	}))
	defer server.Close()

	probe := NewAPIProbe(server.URL, nil)

	spec, err := probe.Lookup(context.Background(), models.DeviceInfo{Model: "Pixel 8"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if spec == nil || spec.CapacityMAH != 4575 || spec.Confidence != 0.85 {
		t.Fatalf("unexpected api result: %+v", spec)
	}

	spec, err = probe.Lookup(context.Background(), models.DeviceInfo{Model: "Unknown"})
	if err != nil {
		t.Fatalf("lookup 404: %v", err)
	}
	if spec != nil {
		t.Fatalf("expected no match on 404, got %+v", spec)
	}
}

type fakeCrowd struct {
	avg          int
	contributors int
}

func (f *fakeCrowd) CrowdAverage(ctx context.Context, model string) (int, int, error) {
	return f.avg, f.contributors, nil
}

func TestCrowdProbeGatedOnContributors(t *testing.T) {
	probe := NewCrowdProbe(&fakeCrowd{avg: 4400, contributors: 9}, 10)
	spec, err := probe.Lookup(context.Background(), testDevice)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if spec != nil {
		t.Fatalf("expected no match under contributor threshold")
	}

	probe = NewCrowdProbe(&fakeCrowd{avg: 4400, contributors: 10}, 10)
	spec, err = probe.Lookup(context.Background(), testDevice)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if spec == nil || spec.CapacityMAH != 4400 || spec.Source != models.SpecSourceCrowd {
		t.Fatalf("unexpected crowd result: %+v", spec)
	}
}

func TestScreenEstimateProbeNeverFails(t *testing.T) {
	probe := NewScreenEstimateProbe()

	for _, inches := range []float64{0, 4.5, 5.2, 5.8, 6.3, 6.7, 11} {
		spec, err := probe.Lookup(context.Background(), models.DeviceInfo{Model: "AnyPhone", ScreenInches: inches})
		if err != nil {
			t.Fatalf("screen %.1f: %v", inches, err)
		}
		if spec == nil || spec.CapacityMAH <= 0 {
			t.Fatalf("screen %.1f: expected a guess, got %+v", inches, spec)
		}
		if spec.Confidence != 0.2 {
			t.Fatalf("screen %.1f: expected confidence 0.2, got %.2f", inches, spec.Confidence)
		}
	}
}

func TestPlatformProbe(t *testing.T) {
	mah := 4575
	probe := NewPlatformProbe(designCapacityFunc(func() *int { return &mah }))

	spec, err := probe.Lookup(context.Background(), testDevice)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if spec == nil || spec.CapacityMAH != 4575 || spec.Confidence != 0.95 || !spec.Verified {
		t.Fatalf("unexpected platform result: %+v", spec)
	}

	probe = NewPlatformProbe(designCapacityFunc(func() *int { return nil }))
	spec, err = probe.Lookup(context.Background(), testDevice)
	if err != nil || spec != nil {
		t.Fatalf("expected no match when platform lacks design capacity, got %+v %v", spec, err)
	}
}

type designCapacityFunc func() *int

func (f designCapacityFunc) DesignCapacityMAH() *int { return f() }
