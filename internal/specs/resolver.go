package specs

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"battwatch/internal/models"
)

// Probe is one mechanism for looking up a device's design capacity.
// A nil spec with nil error means "no match"; errors are logged by the
// resolver and treated the same way.
type Probe interface {
	Name() string
	Lookup(ctx context.Context, device models.DeviceInfo) (*models.DeviceSpec, error)
}

// SpecStore is the durable spec cache.
type SpecStore interface {
	GetByModel(ctx context.Context, deviceModel string) (*models.DeviceSpec, error)
	Upsert(ctx context.Context, spec *models.DeviceSpec) error
}

// SpecCache is the fast-path spec cache.
type SpecCache interface {
	GetSpec(ctx context.Context, deviceModel string) (*models.DeviceSpec, error)
	SaveSpec(ctx context.Context, spec *models.DeviceSpec) error
}

// ErrNoProbeMatched is returned only when the chain was built without a
// last-resort probe, which production wiring never does.
var ErrNoProbeMatched = errors.New("specs: no probe matched")

// Resolver walks the probe chain in priority order and caches the first
// success. A cached spec is never superseded by a later resolution.
type Resolver struct {
	device models.DeviceInfo
	store  SpecStore
	cache  SpecCache
	probes []Probe
	logger *zap.Logger

	mu       sync.Mutex
	resolved *models.DeviceSpec
}

// NewResolver builds the resolver. cache may be nil.
func NewResolver(device models.DeviceInfo, store SpecStore, cache SpecCache, probes []Probe, logger *zap.Logger) *Resolver {
	return &Resolver{
		device: device,
		store:  store,
		cache:  cache,
		probes: probes,
		logger: logger,
	}
}

// Resolve returns the device spec, consulting (in order) the in-memory memo,
// the redis cache, the durable store, then the probe chain.
func (r *Resolver) Resolve(ctx context.Context) (*models.DeviceSpec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return r.resolved, nil
	}

	if r.cache != nil {
		spec, err := r.cache.GetSpec(ctx, r.device.Model)
		if err != nil {
			r.logger.Warn("spec cache read failed", zap.Error(err))
		} else if spec != nil {
			r.resolved = spec
			return spec, nil
		}
	}

	if r.store != nil {
		spec, err := r.store.GetByModel(ctx, r.device.Model)
		if err != nil {
			return nil, err
		}
		if spec != nil {
			r.saveToCache(ctx, spec)
			r.resolved = spec
			return spec, nil
		}
	}

	for _, probe := range r.probes {
		spec, err := probe.Lookup(ctx, r.device)
		if err != nil {
			r.logger.Warn("spec probe failed",
				zap.String("probe", probe.Name()),
				zap.Error(err))
			continue
		}
		if spec == nil {
			continue
		}

		spec.DeviceModel = r.device.Model
		if spec.Manufacturer == "" {
			spec.Manufacturer = r.device.Manufacturer
		}
		r.persist(ctx, spec)
		r.resolved = spec

		r.logger.Info("device spec resolved",
			zap.String("probe", probe.Name()),
			zap.Int("capacity_mah", spec.CapacityMAH),
			zap.Float64("confidence", spec.Confidence))
		return spec, nil
	}

	return nil, ErrNoProbeMatched
}

func (r *Resolver) persist(ctx context.Context, spec *models.DeviceSpec) {
	if r.store != nil {
		if err := r.store.Upsert(ctx, spec); err != nil {
			r.logger.Warn("failed to persist device spec", zap.Error(err))
		}
	}
	r.saveToCache(ctx, spec)
}

func (r *Resolver) saveToCache(ctx context.Context, spec *models.DeviceSpec) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SaveSpec(ctx, spec); err != nil {
		r.logger.Warn("failed to cache device spec", zap.Error(err))
	}
}
