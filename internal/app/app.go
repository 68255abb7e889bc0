package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"battwatch/internal/config"
	"battwatch/internal/health"
	httpserver "battwatch/internal/http"
	"battwatch/internal/http/handlers"
	"battwatch/internal/http/middleware"
	"battwatch/internal/models"
	"battwatch/internal/monitor"
	"battwatch/internal/redisstore"
	"battwatch/internal/repository"
	"battwatch/internal/sensor"
	"battwatch/internal/specs"
	"battwatch/internal/ws"
	libdb "battwatch/libs/db"
	libredis "battwatch/libs/redis"
)

const crowdMinContributors = 10

// App wires daemon dependencies.
type App struct {
	server  *httpserver.Server
	monitor *monitor.Monitor
	watcher *monitor.PowerWatcher
	db      *sql.DB
	redis   *redis.Client
	logger  *zap.Logger
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := libdb.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		db.Close()
		return nil, err
	}

	reader, err := sensor.NewSysfsReader(cfg.Sensor.SysfsRoot)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	sessionRepo := repository.NewSessionRepository(db)
	measurementRepo := repository.NewMeasurementRepository(db)
	specRepo := repository.NewSpecRepository(db)
	cache := redisstore.NewStore(redisClient, cfg.Report.CacheTTL)

	device := models.DeviceInfo{
		Model:        cfg.Device.Model,
		Manufacturer: cfg.Device.Manufacturer,
		ScreenInches: cfg.Device.ScreenInches,
	}

	embedded, err := specs.NewEmbeddedProbe()
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}
	probes := []specs.Probe{
		specs.NewPlatformProbe(reader),
		embedded,
	}
	if cfg.SpecAPI.BaseURL != "" {
		probes = append(probes, specs.NewAPIProbe(cfg.SpecAPI.BaseURL, nil))
	}
	probes = append(probes,
		specs.NewCrowdProbe(cache, crowdMinContributors),
		specs.NewScreenEstimateProbe(),
	)
	resolver := specs.NewResolver(device, specRepo, cache, probes, logger)

	aggregator := health.NewAggregator(sessionRepo, resolver,
		reportCache{store: cache, deviceModel: device.Model}, logger)

	hub := ws.NewHub(logger)
	mon := monitor.New(monitorConfig(cfg), reader, sessionRepo, measurementRepo, cache, hub, device, logger)
	watcher := monitor.NewPowerWatcher(reader, mon, cfg.Sensor.PowerPollInterval, logger)

	wiper := dataWiper{
		sessions:     sessionRepo,
		measurements: measurementRepo,
		cache:        cache,
		deviceModel:  device.Model,
	}
	auth := middleware.Auth(cfg.JWT.Secret)

	router := httpserver.NewRouter(httpserver.Routes{
		Report:          handlers.NewReportHandler(aggregator, hub),
		Sessions:        handlers.NewSessionsHandler(sessionRepo),
		CurrentSession:  handlers.NewCurrentSessionHandler(sessionRepo),
		DeviceSpec:      handlers.NewDeviceSpecHandler(resolver),
		DischargeStart:  handlers.NewDischargeStartHandler(mon),
		DischargeStop:   handlers.NewDischargeStopHandler(mon),
		AdminDeleteData: auth(handlers.NewAdminDeleteDataHandler(wiper)).ServeHTTP,
		Health:          handlers.NewHealthHandler(),
		WS:              ws.NewHandler(hub, 10*time.Second, logger),
	})

	server := httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)

	return &App{
		server:  server,
		monitor: mon,
		watcher: watcher,
		db:      db,
		redis:   redisClient,
		logger:  logger,
	}, nil
}

// Run serves HTTP traffic and drives the session state machine until ctx is
// cancelled. The monitor is waited on so an open session gets finalized
// before resources close.
func (a *App) Run(ctx context.Context) error {
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		if err := a.monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("monitor stopped", zap.Error(err))
		}
	}()
	go a.watcher.Run(ctx)

	err := a.server.Run(ctx)
	<-monitorDone
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

func monitorConfig(cfg *config.Config) monitor.Config {
	mc := monitor.DefaultConfig()
	if cfg.Monitor.ChargeSampleInterval > 0 {
		mc.ChargeSampleInterval = cfg.Monitor.ChargeSampleInterval
	}
	if cfg.Monitor.DischargeSampleInterval > 0 {
		mc.DischargeSampleInterval = cfg.Monitor.DischargeSampleInterval
	}
	if cfg.Monitor.MaxTemperatureC > 0 {
		mc.MaxTemperatureC = cfg.Monitor.MaxTemperatureC
	}
	if cfg.Monitor.StaleSessionAge > 0 {
		mc.StaleSessionAge = cfg.Monitor.StaleSessionAge
	}
	return mc
}

type reportCache struct {
	store       *redisstore.Store
	deviceModel string
}

func (c reportCache) SaveReport(ctx context.Context, report *models.HealthReport) error {
	return c.store.SaveReportFor(ctx, c.deviceModel, report)
}

type dataWiper struct {
	sessions     *repository.SessionRepository
	measurements *repository.MeasurementRepository
	cache        *redisstore.Store
	deviceModel  string
}

// Wipe removes all recorded sessions and measurements plus the cached report.
// The resolved device spec stays: it describes the hardware, not the history.
func (w dataWiper) Wipe(ctx context.Context) error {
	if err := w.measurements.DeleteAll(ctx); err != nil {
		return err
	}
	if err := w.sessions.DeleteAll(ctx); err != nil {
		return err
	}
	return w.cache.DeleteReport(ctx, w.deviceModel)
}
