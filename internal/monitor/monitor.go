package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"battwatch/internal/health"
	"battwatch/internal/models"
	"battwatch/internal/sensor"
)

// Invalid-session reasons.
const (
	reasonTimeout              = "timeout"
	reasonAbnormalTermination  = "abnormal termination"
	reasonInsufficientDuration = "insufficient duration"
	reasonInsufficientChange   = "insufficient charge change"
)

// Plausible temperature window; readings outside it are sensor glitches and
// the tick is skipped rather than trusted.
const (
	minPlausibleTempC = -20.0
	maxPlausibleTempC = 100.0
)

// Config holds the sampling and validity policy. The exact thresholds vary
// between device classes, so they stay configurable.
type Config struct {
	ChargeSampleInterval    time.Duration
	DischargeSampleInterval time.Duration
	BatchSize               int
	MaxTemperatureC         float64
	FullChargeTicks         int
	StaleSessionAge         time.Duration
	MinSessionDuration      time.Duration
	MinPercentChange        int
	DischargeMinPercentDrop int
	Estimator               health.EstimatorConfig
}

// DefaultConfig returns the reference policy values.
func DefaultConfig() Config {
	return Config{
		ChargeSampleInterval:    30 * time.Second,
		DischargeSampleInterval: 5 * time.Minute,
		BatchSize:               5,
		MaxTemperatureC:         45,
		FullChargeTicks:         3,
		StaleSessionAge:         24 * time.Hour,
		MinSessionDuration:      time.Minute,
		MinPercentChange:        1,
		DischargeMinPercentDrop: 5,
		Estimator:               health.DefaultEstimatorConfig(),
	}
}

// SessionStore is the subset of the record store the monitor writes sessions through.
type SessionStore interface {
	Insert(ctx context.Context, session *models.Session) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	GetOpenSession(ctx context.Context) (*models.Session, error)
}

// MeasurementStore persists sampled readings.
type MeasurementStore interface {
	InsertBatch(ctx context.Context, measurements []models.Measurement) error
	GetBySession(ctx context.Context, sessionID int64) ([]models.Measurement, error)
}

// Contributor receives capacity estimates for the crowd aggregate.
type Contributor interface {
	Contribute(ctx context.Context, deviceModel string, capacityMAH int) error
}

// EventSink receives lifecycle notifications, e.g. for the websocket stream.
type EventSink interface {
	SessionStarted(session models.Session)
	SessionFinalized(session models.Session)
}

type commandKind int

const (
	cmdPowerConnected commandKind = iota
	cmdPowerDisconnected
	cmdChargeTick
	cmdDischargeTick
	cmdStaleCheck
	cmdStartDischargeTracking
	cmdStopDischargeTracking
)

type command struct {
	kind commandKind
	done chan struct{}
}

// Monitor owns the session state machine. All state mutations happen on the
// single goroutine running Run; external callers only enqueue commands.
type Monitor struct {
	cfg          Config
	reader       sensor.Reader
	sessions     SessionStore
	measurements MeasurementStore
	crowd        Contributor
	events       EventSink
	device       models.DeviceInfo
	logger       *zap.Logger
	clock        func() time.Time

	cmds    chan command
	stopped chan struct{}

	// Actor-owned state. Never touched outside the Run goroutine.
	session           *models.Session
	buffer            []models.Measurement
	fullTicks         int
	chargeTicker      *Recurring
	staleTimer        *time.Timer
	dischargeTracking bool
	dischargeTicker   *Recurring
	dischargeRef      *models.Snapshot
}

// New builds the monitor. crowd and events may be nil.
func New(cfg Config, reader sensor.Reader, sessions SessionStore, measurements MeasurementStore, crowd Contributor, events EventSink, device models.DeviceInfo, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:          cfg,
		reader:       reader,
		sessions:     sessions,
		measurements: measurements,
		crowd:        crowd,
		events:       events,
		device:       device,
		logger:       logger,
		clock:        func() time.Time { return time.Now().UTC() },
		cmds:         make(chan command, 16),
		stopped:      make(chan struct{}),
	}
}

// Run recovers any session left open by a previous process, then serves
// commands until the context is cancelled. Cancellation finalizes the open
// session through the normal path; nothing is silently abandoned.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.recoverOpenSession(ctx); err != nil {
		m.logger.Warn("session recovery failed", zap.Error(err))
	}

	defer close(m.stopped)

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return ctx.Err()
		case cmd := <-m.cmds:
			m.handle(ctx, cmd.kind)
			if cmd.done != nil {
				close(cmd.done)
			}
		}
	}
}

// NotifyPowerConnected reports that a charger was attached. Blocks until the
// state machine has processed the event.
func (m *Monitor) NotifyPowerConnected() { m.send(cmdPowerConnected) }

// NotifyPowerDisconnected reports that the charger was removed.
func (m *Monitor) NotifyPowerDisconnected() { m.send(cmdPowerDisconnected) }

// StartDischargeTracking begins periodic discharge observation.
func (m *Monitor) StartDischargeTracking() { m.send(cmdStartDischargeTracking) }

// StopDischargeTracking ends discharge observation.
func (m *Monitor) StopDischargeTracking() { m.send(cmdStopDischargeTracking) }

func (m *Monitor) send(kind commandKind) {
	done := make(chan struct{})
	select {
	case m.cmds <- command{kind: kind, done: done}:
	case <-m.stopped:
		return
	}
	select {
	case <-done:
	case <-m.stopped:
	}
}

// enqueueTick is used by timers; ticks are periodic, so dropping one when the
// queue is saturated is harmless.
func (m *Monitor) enqueueTick(kind commandKind) {
	select {
	case m.cmds <- command{kind: kind}:
	default:
		m.logger.Warn("command queue full, dropping tick")
	}
}

func (m *Monitor) handle(ctx context.Context, kind commandKind) {
	switch kind {
	case cmdPowerConnected:
		m.startSession(ctx)
	case cmdPowerDisconnected:
		// Disconnect ends the window through the same path as natural completion.
		m.finalize(ctx, "", false)
	case cmdChargeTick:
		m.sampleTick(ctx)
	case cmdDischargeTick:
		m.dischargeTick(ctx)
	case cmdStaleCheck:
		m.staleCheck(ctx)
	case cmdStartDischargeTracking:
		m.startDischargeTracking()
	case cmdStopDischargeTracking:
		m.stopDischargeTracking()
	}
}

// startSession opens a new observation window. Idempotent: an already open
// session keeps ownership of subsequent sampling.
func (m *Monitor) startSession(ctx context.Context) {
	if m.session != nil {
		m.logger.Debug("start requested with session already open", zap.Int64("session_id", m.session.ID))
		return
	}

	snap, err := sensor.TakeSnapshot(m.reader, m.clock())
	if err != nil {
		m.logger.Warn("failed to read start snapshot", zap.Error(err))
		return
	}

	session := &models.Session{
		StartTime:       snap.Timestamp,
		StartPercent:    snap.Percentage,
		StartChargeUAH:  snap.ChargeCounterUAH,
		AvgTemperatureC: snap.TemperatureC,
		MaxTemperatureC: snap.TemperatureC,
		AvgVoltageMV:    snap.VoltageMV,
		ChargerType:     m.reader.ChargerType(),
	}
	session, err = m.sessions.Insert(ctx, session)
	if err != nil {
		m.logger.Error("failed to persist new session", zap.Error(err))
		return
	}

	m.session = session
	m.fullTicks = 0
	m.resumeSampling()

	m.logger.Info("charging session started",
		zap.Int64("session_id", session.ID),
		zap.Int("start_percent", session.StartPercent),
		zap.String("charger_type", session.ChargerType))

	if m.events != nil {
		m.events.SessionStarted(*session)
	}
}

// resumeSampling arms the sampling ticker and the stale-session timeout for
// the current session.
func (m *Monitor) resumeSampling() {
	m.chargeTicker = NewRecurring(m.cfg.ChargeSampleInterval, func() { m.enqueueTick(cmdChargeTick) })

	remaining := m.cfg.StaleSessionAge - m.clock().Sub(m.session.StartTime)
	if remaining < 0 {
		remaining = 0
	}
	m.staleTimer = time.AfterFunc(remaining, func() { m.enqueueTick(cmdStaleCheck) })
}

// sampleTick runs one sampling cycle for the open charging session.
func (m *Monitor) sampleTick(ctx context.Context) {
	if m.session == nil {
		return
	}

	snap, err := sensor.TakeSnapshot(m.reader, m.clock())
	if err != nil {
		m.logger.Warn("sensor read failed, skipping tick", zap.Error(err))
		return
	}
	if snap.Percentage < 0 || snap.Percentage > 100 {
		m.logger.Warn("implausible percentage, skipping tick", zap.Int("percentage", snap.Percentage))
		return
	}
	if snap.TemperatureC < minPlausibleTempC || snap.TemperatureC > maxPlausibleTempC {
		m.logger.Warn("implausible temperature, skipping tick", zap.Float64("temperature_c", snap.TemperatureC))
		return
	}

	m.buffer = append(m.buffer, models.MeasurementFromSnapshot(m.session.ID, snap))
	if len(m.buffer) >= m.cfg.BatchSize {
		m.flush(ctx)
	}

	if snap.Percentage >= 100 {
		m.fullTicks++
	} else {
		m.fullTicks = 0
	}

	// Exit conditions, in priority order.
	if snap.TemperatureC > m.cfg.MaxTemperatureC {
		m.abort(ctx, fmt.Sprintf("high temperature: %.1f", snap.TemperatureC))
		return
	}

	charging, err := m.reader.Charging()
	if err != nil {
		m.logger.Warn("charging state read failed", zap.Error(err))
		charging = true
	}
	if !charging || m.fullTicks >= m.cfg.FullChargeTicks {
		m.finalize(ctx, "", false)
		return
	}

	if m.clock().Sub(m.session.StartTime) > m.cfg.StaleSessionAge {
		m.finalize(ctx, reasonTimeout, true)
	}
}

func (m *Monitor) staleCheck(ctx context.Context) {
	if m.session == nil {
		return
	}
	if m.clock().Sub(m.session.StartTime) >= m.cfg.StaleSessionAge {
		m.finalize(ctx, reasonTimeout, true)
	}
}

// abort invalidates the session immediately, bypassing the normal validity
// checks. Used for the temperature safety stop.
func (m *Monitor) abort(ctx context.Context, reason string) {
	m.logger.Warn("aborting session", zap.Int64("session_id", m.session.ID), zap.String("reason", reason))
	m.finalize(ctx, reason, true)
}

// finalize closes the open session: flushes the measurement buffer, computes
// aggregates over the persisted measurements, attempts the capacity estimate,
// applies the validity policy and persists the end state. Every path that
// ends a session goes through here. No-op when no session is open.
func (m *Monitor) finalize(ctx context.Context, invalidReason string, forceInvalid bool) {
	if m.session == nil {
		return
	}

	session := m.session
	m.stopSampling()

	endSnap, err := sensor.TakeSnapshot(m.reader, m.clock())
	if err != nil {
		m.logger.Warn("failed to read end snapshot", zap.Error(err))
		endSnap = m.lastBufferedOrStart(session)
	}

	m.flush(ctx)

	now := endSnap.Timestamp
	session.EndTime = &now
	session.EndPercent = &endSnap.Percentage
	session.EndChargeUAH = endSnap.ChargeCounterUAH
	m.applyAggregates(ctx, session)

	startSnap := models.Snapshot{
		Timestamp:        session.StartTime,
		Percentage:       session.StartPercent,
		ChargeCounterUAH: session.StartChargeUAH,
	}

	switch {
	case forceInvalid:
		session.Valid = false
		session.InvalidReason = invalidReason
	case endSnap.SecondsBetween(startSnap) < m.cfg.MinSessionDuration.Seconds():
		session.Valid = false
		session.InvalidReason = reasonInsufficientDuration
	case endSnap.PercentDelta(startSnap) < m.cfg.MinPercentChange:
		session.Valid = false
		session.InvalidReason = reasonInsufficientChange
	default:
		session.Valid = true
		session.InvalidReason = ""
		if capacity, ok := health.EstimateCapacityBetween(startSnap, endSnap, m.cfg.Estimator); ok {
			session.EstimatedCapacityMAH = &capacity
		}
	}

	if err := m.sessions.Update(ctx, session); err != nil {
		m.logger.Error("failed to persist finalized session", zap.Int64("session_id", session.ID), zap.Error(err))
	} else {
		m.logger.Info("session finalized",
			zap.Int64("session_id", session.ID),
			zap.Bool("valid", session.Valid),
			zap.String("invalid_reason", session.InvalidReason))
	}

	m.afterFinalize(ctx, *session)
	m.session = nil
	m.buffer = nil
	m.fullTicks = 0
}

func (m *Monitor) afterFinalize(ctx context.Context, session models.Session) {
	if session.Valid && session.EstimatedCapacityMAH != nil && m.crowd != nil {
		if err := m.crowd.Contribute(ctx, m.device.Model, *session.EstimatedCapacityMAH); err != nil {
			m.logger.Warn("crowd contribution failed", zap.Error(err))
		}
	}
	if m.events != nil {
		m.events.SessionFinalized(session)
	}
}

// applyAggregates recomputes the running statistics from all persisted
// measurements of the session.
func (m *Monitor) applyAggregates(ctx context.Context, session *models.Session) {
	measurements, err := m.measurements.GetBySession(ctx, session.ID)
	if err != nil {
		m.logger.Warn("failed to load measurements for aggregates", zap.Error(err))
		return
	}
	if len(measurements) == 0 {
		return
	}

	var tempSum, tempMax float64
	var voltageSum int
	tempMax = measurements[0].TemperatureC
	for _, meas := range measurements {
		tempSum += meas.TemperatureC
		if meas.TemperatureC > tempMax {
			tempMax = meas.TemperatureC
		}
		voltageSum += meas.VoltageMV
	}
	session.AvgTemperatureC = tempSum / float64(len(measurements))
	session.MaxTemperatureC = tempMax
	session.AvgVoltageMV = voltageSum / len(measurements)
}

// flush writes the buffered measurements. On failure the buffer is retained
// so the next flush re-delivers them; inserts are replace-on-conflict, so
// re-delivery is duplicate-safe.
func (m *Monitor) flush(ctx context.Context) {
	if len(m.buffer) == 0 {
		return
	}
	if err := m.measurements.InsertBatch(ctx, m.buffer); err != nil {
		m.logger.Warn("measurement flush failed, retaining buffer",
			zap.Int("buffered", len(m.buffer)), zap.Error(err))
		return
	}
	m.buffer = m.buffer[:0]
}

func (m *Monitor) lastBufferedOrStart(session *models.Session) models.Snapshot {
	if n := len(m.buffer); n > 0 {
		last := m.buffer[n-1]
		return models.Snapshot{
			Timestamp:        last.RecordedAt,
			Percentage:       last.Percentage,
			ChargeCounterUAH: last.ChargeCounterUAH,
			TemperatureC:     last.TemperatureC,
			VoltageMV:        last.VoltageMV,
		}
	}
	return models.Snapshot{
		Timestamp:        m.clock(),
		Percentage:       session.StartPercent,
		ChargeCounterUAH: session.StartChargeUAH,
		TemperatureC:     session.AvgTemperatureC,
		VoltageMV:        session.AvgVoltageMV,
	}
}

func (m *Monitor) stopSampling() {
	if m.chargeTicker != nil {
		m.chargeTicker.Cancel()
		m.chargeTicker = nil
	}
	if m.staleTimer != nil {
		m.staleTimer.Stop()
		m.staleTimer = nil
	}
}

// recoverOpenSession handles a session left open across a process restart.
func (m *Monitor) recoverOpenSession(ctx context.Context) error {
	open, err := m.sessions.GetOpenSession(ctx)
	if err != nil {
		return err
	}
	if open == nil {
		return nil
	}

	m.session = open
	age := m.clock().Sub(open.StartTime)

	if age > m.cfg.StaleSessionAge {
		m.logger.Warn("recovered stale open session, finalizing as invalid",
			zap.Int64("session_id", open.ID), zap.Duration("age", age))
		m.finalize(ctx, reasonAbnormalTermination, true)
		return nil
	}

	charging, err := m.reader.Charging()
	if err == nil && charging {
		m.logger.Info("resuming open session after restart", zap.Int64("session_id", open.ID))
		m.resumeSampling()
		return nil
	}

	m.finalize(ctx, reasonAbnormalTermination, true)
	return nil
}

func (m *Monitor) startDischargeTracking() {
	if m.dischargeTracking {
		return
	}
	m.dischargeTracking = true
	m.dischargeRef = nil
	m.dischargeTicker = NewRecurring(m.cfg.DischargeSampleInterval, func() { m.enqueueTick(cmdDischargeTick) })
	m.logger.Info("discharge tracking started")
}

func (m *Monitor) stopDischargeTracking() {
	if !m.dischargeTracking {
		return
	}
	m.dischargeTracking = false
	m.dischargeRef = nil
	if m.dischargeTicker != nil {
		m.dischargeTicker.Cancel()
		m.dischargeTicker = nil
	}
	m.logger.Info("discharge tracking stopped")
}

// dischargeTick compares the current snapshot against the held reference and
// records a synthetic finalized discharge session once the drop is large
// enough to estimate from.
func (m *Monitor) dischargeTick(ctx context.Context) {
	if !m.dischargeTracking || m.session != nil {
		return
	}

	snap, err := sensor.TakeSnapshot(m.reader, m.clock())
	if err != nil {
		m.logger.Warn("sensor read failed during discharge tick", zap.Error(err))
		return
	}
	if snap.Percentage < 0 || snap.Percentage > 100 {
		return
	}

	if m.dischargeRef == nil || snap.Percentage > m.dischargeRef.Percentage {
		// First observation, or the battery charged in between: re-anchor.
		m.dischargeRef = &snap
		return
	}

	drop := m.dischargeRef.Percentage - snap.Percentage
	if drop < m.cfg.DischargeMinPercentDrop {
		return
	}

	ref := *m.dischargeRef
	m.dischargeRef = &snap

	capacity, ok := health.EstimateCapacityBetween(ref, snap, m.cfg.Estimator)
	if !ok {
		m.logger.Debug("discharge interval not estimable, advancing reference")
		return
	}

	end := snap.Timestamp
	session := &models.Session{
		StartTime:            ref.Timestamp,
		EndTime:              &end,
		StartPercent:         ref.Percentage,
		EndPercent:           &snap.Percentage,
		StartChargeUAH:       ref.ChargeCounterUAH,
		EndChargeUAH:         snap.ChargeCounterUAH,
		AvgTemperatureC:      (ref.TemperatureC + snap.TemperatureC) / 2,
		MaxTemperatureC:      maxFloat(ref.TemperatureC, snap.TemperatureC),
		AvgVoltageMV:         (ref.VoltageMV + snap.VoltageMV) / 2,
		EstimatedCapacityMAH: &capacity,
		Valid:                true,
		ChargerType:          models.ChargerDischarge,
	}
	session, err = m.sessions.Insert(ctx, session)
	if err != nil {
		m.logger.Error("failed to persist discharge session", zap.Error(err))
		return
	}

	m.logger.Info("discharge data point recorded",
		zap.Int64("session_id", session.ID),
		zap.Int("percent_drop", drop),
		zap.Int("estimated_capacity_mah", capacity))
	m.afterFinalize(ctx, *session)
}

// shutdown finalizes any open session before the loop exits.
func (m *Monitor) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.finalize(ctx, "", false)
	m.stopDischargeTracking()
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
