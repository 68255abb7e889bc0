package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"battwatch/internal/models"
)

// Store keeps fast-path copies of the device spec and the latest health
// report, plus the crowd-sourced capacity aggregate.
type Store struct {
	client    *redis.Client
	reportTTL time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, reportTTL time.Duration) *Store {
	if reportTTL <= 0 {
		reportTTL = time.Hour
	}
	return &Store{client: client, reportTTL: reportTTL}
}

func specKey(deviceModel string) string {
	return fmt.Sprintf("specs:device:%s", deviceModel)
}

func reportKey(deviceModel string) string {
	return fmt.Sprintf("health:report:%s", deviceModel)
}

func crowdKey(deviceModel string) string {
	return fmt.Sprintf("crowd:capacity:%s", deviceModel)
}

// SaveSpec caches the resolved device spec. No TTL: first success wins.
func (s *Store) SaveSpec(ctx context.Context, spec *models.DeviceSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, specKey(spec.DeviceModel), data, 0).Err()
}

// GetSpec returns the cached spec, or nil on cache miss.
func (s *Store) GetSpec(ctx context.Context, deviceModel string) (*models.DeviceSpec, error) {
	result, err := s.client.Get(ctx, specKey(deviceModel)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var spec models.DeviceSpec
	if err := json.Unmarshal([]byte(result), &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// DeleteSpec drops the cached spec for the model.
func (s *Store) DeleteSpec(ctx context.Context, deviceModel string) error {
	return s.client.Del(ctx, specKey(deviceModel)).Err()
}

// SaveReportFor caches the latest health report for quick UI reads.
func (s *Store) SaveReportFor(ctx context.Context, deviceModel string, report *models.HealthReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, reportKey(deviceModel), data, s.reportTTL).Err()
}

// GetReport returns the cached report, or nil on cache miss.
func (s *Store) GetReport(ctx context.Context, deviceModel string) (*models.HealthReport, error) {
	result, err := s.client.Get(ctx, reportKey(deviceModel)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report models.HealthReport
	if err := json.Unmarshal([]byte(result), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteReport drops the cached report for the model.
func (s *Store) DeleteReport(ctx context.Context, deviceModel string) error {
	return s.client.Del(ctx, reportKey(deviceModel)).Err()
}

// Contribute adds one capacity observation to the crowd aggregate for the model.
func (s *Store) Contribute(ctx context.Context, deviceModel string, capacityMAH int) error {
	key := crowdKey(deviceModel)
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, "count", 1)
	pipe.HIncrBy(ctx, key, "sum", int64(capacityMAH))
	_, err := pipe.Exec(ctx)
	return err
}

// CrowdAverage returns the mean contributed capacity and the contributor count.
// Count is zero when no contributions exist.
func (s *Store) CrowdAverage(ctx context.Context, deviceModel string) (int, int, error) {
	vals, err := s.client.HGetAll(ctx, crowdKey(deviceModel)).Result()
	if err != nil {
		return 0, 0, err
	}
	count, _ := strconv.ParseInt(vals["count"], 10, 64)
	sum, _ := strconv.ParseInt(vals["sum"], 10, 64)
	if count <= 0 {
		return 0, 0, nil
	}
	return int(sum / count), int(count), nil
}
