package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "battwatch/libs/config"
)

// Config defines daemon configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"BATTWATCH_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"BATTWATCH_DATABASE_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"BATTWATCH_REDIS_ADDR"`
		Password string `yaml:"password" env:"BATTWATCH_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"BATTWATCH_REDIS_DB"`
	} `yaml:"redis"`
	JWT struct {
		Secret string `yaml:"secret" env:"BATTWATCH_JWT_SECRET"`
	} `yaml:"jwt"`
	Device struct {
		Model        string  `yaml:"model" env:"BATTWATCH_DEVICE_MODEL"`
		Manufacturer string  `yaml:"manufacturer" env:"BATTWATCH_DEVICE_MANUFACTURER"`
		ScreenInches float64 `yaml:"screenInches" env:"BATTWATCH_DEVICE_SCREEN_INCHES"`
	} `yaml:"device"`
	SpecAPI struct {
		BaseURL string `yaml:"baseUrl" env:"BATTWATCH_SPEC_API_URL"`
	} `yaml:"specApi"`
	Sensor struct {
		SysfsRoot         string        `yaml:"sysfsRoot" env:"BATTWATCH_SYSFS_ROOT"`
		PowerPollInterval time.Duration `yaml:"powerPollInterval" env:"BATTWATCH_POWER_POLL_INTERVAL"`
	} `yaml:"sensor"`
	Monitor struct {
		ChargeSampleInterval    time.Duration `yaml:"chargeSampleInterval" env:"BATTWATCH_CHARGE_SAMPLE_INTERVAL"`
		DischargeSampleInterval time.Duration `yaml:"dischargeSampleInterval" env:"BATTWATCH_DISCHARGE_SAMPLE_INTERVAL"`
		MaxTemperatureC         float64       `yaml:"maxTemperatureC" env:"BATTWATCH_MAX_TEMPERATURE_C"`
		StaleSessionAge         time.Duration `yaml:"staleSessionAge" env:"BATTWATCH_STALE_SESSION_AGE"`
	} `yaml:"monitor"`
	Report struct {
		CacheTTL time.Duration `yaml:"cacheTtl" env:"BATTWATCH_REPORT_CACHE_TTL"`
	} `yaml:"report"`
}

// Load configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if strings.TrimSpace(cfg.Device.Model) == "" {
		cfg.Device.Model = "unknown"
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
