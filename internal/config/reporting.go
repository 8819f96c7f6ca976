package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReportingConfig holds the tunable knobs for the report engine.
type ReportingConfig struct {
	DefaultWindowDays int `mapstructure:"defaultWindowDays"`
	MaxWindowDays     int `mapstructure:"maxWindowDays"`
	MaxRows           int `mapstructure:"maxRows"`
}

func DefaultReportingConfig() ReportingConfig {
	return ReportingConfig{
		DefaultWindowDays: 180,
		MaxWindowDays:     1095,
		MaxRows:           50_000,
	}
}

type ReportingConfigHolder struct {
	current atomic.Value // holds ReportingConfig
}

func NewReportingConfigHolder() (*ReportingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("reporting")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/advocase/config") // Volume-mounted config
	v.AddConfigPath("/etc/advocase")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("ADVOCASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultReportingConfig()
		v.SetDefault("reporting.defaultWindowDays", defaults.DefaultWindowDays)
		v.SetDefault("reporting.maxWindowDays", defaults.MaxWindowDays)
		v.SetDefault("reporting.maxRows", defaults.MaxRows)
	}

	var cfg ReportingConfig
	if err := v.UnmarshalKey("reporting", &cfg); err != nil {
		return nil, err
	}
	if err := validateReportingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ReportingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ReportingConfig
		if err := v.UnmarshalKey("reporting", &updated); err != nil {
			log.Printf("[reporting-config] reload failed: %v", err)
			return
		}
		if err := validateReportingConfig(updated); err != nil {
			log.Printf("[reporting-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[reporting-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ReportingConfigHolder) Get() ReportingConfig {
	return h.current.Load().(ReportingConfig)
}

func validateReportingConfig(cfg ReportingConfig) error {
	if cfg.DefaultWindowDays <= 0 {
		return errors.New("reporting.defaultWindowDays must be positive")
	}
	if cfg.MaxWindowDays < cfg.DefaultWindowDays {
		return errors.New("reporting.maxWindowDays must cover the default window")
	}
	if cfg.MaxRows <= 0 {
		return errors.New("reporting.maxRows must be positive")
	}
	return nil
}
