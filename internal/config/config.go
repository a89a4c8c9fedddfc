package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/docker/go-units"
	"github.com/redpwn/timelock/puzzle"
)

type size uint64

func (s *size) UnmarshalText(t []byte) error {
	v, err := units.RAMInBytes(string(t))
	*s = size(v)
	return err
}

func (s size) String() string {
	return units.HumanSize(float64(s))
}

type Config struct {
	ModBits      int           `env:"TIMELOCK_MOD_BITS" envDefault:"2048"`
	KeyBits      int           `env:"TIMELOCK_KEY_BITS" envDefault:"192"`
	Calibrate    bool          `env:"TIMELOCK_CALIBRATE" envDefault:"true"`
	Speed        uint64        `env:"TIMELOCK_SPEED"`
	Trials       int           `env:"TIMELOCK_TRIALS" envDefault:"100"`
	SaveEvery    time.Duration `env:"TIMELOCK_SAVE_EVERY" envDefault:"30m"`
	ReportEvery  uint64        `env:"TIMELOCK_REPORT_EVERY" envDefault:"12345"`
	Dir          string        `env:"TIMELOCK_DIR" envDefault:"."`
	MaxPayload   size          `env:"TIMELOCK_MAX_PAYLOAD" envDefault:"64M"`
	DefaultDelay time.Duration `env:"TIMELOCK_DEFAULT_DELAY" envDefault:"30s"`
	LogLevel     string        `env:"TIMELOCK_LOG_LEVEL" envDefault:"info"`
	Sandbox      bool          `env:"TIMELOCK_SANDBOX"`
}

func (c *Config) validate() error {
	if c.ModBits < 64 || c.ModBits%2 != 0 {
		return fmt.Errorf("modulus size %d must be even and at least 64", c.ModBits)
	}
	switch c.KeyBits {
	case 128, 192, 256:
	default:
		return fmt.Errorf("key size %d is not an AES key size", c.KeyBits)
	}
	if c.KeyBits >= c.ModBits {
		return errors.New("key size must be smaller than the modulus")
	}
	if !c.Calibrate && c.Speed == 0 {
		return errors.New("TIMELOCK_SPEED is required when calibration is disabled")
	}
	if c.SaveEvery <= 0 {
		return errors.New("save interval must be positive")
	}
	if c.ReportEvery == 0 {
		return errors.New("report interval must be positive")
	}
	if c.DefaultDelay < 0 {
		return errors.New("default delay must not be negative")
	}
	return nil
}

func (c *Config) CalibrationOptions() puzzle.CalibrationOptions {
	return puzzle.CalibrationOptions{
		Calibrate:   c.Calibrate,
		PresetSpeed: c.Speed,
		ModBits:     c.ModBits,
		Trials:      c.Trials,
	}
}

func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
