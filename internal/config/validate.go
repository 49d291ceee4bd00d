package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateBank(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Source {
	case "ubuweb":
		if c.Catalog.IndexURL == "" {
			return errors.New("catalog.index_url must be set for the ubuweb source")
		}
	case "dir":
		if c.Catalog.LocalDir == "" {
			return errors.New("catalog.local_dir must be set for the dir source")
		}
	default:
		return fmt.Errorf("catalog.source must be one of ubuweb, dir (got %q)", c.Catalog.Source)
	}
	if c.Catalog.RequestTimeout <= 0 {
		return errors.New("catalog.request_timeout must be positive")
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		return errors.New("catalog.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateBank() error {
	if c.Bank.Banks <= 0 {
		return errors.New("bank.banks must be positive")
	}
	if c.Bank.Stations <= 0 {
		return errors.New("bank.stations must be positive")
	}
	if c.Bank.Minutes <= 0 {
		return errors.New("bank.minutes must be positive")
	}
	if c.Bank.Diversity <= 0 {
		return errors.New("bank.diversity must be positive")
	}
	if c.Bank.MinFillRatio < 0 || c.Bank.MinFillRatio > 1 {
		return errors.New("bank.min_fill_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	switch c.Audio.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("audio.bit_depth must be 8, 16, 24 or 32 (got %d)", c.Audio.BitDepth)
	}
	if c.Audio.Channels <= 0 {
		return errors.New("audio.channels must be positive")
	}
	if c.Audio.CrossfadeSeconds < 0 {
		return errors.New("audio.crossfade_seconds must not be negative")
	}
	if c.Audio.SoxBinary == "" {
		return errors.New("audio.sox_binary must be set")
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Workers <= 0 {
		return errors.New("run.workers must be positive")
	}
	return nil
}
