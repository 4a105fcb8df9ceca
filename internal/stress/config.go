package stress

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes a stress workload.
type Config struct {
	// Writers is the number of goroutines adding values.
	Writers int `yaml:"writers"`

	// Removers is the number of goroutines removing random values.
	Removers int `yaml:"removers"`

	// Readers is the number of goroutines calling Contains,
	// traversing the list and reading its length.
	Readers int `yaml:"readers"`

	// Consumers is the number of goroutines draining cursors
	// and removing a fraction of the entries they see.
	Consumers int `yaml:"consumers"`

	// OpsPerWorker is the number of operations each goroutine performs.
	OpsPerWorker int `yaml:"ops_per_worker"`

	// ClearEvery causes the first writer to clear the list after
	// every ClearEvery adds. Zero disables clearing.
	ClearEvery int `yaml:"clear_every"`

	// Duration, if non-zero, bounds the total run time.
	Duration time.Duration `yaml:"duration,omitempty"`
}

// DefaultConfig returns the configuration used when no
// configuration file is given.
func DefaultConfig() Config {
	return Config{
		Writers:      4,
		Removers:     2,
		Readers:      2,
		Consumers:    2,
		OpsPerWorker: 10000,
	}
}

// LoadConfig reads a YAML configuration from path. Fields not
// present in the file keep their values from DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration describes a runnable workload.
func (c Config) Validate() error {
	var errs []error
	for _, f := range []struct {
		name string
		n    int
	}{
		{"writers", c.Writers},
		{"removers", c.Removers},
		{"readers", c.Readers},
		{"consumers", c.Consumers},
		{"clear_every", c.ClearEvery},
	} {
		if f.n < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative (got %d)", f.name, f.n))
		}
	}
	if c.Writers == 0 {
		errs = append(errs, errors.New("at least one writer is required"))
	}
	if c.OpsPerWorker <= 0 {
		errs = append(errs, fmt.Errorf("ops_per_worker must be positive (got %d)", c.OpsPerWorker))
	}
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative (got %v)", c.Duration))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid stress config: %w", err)
	}
	return nil
}
