package config

import (
	"bytes"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"osmedit/graph"
	"time"
)

type SessionConfig struct {
	User   string `yaml:"user"`
	UserID int64  `yaml:"user-id"`
	Server string `yaml:"server"`
}

type PolicyConfig struct {
	DiscardFraction float64       `yaml:"discard-fraction"`
	MaxQuadAge      time.Duration `yaml:"max-quad-age"`
	IndexCapacity   int           `yaml:"index-capacity"`
	MaxWayNodes     int           `yaml:"max-way-nodes"`
	Debug           bool          `yaml:"debug"`
}

type DownloadConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Config is the content of the optional policy file. Values missing in the file keep their defaults.
type Config struct {
	Session  SessionConfig  `yaml:"session"`
	Policy   PolicyConfig   `yaml:"policy"`
	Download DownloadConfig `yaml:"download"`
}

func Default() Config {
	policy := graph.DefaultPolicy()
	return Config{
		Session: SessionConfig{
			Server: "https://api.openstreetmap.org",
		},
		Policy: PolicyConfig{
			DiscardFraction: policy.DiscardFraction,
			MaxQuadAge:      policy.MaxQuadAge,
			IndexCapacity:   policy.IndexCapacity,
			MaxWayNodes:     policy.MaxWayNodes,
			Debug:           policy.Debug,
		},
		Download: DownloadConfig{
			Concurrency: 4,
		},
	}
}

// Load reads the config file. An empty path results in the default config.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "Unable to read config file %s", path)
	}

	config, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "Invalid config file %s", path)
	}

	sigolo.Debugf("Loaded config file %s", path)
	return config, nil
}

// Parse decodes YAML data on top of the default config. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	config := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "Unable to parse config")
	}

	return config, config.Validate()
}

func (c Config) Validate() error {
	if c.Policy.DiscardFraction < 0 || c.Policy.DiscardFraction > 1 {
		return errors.Errorf("Discard fraction must be between 0 and 1 but was %f", c.Policy.DiscardFraction)
	}
	if c.Policy.MaxQuadAge <= 0 {
		return errors.Errorf("Max quad age must be positive but was %s", c.Policy.MaxQuadAge)
	}
	if c.Policy.IndexCapacity < 1 {
		return errors.Errorf("Index capacity must be at least 1 but was %d", c.Policy.IndexCapacity)
	}
	if c.Policy.MaxWayNodes < 2 {
		return errors.Errorf("Max way nodes must be at least 2 but was %d", c.Policy.MaxWayNodes)
	}
	if c.Download.Concurrency < 1 {
		return errors.Errorf("Download concurrency must be at least 1 but was %d", c.Download.Concurrency)
	}
	return nil
}

func (c Config) GraphSession() graph.Session {
	return graph.Session{
		User:   c.Session.User,
		UserID: c.Session.UserID,
		Server: c.Session.Server,
	}
}

func (c Config) GraphPolicy() graph.Policy {
	return graph.Policy{
		DiscardFraction: c.Policy.DiscardFraction,
		MaxQuadAge:      c.Policy.MaxQuadAge,
		IndexCapacity:   c.Policy.IndexCapacity,
		MaxWayNodes:     c.Policy.MaxWayNodes,
		Debug:           c.Policy.Debug,
	}
}
