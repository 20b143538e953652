package config

import (
	"os"
	"osmedit/graph"
	"osmedit/util"
	"path/filepath"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	// Arrange
	data := []byte(`
session:
  user: mapper
  user-id: 42
policy:
  discard-fraction: 0.5
  max-quad-age: 48h
  debug: true
`)

	// Act
	config, err := Parse(data)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, "mapper", config.Session.User)
	util.AssertEqual(t, int64(42), config.Session.UserID)
	util.AssertEqual(t, "https://api.openstreetmap.org", config.Session.Server)
	util.AssertEqual(t, 0.5, config.Policy.DiscardFraction)
	util.AssertEqual(t, 48*time.Hour, config.Policy.MaxQuadAge)
	util.AssertEqual(t, 40, config.Policy.IndexCapacity)
	util.AssertEqual(t, 2000, config.Policy.MaxWayNodes)
	util.AssertTrue(t, config.Policy.Debug)
	util.AssertEqual(t, 4, config.Download.Concurrency)
}

func TestParse_empty(t *testing.T) {
	// Act
	config, err := Parse([]byte{})

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, Default(), config)
	util.AssertEqual(t, graph.DefaultPolicy(), config.GraphPolicy())
}

func TestParse_unknownKey(t *testing.T) {
	// Act
	_, err := Parse([]byte("policy:\n  discard: 0.5\n"))

	// Assert
	util.AssertErrorContains(t, "field discard not found", err)
}

func TestParse_invalidValues(t *testing.T) {
	_, err := Parse([]byte("policy:\n  discard-fraction: 1.5\n"))
	util.AssertError(t, "Discard fraction must be between 0 and 1 but was 1.500000", err)

	_, err = Parse([]byte("policy:\n  max-way-nodes: 1\n"))
	util.AssertError(t, "Max way nodes must be at least 2 but was 1", err)

	_, err = Parse([]byte("download:\n  concurrency: 0\n"))
	util.AssertError(t, "Download concurrency must be at least 1 but was 0", err)
}

func TestLoad(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "osmedit.yaml")
	util.AssertNil(t, os.WriteFile(path, []byte("session:\n  user: mapper\n"), 0644))

	// Act
	config, err := Load(path)
	util.AssertNil(t, err)
	defaultConfig, err := Load("")

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, "mapper", config.GraphSession().User)
	util.AssertEqual(t, Default(), defaultConfig)
}
