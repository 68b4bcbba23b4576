// Package config loads the tool settings file.
package config

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/coreos/pkg/capnslog"
	"gopkg.in/yaml.v2"
)

// Filename is where init writes the settings and where the other
// commands look for them.
const Filename = "bytetree.yaml"

type Config struct {
	// Workers bounds how many units are processed at once.
	Workers int `yaml:"workers"`
	// FailFast stops starting new units after the first failure.
	FailFast bool   `yaml:"fail_fast"`
	LogLevel string `yaml:"log_level"`
	// Color prints error traces with highlighted source.
	Color bool `yaml:"color"`
}

func Default() Config {
	return Config{
		Workers:  4,
		LogLevel: "NOTICE",
		Color:    true,
	}
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := capnslog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level is the parsed log level. Call Validate first.
func (c Config) Level() capnslog.LogLevel {
	lvl, err := capnslog.ParseLevel(c.LogLevel)
	if err != nil {
		return capnslog.NOTICE
	}
	return lvl
}

// Parse reads settings over the defaults, so missing keys keep their
// default values.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
