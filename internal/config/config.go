// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads and validates the tracewatch configuration file.
//
// The file is YAML, or HCL when its name ends in .hcl, and may come from any go-getter source: a local path, a git
// repository, an HTTP URL and so on. Settings not present in the file keep their
// defaults, and command line flags override both.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"

	"github.com/matt-FFFFFF/tracewatch/internal/extraction"
)

var (
	// ErrGetConfigFile is returned when the configuration source cannot be fetched.
	ErrGetConfigFile = errors.New("failed to get config file")
	// ErrInvalidYaml is returned when the file is not valid configuration YAML.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidHCL is returned when the file is not valid configuration HCL.
	ErrInvalidHCL = errors.New("invalid HCL")
	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// View selects how progress is displayed.
type View string

// Views.
const (
	ViewAuto View = "auto" // TUI on a terminal, lines otherwise
	ViewTUI  View = "tui"
	ViewLine View = "line"
)

// Defaults.
const (
	DefaultServer         = "http://localhost:8000"
	DefaultStatusPath     = "/extraction/filter/"
	DefaultResultPath     = "/extraction/result/"
	DefaultInterval       = "1s"
	DefaultRequestTimeout = "0s"
	DefaultListen         = ":8000"
	DefaultStepDelay      = "2s"
)

// Config is the file and command line configuration.
type Config struct {
	Server         string   `yaml:"server" docdesc:"Base URL of the extraction server"`
	StatusPath     string   `yaml:"status_path" docdesc:"Path of the extraction status endpoint"`
	ResultPath     string   `yaml:"result_path" docdesc:"Path of the result page linked on completion"`
	Interval       string   `yaml:"interval" docdesc:"Delay between two polls, as a Go duration"`
	RequestTimeout string   `yaml:"request_timeout" docdesc:"Timeout for each HTTP request, 0s for none"`
	View           View     `yaml:"view" docdesc:"How progress is displayed" docenum:"auto,tui,line"`
	Execute        bool     `yaml:"execute" docdesc:"Submit the extraction form before watching"`
	Modules        []string `yaml:"modules" docdesc:"Optional modules to run when executing"`
	MetricsListen  string   `yaml:"metrics_listen" docdesc:"Address for Prometheus metrics while watching, empty to disable"`
	Serve          Serve    `yaml:"serve" docdesc:"Settings of the simulated extraction server"`
}

// Serve configures the simulated extraction server.
type Serve struct {
	Listen    string `yaml:"listen" docdesc:"Address to listen on"`
	StepDelay string `yaml:"step_delay" docdesc:"How long each simulated module runs, as a Go duration"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:         DefaultServer,
		StatusPath:     DefaultStatusPath,
		ResultPath:     DefaultResultPath,
		Interval:       DefaultInterval,
		RequestTimeout: DefaultRequestTimeout,
		View:           ViewAuto,
		Serve: Serve{
			Listen:    DefaultListen,
			StepDelay: DefaultStepDelay,
		},
	}
}

// Parse overlays YAML data on the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
	}

	return cfg, nil
}

// YAML renders the configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if err := validateServer(c.Server); err != nil {
		result = multierror.Append(result, err)
	}

	if c.StatusPath == "" || c.StatusPath[0] != '/' {
		result = multierror.Append(result, fmt.Errorf("status_path must start with '/': %q", c.StatusPath))
	}

	if c.ResultPath == "" || c.ResultPath[0] != '/' {
		result = multierror.Append(result, fmt.Errorf("result_path must start with '/': %q", c.ResultPath))
	}

	if d, err := time.ParseDuration(c.Interval); err != nil || d <= 0 {
		result = multierror.Append(result, fmt.Errorf("interval must be a positive duration: %q", c.Interval))
	}

	if d, err := time.ParseDuration(c.RequestTimeout); err != nil || d < 0 {
		result = multierror.Append(result, fmt.Errorf("request_timeout must be a duration >= 0: %q", c.RequestTimeout))
	}

	if d, err := time.ParseDuration(c.Serve.StepDelay); err != nil || d <= 0 {
		result = multierror.Append(result, fmt.Errorf("serve.step_delay must be a positive duration: %q", c.Serve.StepDelay))
	}

	switch c.View {
	case ViewAuto, ViewTUI, ViewLine:
	default:
		result = multierror.Append(result, fmt.Errorf("view must be one of auto, tui, line: %q", c.View))
	}

	if err := extraction.Validate(c.Modules); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

// IntervalDuration returns the poll interval. Call Validate first.
func (c Config) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// RequestTimeoutDuration returns the per-request timeout, zero for none. Call Validate first.
func (c Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// StepDelayDuration returns how long each simulated module runs. Call Validate first.
func (c Config) StepDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.Serve.StepDelay)
	return d
}

func validateServer(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("server is not a URL: %w", err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http or https URL with a host: %q", s)
	}

	return nil
}
