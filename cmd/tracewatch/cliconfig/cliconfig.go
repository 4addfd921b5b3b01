// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cliconfig merges the configuration file with command line flags.
// Commands declare the flags they support; Load applies those that were set.
package cliconfig

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/tracewatch/internal/config"
)

// Flag names shared by the commands.
const (
	ConfigFlag         = "config"
	ServerFlag         = "server"
	StatusPathFlag     = "status-path"
	ResultPathFlag     = "result-path"
	IntervalFlag       = "interval"
	RequestTimeoutFlag = "request-timeout"
	TUIFlag            = "tui"
	LineFlag           = "line"
	ExecuteFlag        = "execute"
	ModuleFlag         = "module"
	MetricsListenFlag  = "metrics-listen"
	ListenFlag         = "listen"
	StepDelayFlag      = "step-delay"
)

// ErrConflictingViews is returned when both --tui and --line are given.
var ErrConflictingViews = errors.New("--tui and --line cannot be used together")

// NewConfigFlag returns the --config flag.
func NewConfigFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    ConfigFlag,
		Aliases: []string{"c"},
		Usage: "URL of the YAML or HCL configuration file. " +
			"Supports Hashicorp's go-getter syntax for fetching files from various sources.",
		TakesFile: true,
		OnlyOnce:  true,
	}
}

// NewStatusPathFlag returns the --status-path flag.
func NewStatusPathFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        StatusPathFlag,
		Usage:       "Path of the extraction status endpoint",
		DefaultText: config.DefaultStatusPath,
		OnlyOnce:    true,
	}
}

// Load reads the file named by --config and overlays every flag the user set.
// The result is validated.
func Load(ctx context.Context, cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(ctx, cmd.String(ConfigFlag))
	if err != nil {
		return config.Config{}, err
	}

	if err := Apply(cmd, &cfg); err != nil {
		return config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// Apply copies explicitly set flags into cfg.
func Apply(cmd *cli.Command, cfg *config.Config) error {
	setString(cmd, ServerFlag, &cfg.Server)
	setString(cmd, StatusPathFlag, &cfg.StatusPath)
	setString(cmd, ResultPathFlag, &cfg.ResultPath)
	setString(cmd, MetricsListenFlag, &cfg.MetricsListen)
	setString(cmd, ListenFlag, &cfg.Serve.Listen)
	setDuration(cmd, IntervalFlag, &cfg.Interval)
	setDuration(cmd, RequestTimeoutFlag, &cfg.RequestTimeout)
	setDuration(cmd, StepDelayFlag, &cfg.Serve.StepDelay)

	if cmd.IsSet(ExecuteFlag) {
		cfg.Execute = cmd.Bool(ExecuteFlag)
	}

	if cmd.IsSet(ModuleFlag) {
		cfg.Modules = cmd.StringSlice(ModuleFlag)
	}

	tui := cmd.IsSet(TUIFlag) && cmd.Bool(TUIFlag)
	line := cmd.IsSet(LineFlag) && cmd.Bool(LineFlag)

	switch {
	case tui && line:
		return ErrConflictingViews
	case tui:
		cfg.View = config.ViewTUI
	case line:
		cfg.View = config.ViewLine
	}

	return nil
}

func setString(cmd *cli.Command, name string, dst *string) {
	if cmd.IsSet(name) {
		*dst = cmd.String(name)
	}
}

func setDuration(cmd *cli.Command, name string, dst *string) {
	if cmd.IsSet(name) {
		*dst = cmd.Duration(name).String()
	}
}
