// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"path"
	"strings"

	"github.com/matt-FFFFFF/tracewatch/internal/hcl"
)

// hclFile mirrors Config for HCL decoding. Pointers distinguish unset
// attributes from zero values.
type hclFile struct {
	Server         *string   `hcl:"server,optional"`
	StatusPath     *string   `hcl:"status_path,optional"`
	ResultPath     *string   `hcl:"result_path,optional"`
	Interval       *string   `hcl:"interval,optional"`
	RequestTimeout *string   `hcl:"request_timeout,optional"`
	View           *string   `hcl:"view,optional"`
	Execute        *bool     `hcl:"execute,optional"`
	Modules        *[]string `hcl:"modules,optional"`
	MetricsListen  *string   `hcl:"metrics_listen,optional"`
	Serve          *hclServe `hcl:"serve,block"`
}

type hclServe struct {
	Listen    *string `hcl:"listen,optional"`
	StepDelay *string `hcl:"step_delay,optional"`
}

// ParseHCL overlays an HCL document on the defaults.
//
//	server   = env_or("TRACEX_URL", "http://localhost:8000")
//	interval = "500ms"
//
//	serve {
//	  step_delay = "1s"
//	}
func ParseHCL(filename string, data []byte) (Config, error) {
	var f hclFile
	if err := hcl.Decode(filename, data, &f); err != nil {
		return Config{}, errors.Join(ErrInvalidHCL, err)
	}

	cfg := Default()

	set(&cfg.Server, f.Server)
	set(&cfg.StatusPath, f.StatusPath)
	set(&cfg.ResultPath, f.ResultPath)
	set(&cfg.Interval, f.Interval)
	set(&cfg.RequestTimeout, f.RequestTimeout)
	set(&cfg.Execute, f.Execute)
	set(&cfg.Modules, f.Modules)
	set(&cfg.MetricsListen, f.MetricsListen)

	if f.View != nil {
		cfg.View = View(*f.View)
	}

	if f.Serve != nil {
		set(&cfg.Serve.Listen, f.Serve.Listen)
		set(&cfg.Serve.StepDelay, f.Serve.StepDelay)
	}

	return cfg, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// isHCL reports whether src names an HCL file, ignoring any go-getter query.
func isHCL(src string) bool {
	name, _, _ := strings.Cut(src, goGetterRefSeparator)

	return path.Ext(name) == hcl.FileExt
}
