// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package hcl decodes HCL configuration files into Go structs.
//
// Expressions may call env(name) and env_or(name, fallback) to read
// environment variables, as well as a small set of string functions.
package hcl

import (
	"errors"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// FileExt is the extension that marks a configuration file as HCL.
const FileExt = ".hcl"

var (
	// ErrParse is returned when the file is not valid HCL syntax.
	ErrParse = errors.New("failed to parse HCL")
	// ErrDecode is returned when the file does not match the target struct.
	ErrDecode = errors.New("failed to decode HCL")
)

// EnvFunc returns the value of an environment variable, or "" when unset.
var EnvFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

// EnvOrFunc returns the value of an environment variable, or fallback when it
// is unset or empty.
var EnvOrFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
		{Name: "fallback", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		if v := os.Getenv(args[0].AsString()); v != "" {
			return cty.StringVal(v), nil
		}

		return args[1], nil
	},
})

// EvalContext returns the functions available to configuration expressions.
func EvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env":       EnvFunc,
			"env_or":    EnvOrFunc,
			"format":    stdlib.FormatFunc,
			"join":      stdlib.JoinFunc,
			"lower":     stdlib.LowerFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"upper":     stdlib.UpperFunc,
		},
	}
}

// Decode parses src and decodes it into target, which must be a pointer to a
// struct with hcl tags. Attributes absent from src leave target unchanged.
func Decode(filename string, src []byte, target any) error {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return errors.Join(ErrParse, diagnosticsError(diags))
	}

	if diags := gohcl.DecodeBody(file.Body, EvalContext(), target); diags.HasErrors() {
		return errors.Join(ErrDecode, diagnosticsError(diags))
	}

	return nil
}

func diagnosticsError(diags hcl.Diagnostics) error {
	var result *multierror.Error

	for _, err := range diags.Errs() {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}
