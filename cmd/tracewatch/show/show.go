// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the show command and its subcommands, which print
// the effective configuration and the reference tables used by watch.
package show

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/TylerBrock/colorjson"
	"github.com/goccy/go-yaml"
	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/tracewatch/cmd/tracewatch/cliconfig"
	"github.com/matt-FFFFFF/tracewatch/internal/color"
	"github.com/matt-FFFFFF/tracewatch/internal/config"
	"github.com/matt-FFFFFF/tracewatch/internal/extraction"
	"github.com/matt-FFFFFF/tracewatch/internal/lineview"
	"github.com/matt-FFFFFF/tracewatch/internal/report"
	"github.com/matt-FFFFFF/tracewatch/internal/schema"
)

const (
	jsonFlag    = "json"
	formatFlag  = "format"
	schemaTitle = "tracewatch configuration"
	jsonIndent = 2
	tabPadding = 2
)

var (
	// ErrRenderConfig is returned when the configuration cannot be rendered.
	ErrRenderConfig = errors.New("failed to render configuration")
	// ErrWriteOutput is returned when the output cannot be written.
	ErrWriteOutput = errors.New("failed to write output")
	// ErrUnknownFormat is returned for an unsupported --format value.
	ErrUnknownFormat = errors.New("unknown format")
)

// ShowCmd groups the show subcommands.
var ShowCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show configuration and reference information",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Print the effective configuration: defaults, then the file, then flags",
				Flags: []cli.Flag{
					cliconfig.NewConfigFlag(),
					&cli.BoolFlag{
						Name:  jsonFlag,
						Usage: "Print as JSON instead of YAML",
					},
				},
				Action: configAction,
			},
			{
				Name:   "tiers",
				Usage:  "Print the progress ranges of each severity tier",
				Action: tiersAction,
			},
			{
				Name:  "schema",
				Usage: "Print the configuration file schema",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        formatFlag,
						Aliases:     []string{"f"},
						Usage:       "Output format: json or markdown",
						DefaultText: "json",
						Value:       "json",
					},
				},
				Action: schemaAction,
			},
			{
				Name:   "modules",
				Usage:  "Print the extraction modules in execution order",
				Action: modulesAction,
			},
		},
	}
}

func configAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := cliconfig.Load(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	data, err := cfg.YAML()
	if err != nil {
		return errors.Join(ErrRenderConfig, err)
	}

	if cmd.Bool(jsonFlag) {
		if data, err = colourJSON(data); err != nil {
			return errors.Join(ErrRenderConfig, err)
		}
	}

	if _, err := cmd.Root().Writer.Write(data); err != nil {
		return errors.Join(ErrWriteOutput, err)
	}

	return nil
}

// colourJSON converts YAML to indented JSON, coloured when the terminal allows.
func colourJSON(data []byte) ([]byte, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal(js, &obj); err != nil {
		return nil, err
	}

	f := colorjson.NewFormatter()
	f.Indent = jsonIndent
	f.DisabledColor = !color.Enabled()

	out, err := f.Marshal(obj)
	if err != nil {
		return nil, err
	}

	return append(out, '\n'), nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	return writeSchema(cmd.Root().Writer, cmd.String(formatFlag))
}

func writeSchema(w io.Writer, format string) error {
	g := schema.NewGenerator()

	var err error

	switch format {
	case "json":
		err = g.WriteJSONSchema(w, schemaTitle, config.Default())
	case "markdown", "md":
		err = g.WriteMarkdown(w, schemaTitle, config.Default())
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return errors.Join(ErrWriteOutput, err)
	}

	return nil
}

func tiersAction(_ context.Context, cmd *cli.Command) error {
	return writeTiers(cmd.Root().Writer)
}

func writeTiers(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)

	_, _ = fmt.Fprintln(tw, "TIER\tPROGRESS")

	for _, t := range report.Tiers {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", color.Colorize(t.String(), lineview.TierCodes[t]), t.Range())
	}

	if err := tw.Flush(); err != nil {
		return errors.Join(ErrWriteOutput, err)
	}

	return nil
}

func modulesAction(_ context.Context, cmd *cli.Command) error {
	return writeModules(cmd.Root().Writer)
}

func writeModules(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)

	_, _ = fmt.Fprintln(tw, "KEY\tNAME\tOPTIONAL")

	for _, m := range extraction.Catalogue {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\n", m.Key, m.Name, m.Optional)
	}

	if err := tw.Flush(); err != nil {
		return errors.Join(ErrWriteOutput, err)
	}

	return nil
}
