// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nicholasgasior/convertd"
	"github.com/nicholasgasior/convertd/internal/server"
)

func newConvertCommand(v *viper.Viper) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "convert <input> [output]",
		Short: "Convert a single file locally",
		Long: "Convert a single file through the same dispatcher the server uses.\n\n" +
			"Use - as input to read stdin (requires --from) and omit output or use - to write stdout (requires --to).",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], "-"
			if len(args) == 2 {
				output = args[1]
			}
			in, out, err := resolveFormats(input, output, from, to)
			if err != nil {
				return err
			}

			logger, err := loggerFromConfig(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg := coreConfig(v)
			if err := os.MkdirAll(cfg.StagingDir, 0o700); err != nil {
				return fmt.Errorf("create staging dir: %w", err)
			}
			reg, err := server.NewRegistry(cfg, logger)
			if err != nil {
				return err
			}
			d := convertd.NewDispatcher(reg, server.DispatcherOptions(cfg, nil)...)

			payload, err := readSource(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			data, err := d.Dispatch(cmd.Context(), in, out, payload)
			if err != nil {
				return err
			}
			logger.Debug("converted",
				zap.Stringer("from", in), zap.Stringer("to", out),
				zap.String("in", humanize.Bytes(uint64(len(payload)))),
				zap.String("out", humanize.Bytes(uint64(len(data)))))

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "input format (default: input file extension)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "output format (default: output file extension)")
	return cmd
}

func resolveFormats(input, output, from, to string) (convertd.Format, convertd.Format, error) {
	if from == "" && input != "-" {
		from = filepath.Ext(input)
	}
	if to == "" && output != "-" {
		to = filepath.Ext(output)
	}
	in, out := convertd.NormalizeFormat(from), convertd.NormalizeFormat(to)
	switch {
	case in == "":
		return "", "", errors.New("cannot tell the input format; pass --from")
	case out == "":
		return "", "", errors.New("cannot tell the output format; pass --to")
	}
	return in, out, nil
}

func readSource(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
