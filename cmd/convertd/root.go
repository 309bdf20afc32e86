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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nicholasgasior/convertd"
	"github.com/nicholasgasior/convertd/internal/server"
)

func newRootCommand() *cobra.Command {
	return newRoot(viper.New())
}

func newRoot(v *viper.Viper) *cobra.Command {
	defaults := server.DefaultConfig()

	root := &cobra.Command{
		Use:           "convertd",
		Short:         "File conversion service with REST and MCP front ends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfigFile(v)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (YAML, TOML or JSON)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console or json)")
	pf.String("staging-dir", defaults.StagingDir, "directory for per-conversion scratch files")
	pf.Duration("conversion-timeout", defaults.ConversionTimeout, "time limit for a single conversion (0 disables)")
	pf.Int("max-concurrent", 0, "conversions allowed to run at once (0 means one per CPU)")
	pf.Bool("allow-empty-output", false, "treat an empty output file as success")
	pf.StringSlice("modules", nil, "converters to enable, in priority order (default: "+strings.Join(convertd.BuiltinNames(), ",")+")")
	pf.String("ffmpeg", "", "ffmpeg binary used by the audio and video converters (default: search PATH)")
	bindFlags(v, pf, "config", "log-level", "log-format", "staging-dir", "conversion-timeout",
		"max-concurrent", "allow-empty-output", "modules", "ffmpeg")

	v.SetEnvPrefix("CONVERTD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		newServeCommand(v),
		newFormatsCommand(v),
		newConvertCommand(v),
		newVersionCommand(),
	)
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		flag := flags.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("flag %q not found", name))
		}
		if err := v.BindPFlag(name, flag); err != nil {
			panic(err)
		}
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the convertd version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "convertd %s\n", version)
			return err
		},
	}
}
