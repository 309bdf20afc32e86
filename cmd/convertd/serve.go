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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nicholasgasior/convertd/internal/server"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	defaults := server.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (REST and MCP endpoints)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := serverConfig(v)
			if err != nil {
				return err
			}
			logger, err := loggerFromConfig(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}
			logger.Info("converters registered",
				zap.Strings("modules", registeredNames(srv.Dispatcher().Registry())),
				zap.String("version", cfg.Version))
			return srv.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("host", defaults.Host, "address to listen on")
	flags.Int("port", defaults.Port, "port to listen on")
	flags.String("tls-cert", "", "TLS certificate file (enables HTTPS together with --tls-key)")
	flags.String("tls-key", "", "TLS private key file")
	flags.String("max-upload", "100MiB", "largest accepted POST /convert body")
	flags.String("mcp-inline-max", "20MiB", "largest decoded file_content accepted by convert_file")
	flags.Duration("shutdown-timeout", defaults.ShutdownTimeout, "grace period for in-flight requests on shutdown")
	flags.StringToString("auth-tokens", nil, "accepted bearer tokens as token=phone (empty accepts any token)")
	flags.String("auth-default-identity", defaults.AuthDefaultIdentity, "phone returned for tokens when --auth-tokens is empty")
	flags.Bool("mcp-require-auth", false, "require a bearer token on POST /mcp")
	bindFlags(v, flags, "host", "port", "tls-cert", "tls-key", "max-upload", "mcp-inline-max",
		"shutdown-timeout", "auth-tokens", "auth-default-identity", "mcp-require-auth")
	bindLegacyEnv(v)
	return cmd
}
