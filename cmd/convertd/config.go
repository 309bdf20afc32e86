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
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nicholasgasior/convertd/internal/server"
)

// legacyEnv lists the environment names the service answered to before the
// CONVERTD_ prefix existed.
var legacyEnv = map[string]string{
	"host":     "HOST",
	"port":     "PORT",
	"tls-key":  "SSL_KEYFILE",
	"tls-cert": "SSL_CERTFILE",
}

func bindLegacyEnv(v *viper.Viper) {
	for key, env := range legacyEnv {
		prefixed := "CONVERTD_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			panic(err)
		}
	}
}

func loadConfigFile(v *viper.Viper) error {
	path := strings.TrimSpace(v.GetString("config"))
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("expand config path %q: %w", path, err)
		}
		path = filepath.Join(home, path[2:])
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("config file %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config file %q is a directory", path)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	return nil
}

// coreConfig resolves the settings shared by every subcommand.
func coreConfig(v *viper.Viper) server.Config {
	cfg := server.DefaultConfig()
	cfg.Version = version
	cfg.StagingDir = v.GetString("staging-dir")
	cfg.ConversionTimeout = v.GetDuration("conversion-timeout")
	cfg.MaxConcurrent = v.GetInt("max-concurrent")
	cfg.AllowEmptyOutput = v.GetBool("allow-empty-output")
	cfg.Modules = splitList(v.GetStringSlice("modules"))
	cfg.FFmpeg = v.GetString("ffmpeg")
	return cfg
}

// serverConfig resolves the full server settings.
func serverConfig(v *viper.Viper) (server.Config, error) {
	cfg := coreConfig(v)
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.TLSCert = v.GetString("tls-cert")
	cfg.TLSKey = v.GetString("tls-key")
	cfg.ShutdownTimeout = v.GetDuration("shutdown-timeout")
	cfg.AuthDefaultIdentity = v.GetString("auth-default-identity")
	cfg.MCPRequireAuth = v.GetBool("mcp-require-auth")

	var err error
	if cfg.MaxUpload, err = parseBytes(v, "max-upload"); err != nil {
		return cfg, err
	}
	if cfg.MCPInlineMax, err = parseBytes(v, "mcp-inline-max"); err != nil {
		return cfg, err
	}
	if cfg.AuthTokens, err = stringMap(v.Get("auth-tokens")); err != nil {
		return cfg, fmt.Errorf("parse auth-tokens: %w", err)
	}
	return cfg, cfg.Validate()
}

func parseBytes(v *viper.Viper, key string) (int64, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" || raw == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return int64(n), nil
}

// splitList flattens comma separated entries, as environment variables carry
// lists as a single string.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// stringMap accepts the shapes a token=identity table arrives in: a map from a
// config file or flag, or "a=1,b=2" from the environment.
func stringMap(raw any) (map[string]string, error) {
	out := map[string]string{}
	switch m := raw.(type) {
	case nil:
	case map[string]string:
		for k, val := range m {
			out[k] = val
		}
	case map[string]any:
		for k, val := range m {
			out[k] = fmt.Sprint(val)
		}
	case string:
		// pflag renders an unset map flag as "[]".
		m = strings.Trim(strings.TrimSpace(m), "[]")
		for _, pair := range splitList([]string{m}) {
			k, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("entry %q is not token=identity", pair)
			}
			out[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
	default:
		return nil, fmt.Errorf("unsupported value of type %T", raw)
	}
	return out, nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log-level: %w", err)
	}
	var cfg zap.Config
	switch strings.ToLower(format) {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log-format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func loggerFromConfig(v *viper.Viper) (*zap.Logger, error) {
	return newLogger(v.GetString("log-level"), v.GetString("log-format"))
}
