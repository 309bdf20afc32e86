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

package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the resolved server settings.
type Config struct {
	Host    string
	Port    int
	TLSCert string
	TLSKey  string

	StagingDir        string
	ConversionTimeout time.Duration
	MaxConcurrent     int
	MaxUpload         int64
	MCPInlineMax      int64
	AllowEmptyOutput  bool
	Modules           []string
	FFmpeg            string

	AuthTokens          map[string]string
	AuthDefaultIdentity string
	MCPRequireAuth      bool

	ShutdownTimeout time.Duration
	Version         string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Host:                "0.0.0.0",
		Port:                8000,
		StagingDir:          filepath.Join(os.TempDir(), "convertd"),
		ConversionTimeout:   2 * time.Minute,
		MaxUpload:           100 << 20,
		MCPInlineMax:        20 << 20,
		AuthDefaultIdentity: "919876543210",
		ShutdownTimeout:     10 * time.Second,
		Version:             "dev",
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TLS reports whether the server should serve HTTPS.
func (c Config) TLS() bool {
	return c.TLSCert != "" || c.TLSKey != ""
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.StagingDir == "" {
		errs = append(errs, errors.New("staging dir is required"))
	}
	if c.ConversionTimeout < 0 {
		errs = append(errs, errors.New("conversion timeout must not be negative"))
	}
	if c.MaxConcurrent < 0 {
		errs = append(errs, errors.New("max concurrent must not be negative"))
	}
	if c.MaxUpload < 0 || c.MCPInlineMax < 0 {
		errs = append(errs, errors.New("size limits must not be negative"))
	}
	if c.TLS() {
		if c.TLSCert == "" || c.TLSKey == "" {
			errs = append(errs, errors.New("TLS needs both a certificate and a key"))
		}
		for _, f := range []string{c.TLSCert, c.TLSKey} {
			if f == "" {
				continue
			}
			if _, err := os.Stat(f); err != nil {
				errs = append(errs, fmt.Errorf("TLS file: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
