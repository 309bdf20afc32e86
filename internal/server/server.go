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

// Package server wires the conversion core and both protocol adapters into
// one HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nicholasgasior/convertd"
	"github.com/nicholasgasior/convertd/internal/auth"
	"github.com/nicholasgasior/convertd/internal/httpapi"
	"github.com/nicholasgasior/convertd/internal/mcp"
)

const readHeaderTimeout = 10 * time.Second

// Server serves the REST and MCP endpoints over a shared dispatcher.
type Server struct {
	cfg        Config
	logger     *zap.Logger
	dispatcher *convertd.Dispatcher
	router     http.Handler
}

// New builds the registry, dispatcher and router described by cfg.
func New(cfg Config, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reg, err := NewRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d := convertd.NewDispatcher(reg, DispatcherOptions(cfg, convertd.NewMetrics(promReg))...)

	s := &Server{cfg: cfg, logger: logger, dispatcher: d}
	s.router = s.routes(promReg)
	return s, nil
}

// NewRegistry builds the converter registry for cfg, logging media modules
// left out for lack of ffmpeg.
func NewRegistry(cfg Config, logger *zap.Logger) (*convertd.Registry, error) {
	opts := []convertd.BuiltinOption{
		convertd.WithFFmpeg(cfg.FFmpeg),
		convertd.WithSkipHook(func(name string, err error) {
			logger.Warn("converter disabled", zap.String("converter", name), zap.Error(err))
		}),
	}
	if len(cfg.Modules) > 0 {
		opts = append(opts, convertd.WithModules(cfg.Modules...))
	}
	reg, err := convertd.NewDefaultRegistry(opts...)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	return reg, nil
}

// DispatcherOptions translates cfg into dispatcher options.
func DispatcherOptions(cfg Config, m *convertd.Metrics) []convertd.Option {
	return []convertd.Option{
		convertd.WithStagingDir(cfg.StagingDir),
		convertd.WithTimeout(cfg.ConversionTimeout),
		convertd.WithMaxConcurrent(cfg.MaxConcurrent),
		convertd.WithAllowEmptyOutput(cfg.AllowEmptyOutput),
		convertd.WithMetrics(m),
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Dispatcher returns the dispatcher behind both adapters.
func (s *Server) Dispatcher() *convertd.Dispatcher {
	return s.dispatcher
}

func (s *Server) routes(promReg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH", "HEAD"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	httpapi.New(s.dispatcher,
		httpapi.WithVersion(s.cfg.Version),
		httpapi.WithMaxUpload(s.cfg.MaxUpload),
		httpapi.WithLogger(s.logger.Named("rest")),
	).Routes(r)

	validator := auth.NewStaticValidator(s.cfg.AuthTokens, s.cfg.AuthDefaultIdentity)
	r.Post("/mcp/validate", auth.ValidateHandler(validator, s.logger.Named("auth")))

	var mcpHandler http.Handler = mcp.New(s.dispatcher,
		mcp.WithVersion(s.cfg.Version),
		mcp.WithInlineMax(s.cfg.MCPInlineMax),
		mcp.WithLogger(s.logger.Named("mcp")),
	)
	if s.cfg.MCPRequireAuth {
		mcpHandler = auth.Middleware(validator)(mcpHandler)
	}
	r.Method(http.MethodPost, "/mcp", mcpHandler)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.StagingDir, 0o700); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.TLS() {
			s.logger.Info("starting HTTPS server", zap.String("addr", ln.Addr().String()))
			err = srv.ServeTLS(ln, s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-errCh
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
