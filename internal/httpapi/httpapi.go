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

// Package httpapi serves the REST conversion endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nicholasgasior/convertd"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// Dispatcher runs conversions and exposes the registry it routes over.
type Dispatcher interface {
	Dispatch(ctx context.Context, in, out convertd.Format, payload []byte) ([]byte, error)
	Registry() *convertd.Registry
}

// Handler serves GET /, GET /formats and POST /convert.
type Handler struct {
	dispatcher Dispatcher
	version    string
	maxUpload  int64
	logger     *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithVersion sets the version reported by GET /.
func WithVersion(v string) Option {
	return func(h *Handler) { h.version = v }
}

// WithMaxUpload caps the request body of POST /convert. Zero means no cap.
func WithMaxUpload(n int64) Option {
	return func(h *Handler) { h.maxUpload = n }
}

// WithLogger sets the logger for failed requests.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Handler over d.
func New(d Dispatcher, opts ...Option) *Handler {
	h := &Handler{dispatcher: d, version: "dev", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the REST endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.root)
	r.Get("/formats", h.formats)
	r.Post("/convert", h.errorHandler(h.convert))
}

// Router returns a standalone router serving the REST endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{Message: "File Converter API", Version: h.version})
}

func (h *Handler) formats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dispatcher.Registry().Formats())
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) error {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if h.maxUpload > 0 && strings.Contains(err.Error(), "request body too large") {
			return &http.MaxBytesError{Limit: h.maxUpload}
		}
		return badRequest("invalid multipart form: %v", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	outFmt := strings.TrimSpace(r.FormValue("output_format"))
	if outFmt == "" {
		return badRequest("output_format is required")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return badRequest("file is required")
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	ext := filepath.Ext(header.Filename)
	in, out := convertd.NormalizeFormat(ext), convertd.NormalizeFormat(outFmt)
	data, err := h.dispatcher.Dispatch(r.Context(), in, out, payload)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(header.Filename), ext) + string(out)
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Debug("write response", zap.Error(err))
	}
	return nil
}
