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

// Package mcp serves the conversion service as MCP tools over a single
// JSON-RPC 2.0 endpoint.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"golang.org/x/exp/jsonrpc2"

	"github.com/nicholasgasior/convertd"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// envelopeAllowance is the room left for the JSON-RPC envelope around an
// inline payload.
const envelopeAllowance = 64 << 10

// ServerName is reported in the initialize result.
const ServerName = "file-converter"

var supportedProtocolVersions = []string{mcplib.LATEST_PROTOCOL_VERSION, "2025-03-26", "2024-11-05"}

// Dispatcher runs conversions and exposes the registry it routes over.
type Dispatcher interface {
	Dispatch(ctx context.Context, in, out convertd.Format, payload []byte) ([]byte, error)
	Registry() *convertd.Registry
}

// Handler answers JSON-RPC messages posted to the MCP endpoint.
type Handler struct {
	dispatcher Dispatcher
	version    string
	inlineMax  int64
	logger     *zap.Logger

	tools []mcplib.Tool
}

// Option configures a Handler.
type Option func(*Handler)

// WithVersion sets the server version reported by initialize.
func WithVersion(v string) Option {
	return func(h *Handler) { h.version = v }
}

// WithInlineMax caps the decoded size of file_content. Zero means no cap.
func WithInlineMax(n int64) Option {
	return func(h *Handler) { h.inlineMax = n }
}

// WithLogger sets the logger for failed calls.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Handler over d. The tool list is computed once since the
// registry does not change after startup.
func New(d Dispatcher, opts ...Option) *Handler {
	h := &Handler{dispatcher: d, version: "dev", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.tools = []mcplib.Tool{convertFileTool(d.Registry()), listFormatsTool()}
	return h
}

// rpcError carries a JSON-RPC error code out of a method handler.
type rpcError struct {
	code    int64
	message string
}

func (e *rpcError) Error() string { return e.message }

func newRPCError(code int64, format string, args ...any) *rpcError {
	return &rpcError{code: code, message: fmt.Sprintf(format, args...)}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.inlineMax > 0 {
		// base64 grows the payload by a third; leave room for the envelope.
		r.Body = http.MaxBytesReader(w, r.Body, h.inlineMax/3*4+envelopeAllowance)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	if !json.Valid(body) {
		writeNullIDError(w, codeParseError, "Parse error")
		return
	}
	msg, err := jsonrpc2.DecodeMessage(body)
	if err != nil {
		writeNullIDError(w, codeInvalidRequest, "Invalid request: "+err.Error())
		return
	}
	req, ok := msg.(*jsonrpc2.Request)
	if !ok {
		writeNullIDError(w, codeInvalidRequest, "Invalid request: expected a request")
		return
	}
	if !req.IsCall() {
		h.logger.Debug("notification", zap.String("method", req.Method))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	result, err := h.handle(r.Context(), req)
	var resp *jsonrpc2.Response
	if err != nil {
		code, message := errorCode(err)
		if code == codeInternalError {
			h.logger.Error("mcp call failed", zap.String("method", req.Method), zap.Error(err))
		}
		resp = &jsonrpc2.Response{ID: req.ID, Error: jsonrpc2.NewError(code, message)}
	} else if resp, err = jsonrpc2.NewResponse(req.ID, result, nil); err != nil {
		h.logger.Error("encode result", zap.String("method", req.Method), zap.Error(err))
		resp = &jsonrpc2.Response{ID: req.ID, Error: jsonrpc2.NewError(codeInternalError, "Internal error: "+err.Error())}
	}

	data, err := jsonrpc2.EncodeMessage(resp)
	if err != nil {
		h.logger.Error("encode response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handle routes a call to its method.
func (h *Handler) handle(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case string(mcplib.MethodInitialize):
		return h.initialize(req.Params), nil
	case string(mcplib.MethodPing):
		return struct{}{}, nil
	case string(mcplib.MethodToolsList):
		return mcplib.ListToolsResult{Tools: h.tools}, nil
	case string(mcplib.MethodToolsCall):
		return h.callTool(ctx, req.Params)
	default:
		return nil, newRPCError(codeMethodNotFound, "Unknown method: %s", req.Method)
	}
}

type initializeResult struct {
	ProtocolVersion string                `json:"protocolVersion"`
	Capabilities    map[string]any        `json:"capabilities"`
	ServerInfo      mcplib.Implementation `json:"serverInfo"`
	Instructions    string                `json:"instructions,omitempty"`
}

// initialize echoes the client's protocol version when it is one we speak and
// answers with the latest otherwise.
func (h *Handler) initialize(params json.RawMessage) initializeResult {
	version := mcplib.LATEST_PROTOCOL_VERSION
	var p struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(params) > 0 && json.Unmarshal(params, &p) == nil && slices.Contains(supportedProtocolVersions, p.ProtocolVersion) {
		version = p.ProtocolVersion
	}
	return initializeResult{
		ProtocolVersion: version,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo:      mcplib.Implementation{Name: ServerName, Version: h.version},
		Instructions:    "Use convert_file with base64 file_content to convert a file; list_supported_formats shows what each module handles.",
	}
}

// errorCode maps a handler error to a JSON-RPC code using the same severity
// classification as the REST adapter.
func errorCode(err error) (int64, string) {
	var e *rpcError
	if errors.As(err, &e) {
		return e.code, e.message
	}
	if convertd.SeverityOf(err) == convertd.SeverityClient {
		return codeInvalidParams, err.Error()
	}
	return codeInternalError, "Conversion failed: " + err.Error()
}

// writeNullIDError answers messages whose id could not be determined.
func writeNullIDError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
