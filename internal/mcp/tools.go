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

package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/nicholasgasior/convertd"
)

const (
	toolConvertFile = "convert_file"
	toolListFormats = "list_supported_formats"
)

// convertFileTool describes convert_file. The description enumerates every
// pair the registry can serve, same-to-same pairs excluded.
func convertFileTool(reg *convertd.Registry) mcplib.Tool {
	var pairs []string
	for _, e := range reg.List() {
		for _, p := range e.Capabilities.Pairs() {
			pairs = append(pairs, p[0].Bare()+" to "+p[1].Bare())
		}
	}
	return mcplib.NewTool(toolConvertFile,
		mcplib.WithDescription("Convert files between different formats. Supported conversions: "+strings.Join(pairs, ", ")),
		mcplib.WithString("input_format",
			mcplib.Required(),
			mcplib.Description("Input file format (e.g., .pdf, .docx, .png)"),
		),
		mcplib.WithString("output_format",
			mcplib.Required(),
			mcplib.Description("Output file format (e.g., .pdf, .docx, .png)"),
		),
		mcplib.WithString("file_content",
			mcplib.Required(),
			mcplib.Description("Base64 encoded file content"),
		),
	)
}

func listFormatsTool() mcplib.Tool {
	return mcplib.NewTool(toolListFormats,
		mcplib.WithDescription("List all supported input and output formats"),
	)
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (h *Handler) callTool(ctx context.Context, raw json.RawMessage) (any, error) {
	var params callToolParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, newRPCError(codeInvalidParams, "Invalid params: %v", err)
	}
	switch params.Name {
	case toolConvertFile:
		return h.convertFile(ctx, params.Arguments)
	case toolListFormats:
		return h.listFormats(), nil
	default:
		return nil, newRPCError(codeMethodNotFound, "Unknown tool: %s", params.Name)
	}
}

type convertFileArgs struct {
	InputFormat  string `json:"input_format"`
	OutputFormat string `json:"output_format"`
	FileContent  string `json:"file_content"`
}

func (h *Handler) convertFile(ctx context.Context, raw json.RawMessage) (*mcplib.CallToolResult, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := h.validateArgs(toolConvertFile, raw); err != nil {
		return nil, err
	}
	var args convertFileArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, newRPCError(codeInvalidParams, "Invalid params: %v", err)
	}
	if args.InputFormat == "" || args.OutputFormat == "" || args.FileContent == "" {
		return nil, newRPCError(codeInvalidParams, "Missing required parameters")
	}

	in, out := convertd.NormalizeFormat(args.InputFormat), convertd.NormalizeFormat(args.OutputFormat)
	if _, ok := h.dispatcher.Registry().Find(in, out); !ok {
		return nil, &convertd.UnsupportedConversionError{Input: in, Output: out}
	}

	payload, err := decodeBase64(args.FileContent)
	if err != nil {
		return nil, &convertd.InvalidPayloadError{Reason: "Invalid base64 file content"}
	}
	if h.inlineMax > 0 && int64(len(payload)) > h.inlineMax {
		return nil, &convertd.InvalidPayloadError{
			Reason: fmt.Sprintf("file_content exceeds %d bytes", h.inlineMax),
		}
	}

	data, err := h.dispatcher.Dispatch(ctx, in, out, payload)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("converted", zap.Stringer("from", in), zap.Stringer("to", out), zap.Int("bytes", len(data)))

	encoded := base64.StdEncoding.EncodeToString(data)
	content := []mcplib.Content{
		mcplib.NewTextContent(fmt.Sprintf("File converted successfully from %s to %s. Converted file content (base64): %s", in, out, encoded)),
	}
	mime := mimetype.Detect(data).String()
	switch {
	case strings.HasPrefix(mime, "image/"):
		content = append(content, mcplib.NewImageContent(encoded, mime))
	case strings.HasPrefix(mime, "audio/"):
		content = append(content, mcplib.NewAudioContent(encoded, mime))
	}
	return &mcplib.CallToolResult{Content: content}, nil
}

func (h *Handler) listFormats() *mcplib.CallToolResult {
	var b strings.Builder
	b.WriteString("Supported formats by module:\n")
	for _, e := range h.dispatcher.Registry().List() {
		fmt.Fprintf(&b, "%s: input %s; output %s\n", e.Name, joinFormats(e.Capabilities.Inputs), joinFormats(e.Capabilities.Outputs))
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(strings.TrimSuffix(b.String(), "\n"))},
	}
}

// validateArgs checks args against the input schema the named tool advertises.
func (h *Handler) validateArgs(name string, args json.RawMessage) error {
	var schema []byte
	for _, t := range h.tools {
		if t.Name != name {
			continue
		}
		s, err := json.Marshal(t.InputSchema)
		if err != nil {
			return fmt.Errorf("marshal %s schema: %w", name, err)
		}
		schema = s
	}
	if schema == nil {
		return newRPCError(codeMethodNotFound, "Unknown tool: %s", name)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(args))
	if err != nil {
		return newRPCError(codeInvalidParams, "Invalid params: %v", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		if e.Type() == "required" {
			return newRPCError(codeInvalidParams, "Missing required parameters")
		}
		msgs = append(msgs, e.String())
	}
	return newRPCError(codeInvalidParams, "Invalid params: %s", strings.Join(msgs, "; "))
}

// decodeBase64 accepts padded or unpadded standard base64 with embedded line
// breaks.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func joinFormats(fs []convertd.Format) string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return strings.Join(out, ", ")
}
