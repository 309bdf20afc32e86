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

package convertd

import (
	"fmt"
	"slices"
)

// builtin describes a converter shipped with the package.
type builtin struct {
	name  string
	media bool
	new   func(ffmpeg string) Converter
}

var builtins = []builtin{
	{name: "image", new: func(string) Converter { return NewImageConverter(0) }},
	{name: "html", new: func(string) Converter { return NewHTMLConverter(false) }},
	{name: "markdown", new: func(string) Converter { return NewMarkdownConverter() }},
	{name: "csv", new: func(string) Converter { return NewCSVConverter() }},
	{name: "xlsx", new: func(string) Converter { return NewXLSXConverter() }},
	{name: "xls", new: func(string) Converter { return NewXLSConverter() }},
	{name: "pdf", new: func(string) Converter { return NewPDFConverter() }},
	{name: "feed", new: func(string) Converter { return NewFeedConverter() }},
	{name: "text", new: func(string) Converter { return NewTextConverter() }},
	{name: "ipynb", new: func(string) Converter { return NewNotebookConverter() }},
	{name: "docx", new: func(string) Converter { return NewDocxConverter() }},
	{name: "pptx", new: func(string) Converter { return NewPptxConverter() }},
	{name: "audio", media: true, new: func(ff string) Converter { return NewAudioConverter(ff) }},
	{name: "video", media: true, new: func(ff string) Converter { return NewVideoConverter(ff) }},
}

// BuiltinNames lists the built-in converter names in default registration
// order.
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}

type builtinConfig struct {
	modules []string
	ffmpeg  string
	skipped func(name string, err error)
}

// BuiltinOption configures NewDefaultRegistry.
type BuiltinOption func(*builtinConfig)

// WithModules registers only the named converters, in the given order.
func WithModules(names ...string) BuiltinOption {
	return func(c *builtinConfig) {
		c.modules = names
	}
}

// WithFFmpeg sets the ffmpeg binary used by the media converters.
func WithFFmpeg(path string) BuiltinOption {
	return func(c *builtinConfig) {
		c.ffmpeg = path
	}
}

// WithSkipHook is called for every converter left out because its runtime
// dependency is missing.
func WithSkipHook(fn func(name string, err error)) BuiltinOption {
	return func(c *builtinConfig) {
		c.skipped = fn
	}
}

// NewDefaultRegistry returns a registry populated with the built-in
// converters. Media converters are registered only when ffmpeg resolves.
func NewDefaultRegistry(opts ...BuiltinOption) (*Registry, error) {
	cfg := builtinConfig{modules: BuiltinNames()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var ffmpeg string
	var ffmpegErr error
	ffmpegResolved := false

	reg := NewRegistry()
	for _, name := range cfg.modules {
		i := slices.IndexFunc(builtins, func(b builtin) bool { return b.name == name })
		if i < 0 {
			return nil, fmt.Errorf("unknown converter %q", name)
		}
		b := builtins[i]
		if b.media {
			if !ffmpegResolved {
				ffmpeg, ffmpegErr = LookupFFmpeg(cfg.ffmpeg)
				ffmpegResolved = true
			}
			if ffmpegErr != nil {
				if cfg.skipped != nil {
					cfg.skipped(b.name, ffmpegErr)
				}
				continue
			}
		}
		if err := reg.Register(b.name, b.new(ffmpeg)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
