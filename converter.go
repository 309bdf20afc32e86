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
	"context"
	"slices"
	"strings"
)

//go:generate mockgen -destination=mock_convertd/mock_converter.go . Converter

// Format is a normalized file-type token such as ".png".
type Format string

// NormalizeFormat lowercases s and ensures a leading dot. The empty string
// stays empty and never matches a capability.
func NormalizeFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	return Format(s)
}

// String returns the format including its leading dot.
func (f Format) String() string {
	return string(f)
}

// Bare returns the format without its leading dot ("png").
func (f Format) Bare() string {
	return strings.TrimPrefix(string(f), ".")
}

// Capabilities is the set of input and output formats a converter declares.
type Capabilities struct {
	Inputs  []Format
	Outputs []Format
}

// NewCapabilities builds a descriptor from raw format strings.
func NewCapabilities(inputs, outputs []string) Capabilities {
	caps := Capabilities{}
	for _, in := range inputs {
		caps.Inputs = append(caps.Inputs, NormalizeFormat(in))
	}
	for _, out := range outputs {
		caps.Outputs = append(caps.Outputs, NormalizeFormat(out))
	}
	return caps.normalized()
}

// Supports reports whether in is an input and out an output of c.
func (c Capabilities) Supports(in, out Format) bool {
	return slices.Contains(c.Inputs, in) && slices.Contains(c.Outputs, out)
}

// Pairs returns every (input, output) combination in declaration order,
// skipping same-to-same pairs.
func (c Capabilities) Pairs() [][2]Format {
	var pairs [][2]Format
	for _, in := range c.Inputs {
		for _, out := range c.Outputs {
			if in == out {
				continue
			}
			pairs = append(pairs, [2]Format{in, out})
		}
	}
	return pairs
}

// normalized returns a copy with every format normalized and duplicates and
// empty entries dropped, preserving first occurrence order.
func (c Capabilities) normalized() Capabilities {
	return Capabilities{
		Inputs:  dedupFormats(c.Inputs),
		Outputs: dedupFormats(c.Outputs),
	}
}

func dedupFormats(in []Format) []Format {
	out := make([]Format, 0, len(in))
	for _, f := range in {
		f = NormalizeFormat(string(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Converter is the interface all conversion modules implement.
type Converter interface {
	// Capabilities returns the formats the converter reads and writes. It
	// must return the same value on every call.
	Capabilities() Capabilities

	// Convert reads inputPath and writes the converted result to outputPath.
	// Implementations should stop early when ctx is done.
	Convert(ctx context.Context, inputPath, outputPath string) error
}
