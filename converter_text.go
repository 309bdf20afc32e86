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
	"path/filepath"
	"strings"
)

// TextConverter re-encodes plain text files in any detectable charset as
// normalized UTF-8, optionally wrapped as Markdown.
type TextConverter struct{}

// NewTextConverter creates a TextConverter.
func NewTextConverter() *TextConverter {
	return &TextConverter{}
}

func (c *TextConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".txt", ".text"}, []string{".txt", ".md"})
}

func (c *TextConverter) Convert(_ context.Context, inputPath, outputPath string) error {
	data, err := readInput(inputPath)
	if err != nil {
		return err
	}
	text := decodeText(data)
	if NormalizeFormat(filepath.Ext(outputPath)) == ".md" {
		text = escapeMarkdownLines(text)
	}
	return writeText(outputPath, text)
}

// escapeMarkdownLines keeps lines that happen to start with Markdown block
// syntax from being rendered as headings or lists.
func escapeMarkdownLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		trimmed := strings.TrimLeft(ln, " ")
		if trimmed == "" {
			continue
		}
		switch trimmed[0] {
		case '#', '>', '-', '+', '*', '|':
			lines[i] = strings.Repeat(" ", len(ln)-len(trimmed)) + `\` + trimmed
		}
	}
	return strings.Join(lines, "\n")
}
