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
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	gparser "github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// MarkdownConverter renders Markdown (GFM) into a standalone HTML page.
type MarkdownConverter struct {
	md goldmark.Markdown
}

// NewMarkdownConverter creates a MarkdownConverter. Raw HTML in the source is
// dropped.
func NewMarkdownConverter() *MarkdownConverter {
	return &MarkdownConverter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, emoji.Emoji, extension.DefinitionList),
			goldmark.WithParserOptions(
				gparser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				ghtml.WithXHTML(),
			),
		),
	}
}

func (c *MarkdownConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".md", ".markdown"}, []string{".html"})
}

func (c *MarkdownConverter) Convert(_ context.Context, inputPath, outputPath string) error {
	data, err := readInput(inputPath)
	if err != nil {
		return err
	}
	src := []byte(decodeText(data))

	var body bytes.Buffer
	if err := c.md.Convert(src, &body); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	if title := markdownTitle(string(src)); title != "" {
		fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	}
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return writeOutput(outputPath, page.Bytes())
}

// markdownTitle returns the text of the first level-one ATX heading.
func markdownTitle(src string) string {
	for _, ln := range strings.Split(src, "\n") {
		if t, ok := strings.CutPrefix(strings.TrimSpace(ln), "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return ""
}
