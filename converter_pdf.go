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
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFConverter extracts the text layer of PDF documents.
type PDFConverter struct{}

// NewPDFConverter creates a PDFConverter.
func NewPDFConverter() *PDFConverter {
	return &PDFConverter{}
}

func (c *PDFConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".pdf"}, []string{".txt", ".md"})
}

func (c *PDFConverter) Convert(ctx context.Context, inputPath, outputPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	markdown := NormalizeFormat(filepath.Ext(outputPath)) == ".md"
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := strings.TrimSpace(pageText(page))
		if text == "" {
			continue
		}
		if markdown {
			fmt.Fprintf(&b, "## Page %d\n\n", i)
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return writeText(outputPath, b.String())
}

// pageText reads a page row by row. When the row index is empty it falls back
// to grouping positioned glyphs into lines.
func pageText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var b strings.Builder
		for _, row := range rows {
			// Glyph runs carry their own spacing.
			var line strings.Builder
			for _, w := range row.Content {
				line.WriteString(w.S)
			}
			if text := strings.Join(strings.Fields(line.String()), " "); text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return glyphText(page.Content().Text)
}

type glyphLine struct {
	y      float64
	glyphs []pdf.Text
}

func glyphText(glyphs []pdf.Text) string {
	var lines []*glyphLine
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		tolerance := max(g.FontSize*0.3, 1)
		var line *glyphLine
		for _, ln := range lines {
			if d := ln.y - g.Y; d < tolerance && d > -tolerance {
				line = ln
				break
			}
		}
		if line == nil {
			line = &glyphLine{y: g.Y}
			lines = append(lines, line)
		}
		line.glyphs = append(line.glyphs, g)
	}

	// PDF y grows upwards.
	sort.Slice(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var b strings.Builder
	for _, ln := range lines {
		sort.Slice(ln.glyphs, func(i, j int) bool { return ln.glyphs[i].X < ln.glyphs[j].X })
		end := 0.0
		for i, g := range ln.glyphs {
			if i > 0 && g.X-end > max(g.FontSize*0.2, 1) {
				b.WriteString(" ")
			}
			b.WriteString(g.S)
			end = g.X + g.W
			if g.W == 0 {
				end = g.X + float64(len([]rune(g.S)))*g.FontSize*0.55
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
