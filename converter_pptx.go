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
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nicholasgasior/convertd/internal/ooxml"
)

const (
	presentationNS = "http://schemas.openxmlformats.org/presentationml/2006/main"
	drawingNS      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	notesRelType   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
)

// PptxConverter extracts slide titles, text, tables, picture descriptions
// and speaker notes from PowerPoint presentations.
type PptxConverter struct{}

// NewPptxConverter creates a PptxConverter.
func NewPptxConverter() *PptxConverter {
	return &PptxConverter{}
}

func (c *PptxConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".pptx"}, []string{".md", ".txt"})
}

func (c *PptxConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	pkg, err := ooxml.Open(inputPath)
	if err != nil {
		return err
	}
	defer pkg.Close()

	slides, err := slideOrder(pkg)
	if err != nil {
		return err
	}
	markdown := NormalizeFormat(filepath.Ext(outputPath)) == ".md"

	var b strings.Builder
	for i, part := range slides {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := pkg.ReadPart(part)
		if err != nil {
			return fmt.Errorf("read slide %d: %w", i+1, err)
		}
		blocks, err := slideBlocks(data, markdown)
		if err != nil {
			return fmt.Errorf("parse slide %d: %w", i+1, err)
		}

		if markdown {
			fmt.Fprintf(&b, "<!-- Slide number: %d -->\n\n", i+1)
		} else {
			fmt.Fprintf(&b, "Slide %d\n\n", i+1)
		}
		for _, block := range blocks {
			b.WriteString(block)
			b.WriteString("\n\n")
		}
		if notes := slideNotes(pkg, part); notes != "" {
			if markdown {
				b.WriteString("### Notes:\n\n")
			} else {
				b.WriteString("Notes:\n")
			}
			b.WriteString(notes)
			b.WriteString("\n\n")
		}
	}
	return writeText(outputPath, b.String())
}

// slideOrder lists slide parts in presentation order, falling back to name
// order when presentation.xml does not reference them.
func slideOrder(pkg *ooxml.Package) ([]string, error) {
	const main = "ppt/presentation.xml"
	data, err := pkg.ReadPart(main)
	if err != nil {
		return nil, fmt.Errorf("read presentation: %w", err)
	}
	rels, err := pkg.Relationships(main)
	if err != nil {
		return nil, err
	}

	var slides []string
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse presentation: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldId" {
			continue
		}
		if rel, ok := rels[ooxml.RelID(se)]; ok {
			slides = append(slides, ooxml.ResolveTarget(main, rel.Target))
		}
	}
	if len(slides) > 0 {
		return slides, nil
	}

	for _, name := range pkg.Parts("ppt/slides/slide") {
		if strings.HasSuffix(name, ".xml") {
			slides = append(slides, name)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		if len(slides[i]) != len(slides[j]) {
			return len(slides[i]) < len(slides[j])
		}
		return slides[i] < slides[j]
	})
	return slides, nil
}

func slideNotes(pkg *ooxml.Package, slide string) string {
	rels, err := pkg.Relationships(slide)
	if err != nil {
		return ""
	}
	for _, rel := range rels {
		if rel.Type != notesRelType {
			continue
		}
		data, err := pkg.ReadPart(ooxml.ResolveTarget(slide, rel.Target))
		if err != nil {
			return ""
		}
		blocks, err := slideBlocks(data, false)
		if err != nil {
			return ""
		}
		// The notes page repeats the slide number as a placeholder.
		var text []string
		for _, block := range blocks {
			if strings.TrimSpace(block) != "" && !isDigits(block) {
				text = append(text, block)
			}
		}
		return strings.Join(text, "\n")
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

type slideShape struct {
	title bool
	lines []string
}

type slideParser struct {
	markdown bool
	blocks   []string

	shape     *slideShape
	paragraph *strings.Builder
	inText    bool
	table     [][]string
	cell      []string
	inTable   bool
}

// slideBlocks returns the text blocks of a slide or notes part in document
// order.
func slideBlocks(data []byte, markdown bool) ([]string, error) {
	p := &slideParser{markdown: markdown}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return p.blocks, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.start(t)
		case xml.EndElement:
			p.end(t.Name)
		case xml.CharData:
			if p.inText && p.paragraph != nil {
				p.paragraph.Write(t)
			}
		}
	}
}

func (p *slideParser) start(t xml.StartElement) {
	switch {
	case t.Name.Space == presentationNS && t.Name.Local == "sp":
		p.shape = &slideShape{}
	case t.Name.Space == presentationNS && t.Name.Local == "ph":
		if typ := ooxml.Attr(t, "type"); p.shape != nil && (typ == "title" || typ == "ctrTitle") {
			p.shape.title = true
		}
	case t.Name.Space == presentationNS && t.Name.Local == "cNvPr":
		if descr := strings.TrimSpace(ooxml.Attr(t, "descr")); descr != "" && p.shape == nil && !p.inTable {
			descr = strings.Join(strings.Fields(descr), " ")
			if p.markdown {
				p.blocks = append(p.blocks, "!["+descr+"]("+ooxml.Attr(t, "name")+")")
			} else {
				p.blocks = append(p.blocks, descr)
			}
		}
	case t.Name.Space == drawingNS && t.Name.Local == "tbl":
		p.inTable, p.table = true, nil
	case t.Name.Space == drawingNS && t.Name.Local == "tr":
		p.table = append(p.table, nil)
	case t.Name.Space == drawingNS && t.Name.Local == "tc":
		p.cell = p.cell[:0]
	case t.Name.Space == drawingNS && t.Name.Local == "p":
		p.paragraph = &strings.Builder{}
	case t.Name.Space == drawingNS && t.Name.Local == "t":
		p.inText = true
	case t.Name.Space == drawingNS && t.Name.Local == "br":
		if p.paragraph != nil {
			p.paragraph.WriteString("\n")
		}
	}
}

func (p *slideParser) end(name xml.Name) {
	switch {
	case name.Space == drawingNS && name.Local == "t":
		p.inText = false
	case name.Space == drawingNS && name.Local == "p":
		if p.paragraph == nil {
			return
		}
		line := strings.TrimSpace(p.paragraph.String())
		p.paragraph = nil
		switch {
		case line == "":
		case p.inTable:
			p.cell = append(p.cell, line)
		case p.shape != nil:
			p.shape.lines = append(p.shape.lines, line)
		default:
			p.blocks = append(p.blocks, line)
		}
	case name.Space == drawingNS && name.Local == "tc":
		if n := len(p.table); n > 0 {
			p.table[n-1] = append(p.table[n-1], strings.Join(p.cell, " "))
		}
	case name.Space == drawingNS && name.Local == "tbl":
		p.inTable = false
		if len(p.table) > 0 {
			p.blocks = append(p.blocks, p.renderTable())
		}
	case name.Space == presentationNS && name.Local == "sp":
		if s := p.shape; s != nil && len(s.lines) > 0 {
			text := strings.Join(s.lines, "\n")
			if s.title && p.markdown {
				text = "# " + strings.Join(s.lines, " ")
			}
			p.blocks = append(p.blocks, text)
		}
		p.shape = nil
	}
}

func (p *slideParser) renderTable() string {
	if p.markdown {
		return renderMarkdownTable(p.table)
	}
	lines := make([]string, len(p.table))
	for i, row := range p.table {
		lines[i] = strings.Join(row, "\t")
	}
	return strings.Join(lines, "\n")
}
