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
	"strconv"
	"strings"

	"github.com/nicholasgasior/convertd/internal/ooxml"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxConverter extracts headings, paragraphs, lists, links and tables from
// Word documents.
type DocxConverter struct{}

// NewDocxConverter creates a DocxConverter.
func NewDocxConverter() *DocxConverter {
	return &DocxConverter{}
}

func (c *DocxConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".docx"}, []string{".md", ".txt"})
}

func (c *DocxConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	pkg, err := ooxml.Open(inputPath)
	if err != nil {
		return err
	}
	defer pkg.Close()

	const main = "word/document.xml"
	doc, err := pkg.ReadPart(main)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	rels, err := pkg.Relationships(main)
	if err != nil {
		return err
	}

	w := &docxWriter{
		markdown: NormalizeFormat(filepath.Ext(outputPath)) == ".md",
		styles:   docxStyles(pkg),
		rels:     rels,
	}
	if err := w.walk(ctx, xml.NewDecoder(bytes.NewReader(doc))); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return writeText(outputPath, strings.Join(w.blocks, "\n\n"))
}

// docxStyles maps style IDs to their display names.
func docxStyles(pkg *ooxml.Package) map[string]string {
	styles := make(map[string]string)
	data, err := pkg.ReadPart("word/styles.xml")
	if err != nil {
		return styles
	}
	var doc struct {
		Styles []struct {
			ID   string `xml:"styleId,attr"`
			Name struct {
				Val string `xml:"val,attr"`
			} `xml:"name"`
		} `xml:"style"`
	}
	if xml.Unmarshal(data, &doc) == nil {
		for _, s := range doc.Styles {
			styles[s.ID] = s.Name.Val
		}
	}
	return styles
}

type docxParagraph struct {
	style     string
	list      bool
	level     int
	text      strings.Builder
	linkStart []int
	linkURL   []string
}

type docxRun struct {
	bold, italic bool
	text         strings.Builder
}

type docxTable struct {
	rows [][]string
	cell []string
}

type docxWriter struct {
	markdown bool
	styles   map[string]string
	rels     map[string]ooxml.Relationship

	blocks []string
	para   *docxParagraph
	run    *docxRun
	inText bool
	tables []*docxTable
}

func (w *docxWriter) walk(ctx context.Context, dec *xml.Decoder) error {
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == wordNS {
				w.start(t)
			}
		case xml.EndElement:
			if t.Name.Space == wordNS {
				w.end(t.Name.Local)
			}
		case xml.CharData:
			if w.inText && w.run != nil {
				w.run.text.Write(t)
			}
		}
	}
}

func (w *docxWriter) start(t xml.StartElement) {
	p := w.para
	switch t.Name.Local {
	case "p":
		w.para = &docxParagraph{}
	case "pStyle":
		if p != nil {
			p.style = ooxml.Attr(t, "val")
		}
	case "numPr":
		if p != nil {
			p.list = true
		}
	case "ilvl":
		if p != nil {
			p.level, _ = strconv.Atoi(ooxml.Attr(t, "val"))
		}
	case "r":
		w.run = &docxRun{}
	case "b", "i":
		if w.run != nil {
			on := ooxml.Attr(t, "val")
			enabled := on == "" || on == "1" || on == "true" || on == "on"
			if t.Name.Local == "b" {
				w.run.bold = enabled
			} else {
				w.run.italic = enabled
			}
		}
	case "t":
		w.inText = true
	case "tab":
		if w.run != nil {
			w.run.text.WriteString("\t")
		}
	case "br", "cr":
		if w.run != nil {
			w.run.text.WriteString("\n")
		}
	case "hyperlink":
		if p != nil {
			url := ""
			if rel, ok := w.rels[ooxml.RelID(t)]; ok && rel.External() {
				url = rel.Target
			}
			p.linkStart = append(p.linkStart, p.text.Len())
			p.linkURL = append(p.linkURL, url)
		}
	case "tbl":
		w.tables = append(w.tables, &docxTable{})
	case "tr":
		if tbl := w.table(); tbl != nil {
			tbl.rows = append(tbl.rows, nil)
		}
	case "tc":
		if tbl := w.table(); tbl != nil {
			tbl.cell = tbl.cell[:0]
		}
	}
}

func (w *docxWriter) end(local string) {
	switch local {
	case "t":
		w.inText = false
	case "r":
		if w.run != nil && w.para != nil {
			w.para.text.WriteString(w.formatRun(w.run))
		}
		w.run = nil
	case "hyperlink":
		w.closeLink()
	case "p":
		if w.para != nil {
			w.endParagraph(w.para)
		}
		w.para = nil
	case "tc":
		if tbl := w.table(); tbl != nil && len(tbl.rows) > 0 {
			last := len(tbl.rows) - 1
			tbl.rows[last] = append(tbl.rows[last], strings.Join(tbl.cell, " "))
		}
	case "tbl":
		if tbl := w.table(); tbl != nil {
			w.tables = w.tables[:len(w.tables)-1]
			w.emit(w.renderTable(tbl.rows))
		}
	}
}

func (w *docxWriter) table() *docxTable {
	if len(w.tables) == 0 {
		return nil
	}
	return w.tables[len(w.tables)-1]
}

// emit adds a finished block, inside the enclosing table cell if any.
func (w *docxWriter) emit(block string) {
	if strings.TrimSpace(block) == "" {
		return
	}
	if tbl := w.table(); tbl != nil {
		tbl.cell = append(tbl.cell, strings.TrimSpace(block))
		return
	}
	w.blocks = append(w.blocks, block)
}

func (w *docxWriter) formatRun(r *docxRun) string {
	s := r.text.String()
	if !w.markdown || strings.TrimSpace(s) == "" {
		return s
	}
	switch {
	case r.bold && r.italic:
		return "***" + s + "***"
	case r.bold:
		return "**" + s + "**"
	case r.italic:
		return "*" + s + "*"
	}
	return s
}

func (w *docxWriter) closeLink() {
	p := w.para
	if p == nil || len(p.linkStart) == 0 {
		return
	}
	n := len(p.linkStart) - 1
	start, url := p.linkStart[n], p.linkURL[n]
	p.linkStart, p.linkURL = p.linkStart[:n], p.linkURL[:n]
	if !w.markdown || url == "" {
		return
	}
	full := p.text.String()
	p.text.Reset()
	p.text.WriteString(full[:start] + "[" + full[start:] + "](" + url + ")")
}

func (w *docxWriter) endParagraph(p *docxParagraph) {
	text := strings.TrimSpace(p.text.String())
	if text == "" {
		return
	}
	if level := w.headingLevel(p.style); level > 0 && w.markdown && len(w.tables) == 0 {
		w.emit(strings.Repeat("#", level) + " " + text)
		return
	}
	if p.list {
		text = strings.Repeat("  ", p.level) + "- " + text
		// Consecutive list items belong to one block.
		if n := len(w.blocks); n > 0 && len(w.tables) == 0 && isListBlock(w.blocks[n-1]) {
			w.blocks[n-1] += "\n" + text
			return
		}
	}
	w.emit(text)
}

func isListBlock(block string) bool {
	last := block[strings.LastIndex(block, "\n")+1:]
	return strings.HasPrefix(strings.TrimLeft(last, " "), "- ")
}

func (w *docxWriter) headingLevel(styleID string) int {
	if styleID == "" {
		return 0
	}
	for _, name := range []string{styleID, w.styles[styleID]} {
		name = strings.ToLower(strings.ReplaceAll(name, " ", ""))
		if name == "title" {
			return 1
		}
		if rest, ok := strings.CutPrefix(name, "heading"); ok {
			if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 6 {
				return n
			}
		}
	}
	return 0
}

func (w *docxWriter) renderTable(rows [][]string) string {
	if w.markdown {
		return renderMarkdownTable(rows)
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, "\t")
	}
	return strings.Join(lines, "\n")
}
