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
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// convertFixture writes input to a temporary file with extension inExt, runs
// c and returns the output written for outExt.
func convertFixture(t *testing.T, c Converter, inExt string, input []byte, outExt string) []byte {
	t.Helper()
	out, err := tryConvert(t, c, inExt, input, outExt)
	require.NoError(t, err)
	return out
}

func tryConvert(t *testing.T, c Converter, inExt string, input []byte, outExt string) ([]byte, error) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "input"+inExt)
	out := filepath.Join(dir, "output"+outExt)
	require.NoError(t, os.WriteFile(in, input, 0o600))
	require.True(t, c.Capabilities().Supports(NormalizeFormat(inExt), NormalizeFormat(outExt)),
		"converter does not declare %s -> %s", inExt, outExt)
	if err := c.Convert(context.Background(), in, out); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data, nil
}

func zipFixture(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestImageConverter(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{R: 255, A: 128})
	src.Set(1, 1, color.NRGBA{B: 255, A: 255})
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, src))

	c := NewImageConverter(0)
	tests := []struct {
		out    string
		format string
	}{
		{".jpg", "jpeg"},
		{".jpeg", "jpeg"},
		{".gif", "gif"},
		{".png", "png"},
	}
	for _, tt := range tests {
		t.Run(tt.out, func(t *testing.T) {
			out := convertFixture(t, c, ".png", pngData.Bytes(), tt.out)
			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, 2, cfg.Width)
			assert.Equal(t, 2, cfg.Height)
		})
	}

	var gifData bytes.Buffer
	require.NoError(t, gif.Encode(&gifData, src, nil))
	out := convertFixture(t, c, ".gif", gifData.Bytes(), ".png")
	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = tryConvert(t, c, ".png", []byte("not an image"), ".jpg")
	assert.ErrorContains(t, err, "decode image")
}

const htmlFixture = `<!DOCTYPE html>
<html>
<head><title>Fixture Page</title><style>p { color: red }</style></head>
<body>
<script>alert("x")</script>
<h1>Hello</h1>
<p>Some <b>bold</b> text with a <a href="https://example.com">link</a>.</p>
<table><tr><th>k</th><th>v</th></tr><tr><td>a</td><td>1</td></tr></table>
</body>
</html>`

func TestHTMLConverter(t *testing.T) {
	c := NewHTMLConverter(false)

	md := string(convertFixture(t, c, ".html", []byte(htmlFixture), ".md"))
	assert.Contains(t, md, "# Hello")
	assert.Contains(t, md, "**bold**")
	assert.Contains(t, md, "[link](https://example.com)")
	assert.Contains(t, md, "| k")
	assert.NotContains(t, md, "alert")
	assert.NotContains(t, md, "color: red")
	assert.True(t, strings.HasSuffix(md, "\n"))

	txt := string(convertFixture(t, c, ".htm", []byte(htmlFixture), ".txt"))
	assert.Contains(t, txt, "Hello")
	assert.Contains(t, txt, "Some bold text with a link.")
	assert.NotContains(t, txt, "Fixture Page")
	assert.NotContains(t, txt, "<")
}

func TestHTMLConverterAddsTitle(t *testing.T) {
	doc := `<html><head><title>Only Title</title></head><body><p>body text</p></body></html>`
	md := string(convertFixture(t, NewHTMLConverter(false), ".html", []byte(doc), ".md"))
	assert.True(t, strings.HasPrefix(md, "# Only Title\n\n"), md)
	assert.Contains(t, md, "body text")
}

func TestMarkdownConverter(t *testing.T) {
	src := "# Release Notes\n\nSome *emphasis* and a table:\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
	out := string(convertFixture(t, NewMarkdownConverter(), ".md", []byte(src), ".html"))

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Release Notes</title>")
	assert.Contains(t, out, `<h1 id="release-notes">Release Notes</h1>`)
	assert.Contains(t, out, "<em>emphasis</em>")
	assert.Contains(t, out, "<table>")
}

func TestCSVConverter(t *testing.T) {
	src := []byte("name,age\nAnn,30\nBob,41\n")
	c := NewCSVConverter()

	md := string(convertFixture(t, c, ".csv", src, ".md"))
	assert.Equal(t, "| name | age |\n| --- | --- |\n| Ann | 30 |\n| Bob | 41 |\n", md)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(convertFixture(t, c, ".csv", src, ".json"), &records))
	assert.Equal(t, []map[string]string{
		{"name": "Ann", "age": "30"},
		{"name": "Bob", "age": "41"},
	}, records)

	book := convertFixture(t, c, ".csv", src, ".xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(book))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "age"}, {"Ann", "30"}, {"Bob", "41"}}, rows)
}

func TestCSVConverterRaggedRows(t *testing.T) {
	src := []byte("a,b,c\n1\n2,x|y\n")
	md := string(convertFixture(t, NewCSVConverter(), ".csv", src, ".md"))
	assert.Contains(t, md, "| 1 |  |  |")
	assert.Contains(t, md, `| 2 | x\|y |  |`)
}

func TestTableRecordsHeaders(t *testing.T) {
	got := tableRecords([][]string{{"id", "", "id"}, {"1", "2", "3", "4"}, {"5"}})
	assert.Equal(t, []map[string]string{
		{"id": "1", "B": "2", "C": "3"},
		{"id": "5", "B": "", "C": ""},
	}, got)
}

func xlsxFixture(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"a", "b"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1, "two"}))
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]interface{}{"x"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestXLSXConverter(t *testing.T) {
	c := NewXLSXConverter()
	book := xlsxFixture(t)

	assert.Equal(t, "a,b\n1,two\n", string(convertFixture(t, c, ".xlsx", book, ".csv")))

	md := string(convertFixture(t, c, ".xlsx", book, ".md"))
	assert.Contains(t, md, "## Sheet1\n\n| a | b |")
	assert.Contains(t, md, "| 1 | two |")
	assert.Contains(t, md, "## Data\n\n| x |")
}

func TestXLSConverterRejectsGarbage(t *testing.T) {
	_, err := tryConvert(t, NewXLSConverter(), ".xls", []byte("this is not a workbook"), ".csv")
	assert.Error(t, err)
}

func TestPDFConverterRejectsGarbage(t *testing.T) {
	_, err := tryConvert(t, NewPDFConverter(), ".pdf", []byte("%PDF-1.4 truncated"), ".txt")
	assert.Error(t, err)
}

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>My Feed</title>
  <link>http://example.com/</link>
  <description>Things happen</description>
  <item>
    <title>First</title>
    <link>http://example.com/1</link>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    <description><![CDATA[<p>Hello <b>world</b></p>]]></description>
  </item>
  <item>
    <title>Second</title>
    <description>Plain text</description>
  </item>
</channel>
</rss>`

func TestFeedConverter(t *testing.T) {
	c := NewFeedConverter()

	md := string(convertFixture(t, c, ".rss", []byte(rssFixture), ".md"))
	assert.Contains(t, md, "# My Feed")
	assert.Contains(t, md, "Things happen")
	assert.Contains(t, md, "## [First](http://example.com/1)")
	assert.Contains(t, md, "Published: Mon, 02 Jan 2006 15:04:05 GMT")
	assert.Contains(t, md, "Hello **world**")
	assert.Contains(t, md, "## Second\n\nPlain text")

	var doc feedDocument
	require.NoError(t, json.Unmarshal(convertFixture(t, c, ".xml", []byte(rssFixture), ".json"), &doc))
	assert.Equal(t, "My Feed", doc.Title)
	assert.Equal(t, "rss", doc.Type)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "http://example.com/1", doc.Items[0].Link)
	require.NotNil(t, doc.Items[0].Published)
	assert.Equal(t, 2006, doc.Items[0].Published.Year())
	assert.Equal(t, "Hello **world**", doc.Items[0].Summary)
	assert.Nil(t, doc.Items[1].Published)
}

func TestFeedConverterInvalid(t *testing.T) {
	_, err := tryConvert(t, NewFeedConverter(), ".xml", []byte("<html><body>nope</body></html>"), ".md")
	assert.ErrorContains(t, err, "parse feed")
}

func TestFeedConverterCanceled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "input.rss")
	out := filepath.Join(dir, "output.md")
	require.NoError(t, os.WriteFile(in, []byte(rssFixture), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewFeedConverter().Convert(ctx, in, out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
}

func TestTextConverter(t *testing.T) {
	c := NewTextConverter()

	src := []byte("\xEF\xBB\xBFline one  \r\n# not a heading\r\n\r\n\r\n\r\n- not a list\r\n")
	txt := string(convertFixture(t, c, ".txt", src, ".txt"))
	assert.Equal(t, "line one\n# not a heading\n\n- not a list\n", txt)

	md := string(convertFixture(t, c, ".text", src, ".md"))
	assert.Equal(t, "line one\n\\# not a heading\n\n\\- not a list\n", md)
}

func TestCharsetEncoding(t *testing.T) {
	for _, label := range []string{"UTF-8", "Shift_JIS", "windows-1252", "ISO-8859-1", "EUC-KR", "Big5", "GB18030"} {
		assert.NotNil(t, charsetEncoding(label), label)
	}
	assert.Nil(t, charsetEncoding("x-unknown"))
}

const notebookFixture = `{
  "metadata": {"kernelspec": {"language": "python"}},
  "cells": [
    {"cell_type": "markdown", "source": ["# Intro\n", "Some words"]},
    {"cell_type": "code", "source": "print(1)", "outputs": [{"output_type": "stream", "text": ["1\n"]}]},
    {"cell_type": "code", "source": "x", "outputs": [{"output_type": "execute_result", "data": {"text/plain": "42"}}]}
  ]
}`

func TestNotebookConverter(t *testing.T) {
	c := NewNotebookConverter()

	md := string(convertFixture(t, c, ".ipynb", []byte(notebookFixture), ".md"))
	assert.Contains(t, md, "# Intro\nSome words")
	assert.Contains(t, md, "```python\nprint(1)\n```")
	assert.Contains(t, md, "```\n1\n```")
	assert.Contains(t, md, "```\n42\n```")

	py := string(convertFixture(t, c, ".ipynb", []byte(notebookFixture), ".py"))
	assert.Equal(t, "# %% [markdown]\n# # Intro\n# Some words\n\n# %%\nprint(1)\n\n# %%\nx\n", py)

	_, err := tryConvert(t, c, ".ipynb", []byte("{"), ".md")
	assert.ErrorContains(t, err, "parse notebook JSON")
}

const docxDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<w:body>
  <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly Report</w:t></w:r></w:p>
  <w:p><w:pPr><w:pStyle w:val="Sub"/></w:pPr><w:r><w:t>Overview</w:t></w:r></w:p>
  <w:p>
    <w:r><w:t xml:space="preserve">Revenue was </w:t></w:r>
    <w:r><w:rPr><w:b/></w:rPr><w:t>up</w:t></w:r>
    <w:r><w:t xml:space="preserve"> see </w:t></w:r>
    <w:hyperlink r:id="rId9"><w:r><w:t>details</w:t></w:r></w:hyperlink>
  </w:p>
  <w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>alpha</w:t></w:r></w:p>
  <w:p><w:pPr><w:numPr><w:ilvl w:val="1"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>beta</w:t></w:r></w:p>
  <w:tbl>
    <w:tr><w:tc><w:p><w:r><w:t>k</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>v</w:t></w:r></w:p></w:tc></w:tr>
    <w:tr><w:tc><w:p><w:r><w:t>a</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc></w:tr>
  </w:tbl>
</w:body>
</w:document>`

const docxStylesXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:type="paragraph" w:styleId="Sub"><w:name w:val="heading 2"/></w:style>
</w:styles>`

const docxRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId9" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/report" TargetMode="External"/>
</Relationships>`

func TestDocxConverter(t *testing.T) {
	doc := zipFixture(t, map[string]string{
		"word/document.xml":            docxDocument,
		"word/styles.xml":              docxStylesXML,
		"word/_rels/document.xml.rels": docxRels,
	})
	c := NewDocxConverter()

	md := string(convertFixture(t, c, ".docx", doc, ".md"))
	assert.Contains(t, md, "# Quarterly Report\n")
	assert.Contains(t, md, "## Overview\n")
	assert.Contains(t, md, "Revenue was **up** see [details](https://example.com/report)")
	assert.Contains(t, md, "- alpha\n  - beta")
	assert.Contains(t, md, "| k | v |\n| --- | --- |\n| a | 1 |")

	txt := string(convertFixture(t, c, ".docx", doc, ".txt"))
	assert.Contains(t, txt, "Quarterly Report\n\nOverview")
	assert.Contains(t, txt, "Revenue was up see details")
	assert.Contains(t, txt, "k\tv\na\t1")
	assert.NotContains(t, txt, "#")

	_, err := tryConvert(t, c, ".docx", zipFixture(t, map[string]string{"other.xml": "<x/>"}), ".md")
	assert.ErrorContains(t, err, "read document")
}

const pptxPresentation = `<?xml version="1.0" encoding="UTF-8"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <p:sldIdLst><p:sldId id="257" r:id="rId3"/><p:sldId id="256" r:id="rId2"/></p:sldIdLst>
</p:presentation>`

const pptxPresentationRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide2.xml"/>
</Relationships>`

func pptxSlide(title, body string, extra string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
  xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
<p:cSld><p:spTree>
  <p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
    <p:txBody><a:p><a:r><a:t>` + title + `</a:t></a:r></a:p></p:txBody></p:sp>
  <p:sp><p:nvSpPr><p:cNvPr id="3" name="Body"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>
    <p:txBody><a:p><a:r><a:t>` + body + `</a:t></a:r></a:p></p:txBody></p:sp>
  ` + extra + `
</p:spTree></p:cSld>
</p:sld>`
}

const pptxTable = `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="4" name="Table"/></p:nvGraphicFramePr>
  <a:graphic><a:graphicData><a:tbl>
    <a:tr><a:tc><a:txBody><a:p><a:r><a:t>h1</a:t></a:r></a:p></a:txBody></a:tc><a:tc><a:txBody><a:p><a:r><a:t>h2</a:t></a:r></a:p></a:txBody></a:tc></a:tr>
    <a:tr><a:tc><a:txBody><a:p><a:r><a:t>c1</a:t></a:r></a:p></a:txBody></a:tc><a:tc><a:txBody><a:p><a:r><a:t>c2</a:t></a:r></a:p></a:txBody></a:tc></a:tr>
  </a:tbl></a:graphicData></a:graphic></p:graphicFrame>
  <p:pic><p:nvPicPr><p:cNvPr id="5" name="chart.png" descr="Sales chart"/></p:nvPicPr></p:pic>`

const pptxSlideRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide1.xml"/>
</Relationships>`

const pptxNotes = `<?xml version="1.0" encoding="UTF-8"?>
<p:notes xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
  xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
<p:cSld><p:spTree>
  <p:sp><p:txBody><a:p><a:r><a:t>Remember the demo</a:t></a:r></a:p></p:txBody></p:sp>
  <p:sp><p:txBody><a:p><a:r><a:t>1</a:t></a:r></a:p></p:txBody></p:sp>
</p:spTree></p:cSld>
</p:notes>`

func TestPptxConverter(t *testing.T) {
	deck := zipFixture(t, map[string]string{
		"ppt/presentation.xml":             pptxPresentation,
		"ppt/_rels/presentation.xml.rels":  pptxPresentationRels,
		"ppt/slides/slide1.xml":            pptxSlide("Welcome", "first body", ""),
		"ppt/slides/slide2.xml":            pptxSlide("Numbers", "second body", pptxTable),
		"ppt/slides/_rels/slide1.xml.rels": pptxSlideRels,
		"ppt/notesSlides/notesSlide1.xml":  pptxNotes,
	})
	c := NewPptxConverter()

	md := string(convertFixture(t, c, ".pptx", deck, ".md"))
	// sldIdLst order, not part names, decides slide numbering.
	numbers := strings.Index(md, "# Numbers")
	welcome := strings.Index(md, "# Welcome")
	require.True(t, numbers >= 0 && welcome >= 0, md)
	assert.Less(t, numbers, welcome)
	assert.Contains(t, md, "<!-- Slide number: 1 -->\n\n# Numbers")
	assert.Contains(t, md, "| h1 | h2 |\n| --- | --- |\n| c1 | c2 |")
	assert.Contains(t, md, "![Sales chart](chart.png)")
	assert.Contains(t, md, "### Notes:\n\nRemember the demo")
	assert.NotContains(t, md, "Remember the demo\n1")

	txt := string(convertFixture(t, c, ".pptx", deck, ".txt"))
	assert.Contains(t, txt, "Slide 2\n\nWelcome\n\nfirst body")
	assert.Contains(t, txt, "h1\th2\nc1\tc2")
	assert.NotContains(t, txt, "<!--")
}

func TestSlideOrderFallback(t *testing.T) {
	deck := zipFixture(t, map[string]string{
		"ppt/presentation.xml":   `<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`,
		"ppt/slides/slide10.xml": pptxSlide("Ten", "x", ""),
		"ppt/slides/slide2.xml":  pptxSlide("Two", "y", ""),
	})
	md := string(convertFixture(t, NewPptxConverter(), ".pptx", deck, ".md"))
	assert.Less(t, strings.Index(md, "# Two"), strings.Index(md, "# Ten"))
}
