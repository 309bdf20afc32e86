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
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// HTMLConverter turns HTML pages into Markdown or plain text.
type HTMLConverter struct {
	keepDataURIs bool
}

// NewHTMLConverter creates an HTMLConverter. Inline data URIs are truncated
// unless keepDataURIs is set.
func NewHTMLConverter(keepDataURIs bool) *HTMLConverter {
	return &HTMLConverter{keepDataURIs: keepDataURIs}
}

func (c *HTMLConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".html", ".htm"}, []string{".md", ".txt"})
}

func (c *HTMLConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	data, err := readInput(inputPath)
	if err != nil {
		return err
	}
	doc := removeScriptAndStyle(string(data))

	if NormalizeFormat(filepath.Ext(outputPath)) == ".txt" {
		text, err := htmlText(doc)
		if err != nil {
			return err
		}
		return writeText(outputPath, text)
	}

	md, err := htmlToMarkdown(doc)
	if err != nil {
		return err
	}
	if !c.keepDataURIs {
		md = reDataURI.ReplaceAllString(md, "${1}...")
	}
	if title := htmlTitle(doc); title != "" && !strings.HasPrefix(strings.TrimSpace(md), "# ") {
		md = "# " + title + "\n\n" + md
	}
	return writeText(outputPath, md)
}

func htmlToMarkdown(doc string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
			),
			table.NewTablePlugin(),
		),
	)
	md, err := conv.ConvertString(doc)
	if err != nil {
		return "", fmt.Errorf("convert HTML to markdown: %w", err)
	}
	return md, nil
}

var (
	reScript  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	reStyle   = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	reDataURI = regexp.MustCompile(`(data:[a-zA-Z0-9/+.-]+;base64,)[A-Za-z0-9+/=]{64,}`)
)

func removeScriptAndStyle(doc string) string {
	return reStyle.ReplaceAllString(reScript.ReplaceAllString(doc, ""), "")
}

// blockElements start a new line in plain text output.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "pre": true, "blockquote": true,
}

// htmlText extracts the visible text of doc.
func htmlText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "head" {
				return
			}
			if blockElements[n.Data] {
				b.WriteString("\n")
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(root)
	return b.String(), nil
}

func htmlTitle(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if t := find(ch); t != "" {
				return t
			}
		}
		return ""
	}
	return find(root)
}
