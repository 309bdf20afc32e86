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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedConverter converts RSS and Atom feeds into a Markdown digest or a
// normalized JSON document.
type FeedConverter struct{}

// NewFeedConverter creates a FeedConverter.
func NewFeedConverter() *FeedConverter {
	return &FeedConverter{}
}

func (c *FeedConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".rss", ".atom", ".xml"}, []string{".md", ".json"})
}

// feedItem is the JSON shape of one entry.
type feedItem struct {
	Title     string     `json:"title,omitempty"`
	Link      string     `json:"link,omitempty"`
	Published *time.Time `json:"published,omitempty"`
	Authors   []string   `json:"authors,omitempty"`
	Summary   string     `json:"summary,omitempty"`
}

type feedDocument struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Link        string     `json:"link,omitempty"`
	Type        string     `json:"type"`
	Items       []feedItem `json:"items"`
}

func (c *FeedConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return fmt.Errorf("parse feed: %w", err)
	}

	if NormalizeFormat(filepath.Ext(outputPath)) == ".json" {
		return writeFeedJSON(outputPath, feed)
	}

	var b strings.Builder
	if feed.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", feed.Title)
	}
	if feed.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", feed.Description)
	}
	for _, item := range feed.Items {
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		if item.Link != "" {
			fmt.Fprintf(&b, "## [%s](%s)\n\n", title, item.Link)
		} else {
			fmt.Fprintf(&b, "## %s\n\n", title)
		}
		if item.Published != "" {
			fmt.Fprintf(&b, "Published: %s\n\n", item.Published)
		} else if item.Updated != "" {
			fmt.Fprintf(&b, "Updated: %s\n\n", item.Updated)
		}
		if body := itemBody(item); body != "" {
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}
	return writeText(outputPath, b.String())
}

// itemBody prefers full content over the description and renders embedded
// HTML as Markdown.
func itemBody(item *gofeed.Item) string {
	body := item.Content
	if body == "" {
		body = item.Description
	}
	if strings.Contains(body, "<") && strings.Contains(body, ">") {
		if md, err := htmlToMarkdown(removeScriptAndStyle(body)); err == nil {
			body = md
		}
	}
	return strings.TrimSpace(body)
}

func writeFeedJSON(outputPath string, feed *gofeed.Feed) error {
	doc := feedDocument{
		Title:       feed.Title,
		Description: feed.Description,
		Link:        feed.Link,
		Type:        feed.FeedType,
		Items:       make([]feedItem, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		fi := feedItem{
			Title:     item.Title,
			Link:      item.Link,
			Published: item.PublishedParsed,
			Summary:   itemBody(item),
		}
		for _, a := range item.Authors {
			if a != nil && a.Name != "" {
				fi.Authors = append(fi.Authors, a.Name)
			}
		}
		doc.Items = append(doc.Items, fi)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return writeOutput(outputPath, append(data, '\n'))
}
