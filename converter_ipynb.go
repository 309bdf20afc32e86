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
	"path/filepath"
	"strings"
)

// NotebookConverter converts Jupyter notebooks to Markdown or to a
// percent-format script.
type NotebookConverter struct{}

// NewNotebookConverter creates a NotebookConverter.
func NewNotebookConverter() *NotebookConverter {
	return &NotebookConverter{}
}

func (c *NotebookConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".ipynb"}, []string{".md", ".py"})
}

type notebook struct {
	Metadata struct {
		KernelSpec struct {
			Language string `json:"language"`
		} `json:"kernelspec"`
		LanguageInfo struct {
			Name string `json:"name"`
		} `json:"language_info"`
	} `json:"metadata"`
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
	Outputs  []struct {
		Text json.RawMessage            `json:"text"`
		Data map[string]json.RawMessage `json:"data"`
	} `json:"outputs"`
}

func (nb *notebook) language() string {
	switch {
	case nb.Metadata.KernelSpec.Language != "":
		return nb.Metadata.KernelSpec.Language
	case nb.Metadata.LanguageInfo.Name != "":
		return nb.Metadata.LanguageInfo.Name
	}
	return "python"
}

func (c *NotebookConverter) Convert(_ context.Context, inputPath, outputPath string) error {
	data, err := readInput(inputPath)
	if err != nil {
		return err
	}
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return fmt.Errorf("parse notebook JSON: %w", err)
	}

	if NormalizeFormat(filepath.Ext(outputPath)) == ".py" {
		return writeOutput(outputPath, []byte(notebookScript(&nb)))
	}
	return writeText(outputPath, notebookMarkdown(&nb))
}

func notebookMarkdown(nb *notebook) string {
	lang := nb.language()
	var sections []string
	for _, cell := range nb.Cells {
		src := strings.TrimRight(joinText(cell.Source), "\n")
		switch cell.CellType {
		case "markdown":
			sections = append(sections, src)
		case "code":
			if strings.TrimSpace(src) != "" {
				sections = append(sections, "```"+lang+"\n"+src+"\n```")
			}
			for _, out := range cell.Outputs {
				text := joinText(out.Text)
				if text == "" {
					text = joinText(out.Data["text/plain"])
				}
				if text = strings.TrimRight(text, "\n"); text != "" {
					sections = append(sections, "```\n"+text+"\n```")
				}
			}
		case "raw":
			if strings.TrimSpace(src) != "" {
				sections = append(sections, "```\n"+src+"\n```")
			}
		}
	}
	return strings.Join(sections, "\n\n")
}

// notebookScript renders code cells as "# %%" blocks with Markdown cells
// commented out, the layout editors recognise as notebook cells.
func notebookScript(nb *notebook) string {
	cells := make([]string, 0, len(nb.Cells))
	for _, cell := range nb.Cells {
		src := strings.TrimRight(joinText(cell.Source), "\n")
		if cell.CellType == "code" {
			cells = append(cells, "# %%\n"+src)
			continue
		}
		lines := strings.Split(src, "\n")
		for i, ln := range lines {
			lines[i] = strings.TrimRight("# "+ln, " ")
		}
		cells = append(cells, "# %% [markdown]\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(cells, "\n\n") + "\n"
}

// joinText decodes a notebook multiline string, which is either a string or
// a list of lines.
func joinText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	return ""
}
