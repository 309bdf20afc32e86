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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheet is one named grid of cells, the common shape of every tabular input.
type sheet struct {
	Name string
	Rows [][]string
}

// writeSheets renders sheets into outputPath according to its extension.
// Formats that hold a single table (csv, json) take the first non-empty sheet.
func writeSheets(outputPath string, sheets []sheet) error {
	sheets = nonEmptySheets(sheets)
	switch NormalizeFormat(filepath.Ext(outputPath)) {
	case ".md":
		var b strings.Builder
		for _, s := range sheets {
			if len(sheets) > 1 && s.Name != "" {
				fmt.Fprintf(&b, "## %s\n\n", s.Name)
			}
			b.WriteString(renderMarkdownTable(s.Rows))
			b.WriteString("\n")
		}
		return writeText(outputPath, b.String())
	case ".csv":
		if len(sheets) == 0 {
			return writeOutput(outputPath, nil)
		}
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.WriteAll(sheets[0].Rows); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
		return writeOutput(outputPath, buf.Bytes())
	case ".json":
		var rows []map[string]string
		if len(sheets) > 0 {
			rows = tableRecords(sheets[0].Rows)
		}
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return writeOutput(outputPath, append(data, '\n'))
	case ".xlsx":
		return writeWorkbook(outputPath, sheets)
	}
	return fmt.Errorf("unsupported table output %q", filepath.Ext(outputPath))
}

func nonEmptySheets(sheets []sheet) []sheet {
	out := sheets[:0:0]
	for _, s := range sheets {
		if len(s.Rows) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// tableRecords turns a header row plus data rows into one object per row.
// Blank or duplicate headers fall back to the column letter.
func tableRecords(rows [][]string) []map[string]string {
	if len(rows) == 0 {
		return []map[string]string{}
	}
	header := make([]string, len(rows[0]))
	seen := make(map[string]bool)
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			h, _ = excelize.ColumnNumberToName(i + 1)
		}
		seen[h] = true
		header[i] = h
	}
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

func writeWorkbook(outputPath string, sheets []sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if len(sheets) == 0 {
		sheets = []sheet{{Name: "Sheet1"}}
	}
	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		switch {
		case i > 0:
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("add sheet: %w", err)
			}
		case name != "Sheet1":
			// NewFile starts with a single sheet named Sheet1.
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("name sheet: %w", err)
			}
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			values := make([]interface{}, len(row))
			for j, v := range row {
				values[j] = v
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("write XLSX: %w", err)
	}
	return nil
}

// renderMarkdownTable renders rows as a Markdown table with the first row as
// header. Rows are padded to the widest row.
func renderMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = escapeCell(row[i])
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}
	writeRow(rows[0])
	b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}
