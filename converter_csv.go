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
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVConverter renders CSV files as a Markdown table, JSON records or a
// workbook.
type CSVConverter struct{}

// NewCSVConverter creates a CSVConverter.
func NewCSVConverter() *CSVConverter {
	return &CSVConverter{}
}

func (c *CSVConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".csv"}, []string{".md", ".json", ".xlsx"})
}

func (c *CSVConverter) Convert(_ context.Context, inputPath, outputPath string) error {
	data, err := readInput(inputPath)
	if err != nil {
		return err
	}

	r := csv.NewReader(strings.NewReader(decodeText(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse CSV: %w", err)
	}
	return writeSheets(outputPath, []sheet{{Rows: rows}})
}
