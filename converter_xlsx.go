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

	"github.com/xuri/excelize/v2"
)

// XLSXConverter converts Office Open XML workbooks.
type XLSXConverter struct{}

// NewXLSXConverter creates an XLSXConverter.
func NewXLSXConverter() *XLSXConverter {
	return &XLSXConverter{}
}

func (c *XLSXConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".xlsx"}, []string{".csv", ".md"})
}

func (c *XLSXConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	f, err := excelize.OpenFile(inputPath)
	if err != nil {
		return fmt.Errorf("open XLSX: %w", err)
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, sheet{Name: name, Rows: rows})
	}
	return writeSheets(outputPath, sheets)
}
