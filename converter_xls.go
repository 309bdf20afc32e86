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

	"github.com/extrame/xls"
)

// XLSConverter converts legacy BIFF8 workbooks.
type XLSConverter struct{}

// NewXLSConverter creates an XLSConverter.
func NewXLSConverter() *XLSConverter {
	return &XLSConverter{}
}

func (c *XLSConverter) Capabilities() Capabilities {
	return NewCapabilities([]string{".xls"}, []string{".csv", ".md"})
}

func (c *XLSConverter) Convert(ctx context.Context, inputPath, outputPath string) (err error) {
	// extrame/xls panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse XLS: %v", r)
		}
	}()

	wb, err := xls.Open(inputPath, "utf-8")
	if err != nil {
		return fmt.Errorf("open XLS: %w", err)
	}

	var sheets []sheet
	for i := 0; i < wb.NumSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		s := sheet{Name: ws.Name}
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for col := 0; col < row.LastCol(); col++ {
				cells = append(cells, row.Col(col))
			}
			s.Rows = append(s.Rows, cells)
		}
		sheets = append(sheets, s)
	}
	return writeSheets(outputPath, sheets)
}
