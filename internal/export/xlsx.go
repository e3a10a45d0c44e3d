// Package export renders a pipeline result as an XLSX workbook. The export
// is stateless: it works entirely on the in-memory result and writes nothing
// to disk.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"medintake/internal/domain"
	"medintake/internal/schema"
)

const sheetName = "Extraction"

// XLSX renders the extracted fields of a result as a single-sheet workbook.
// Rows follow schema order; fields without an extracted value are omitted.
func XLSX(res *domain.PipelineResult, s *schema.Schema) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Field", "Type", "Value", "Confidence"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	row := 2
	for _, field := range s.Fields() {
		ef, ok := res.Fields[field.Name]
		if !ok {
			continue
		}
		values := []any{field.Name, string(field.Type), ef.Value, ef.Confidence}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
		row++
	}

	summary := [][2]any{
		{"Overall confidence", res.OverallConfidence},
		{"OCR confidence", res.OCRConfidence},
		{"LLM confidence", res.LLMConfidence},
		{"Schema version", res.Metadata.SchemaVersion},
	}
	row++
	for _, kv := range summary {
		keyCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		valCell, err := excelize.CoordinatesToCellName(2, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, keyCell, kv[0]); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
		if err := f.SetCellValue(sheetName, valCell, kv[1]); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
