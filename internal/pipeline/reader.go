package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/verocta/spendscore/internal/vendor"
)

// ReadTable decodes raw file bytes into a header row and data records.
// XLSX workbooks (first sheet) and CSV are supported; the choice is driven by
// the filename extension, defaulting to CSV.
func ReadTable(filename string, data []byte) ([]string, []RawRecord, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(data)
	default:
		return readCSV(data)
	}
}

func readCSV(data []byte) ([]string, []RawRecord, error) {
	// Strip a UTF-8 BOM some exporters prepend.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("readCSV: empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("readCSV: reading header: %w", err)
	}

	var records []RawRecord
	for i := 0; ; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("readCSV: row %d: %w", i, err)
		}
		records = append(records, newRawRecord(i, header, row))
	}
	return header, records, nil
}

func readWorkbook(data []byte) ([]string, []RawRecord, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("readWorkbook: %w", err)
	}
	defer xl.Close()

	sheets := xl.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("readWorkbook: workbook has no sheets")
	}
	rows, err := xl.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("readWorkbook: reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("readWorkbook: empty sheet")
	}

	header := rows[0]
	records := make([]RawRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		records = append(records, newRawRecord(i, header, row))
	}
	return header, records, nil
}

// newRawRecord maps a row's cells onto normalized header names. Short rows
// leave trailing fields absent; extra cells are ignored.
func newRawRecord(index int, header, row []string) RawRecord {
	fields := make(map[string]string, len(header))
	for i, h := range header {
		key := vendor.NormalizeHeader(h)
		if key == "" {
			continue
		}
		if i < len(row) {
			fields[key] = strings.TrimSpace(row[i])
		}
	}
	return RawRecord{
		Index:  index,
		Fields: fields,
		Raw:    strings.Join(row, ","),
	}
}
