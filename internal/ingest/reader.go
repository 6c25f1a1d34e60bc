package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
)

// DefaultMaxFileBytes is the upload size cap (5 MB).
const DefaultMaxFileBytes = 5 << 20

// maxXLSRows bounds how many rows are read from a legacy XLS sheet.
const maxXLSRows = 65535

// ReadSheet decodes an uploaded holdings file into headers plus rows.
// CSV, XLS and XLSX are supported; only the first sheet of a workbook is
// read. The first row is the header row; missing trailing cells are filled
// with "". All failures map to the fatal-input sentinels in apperrors.
func ReadSheet(filename string, r io.Reader, maxBytes int64) (Sheet, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: %v", apperrors.ErrFileUnreadable, err)
	}
	if int64(len(data)) > maxBytes {
		return Sheet{}, apperrors.ErrFileTooLarge
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(data)
	case ".xlsx":
		records, err = readXLSX(data)
	case ".xls":
		records, err = readXLS(data)
	default:
		return Sheet{}, apperrors.ErrUnsupportedFileType
	}
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: %v", apperrors.ErrFileUnreadable, err)
	}

	return buildSheet(records)
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.ErrEmptyFile
	}
	return f.GetRows(sheets[0])
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	rows := wb.ReadAllCells(maxXLSRows)
	return rows, nil
}

// buildSheet turns raw records into a header row plus RawRows, skipping
// fully blank lines and padding short rows with "".
func buildSheet(records [][]string) (Sheet, error) {
	records = dropBlankRecords(records)
	if len(records) < 2 {
		return Sheet{}, apperrors.ErrEmptyFile
	}

	// Broker exports repeat header names ("Price", "Price"); suffix repeats
	// so later columns cannot silently overwrite earlier ones in the row map.
	headers := make([]string, len(records[0]))
	seen := map[string]int{}
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h != "" {
			seen[h]++
			if n := seen[h]; n > 1 {
				h = fmt.Sprintf("%s (%d)", h, n)
			}
		}
		headers[i] = h
	}

	rows := make([]RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(RawRow, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return Sheet{Headers: headers, Rows: rows}, nil
}

func dropBlankRecords(records [][]string) [][]string {
	kept := records[:0:0]
	for _, record := range records {
		blank := true
		for _, cell := range record {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			kept = append(kept, record)
		}
	}
	return kept
}
