package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyFile indicates the input has no header row.
var ErrEmptyFile = errors.New("file has no header row")

// ErrUnsupportedFormat indicates a file extension no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseError wraps a failure to read an uploaded file.
type ParseError struct {
	File   string
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s file %q: %v", e.Format, e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads a CSV or XLSX file, chosen by the filename's extension.
// The dataset is named after the file.
func Load(filename string, r io.Reader) (*Dataset, error) {
	name := filepath.Base(filename)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return LoadCSV(name, r)
	case ".xlsx":
		return LoadXLSX(name, r, "")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// LoadCSV parses comma separated data, retrying with ';' when the header
// cannot be read or yields a single column that contains semicolons.
func LoadCSV(name string, r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{File: name, Format: "csv", Err: err}
	}

	header, rows, err := readCSV(data, ',')
	if err != nil || (len(header) == 1 && strings.Contains(header[0], ";")) {
		header, rows, err = readCSV(data, ';')
	}
	if err != nil {
		return nil, &ParseError{File: name, Format: "csv", Err: err}
	}
	return FromRecords(name, header, rows), nil
}

func readCSV(data []byte, comma rune) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip malformed rows
			continue
		}
		rows = append(rows, record)
	}
	return headers, rows, nil
}

// LoadXLSX reads one worksheet; the first row is the header. An empty sheet
// name selects the workbook's first sheet.
func LoadXLSX(name string, r io.Reader, sheet string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{File: name, Format: "xlsx", Err: err}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &ParseError{File: name, Format: "xlsx", Err: ErrEmptyFile}
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{File: name, Format: "xlsx", Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{File: name, Format: "xlsx", Err: ErrEmptyFile}
	}

	header := rows[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	return FromRecords(name, header, rows[1:]), nil
}
