package fileparse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"hr-assistant-be/pkg/store"
)

const fullNameHeader = "name"

var fullNameAliases = map[string]bool{
	"name":           true,
	"full name":      true,
	"full_name":      true,
	"candidate":      true,
	"candidate name": true,
}

func parseCSV(data []byte, opts Options) (*Result, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return fromTable(records, opts)
}

func parseXLSX(data []byte, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return fromTable(records, opts)
}

// fromTable treats the first non-empty record as the header row.
func fromTable(records [][]string, opts Options) (*Result, error) {
	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptyFile
	}

	res := &Result{}
	columns := make([]string, len(records[start]))
	for i, h := range records[start] {
		h = strings.TrimSpace(h)
		res.Headers = append(res.Headers, h)
		switch key := strings.ToLower(strings.Join(strings.Fields(h), " ")); {
		case fullNameAliases[key]:
			columns[i] = fullNameHeader
		case h == "":
		default:
			if canonical, ok := store.NormalizeField(h); ok {
				columns[i] = canonical
			} else {
				res.UnknownHeaders = append(res.UnknownHeaders, h)
			}
		}
	}

	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		if len(res.Rows) == opts.MaxRows {
			res.Truncated = true
			break
		}
		row := store.Row{}
		for i, v := range rec {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if store.IsNullish(v) {
				continue
			}
			if columns[i] == fullNameHeader {
				splitName(row, v)
				continue
			}
			row[columns[i]] = v
		}
		if len(row) > 0 {
			res.Rows = append(res.Rows, row)
		}
	}
	if len(res.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	res.QualityScore = tableQuality(res)
	return res, nil
}

// splitName fills first/last name from a full-name cell unless explicit
// columns already did.
func splitName(row store.Row, full string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return
	}
	if _, ok := row[store.FieldFirstName]; !ok {
		row[store.FieldFirstName] = parts[0]
	}
	if _, ok := row[store.FieldLastName]; !ok && len(parts) > 1 {
		row[store.FieldLastName] = strings.Join(parts[1:], " ")
	}
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
