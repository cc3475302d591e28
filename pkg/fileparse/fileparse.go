package fileparse

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"hr-assistant-be/pkg/store"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
)

const DefaultMaxRows = 1000

type Options struct {
	MaxRows int
}

// Result is the extraction output of one upload. Tabular files fill Rows,
// document files fill Fields and Text.
type Result struct {
	Kind           store.FileKind    `json:"kind"`
	Headers        []string          `json:"headers,omitempty"`
	UnknownHeaders []string          `json:"unknown_headers,omitempty"`
	Rows           []store.Row       `json:"rows,omitempty"`
	Truncated      bool              `json:"truncated,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
	Text           string            `json:"-"`
	QualityScore   float64           `json:"quality_score"`
}

// KindOf maps a file name to its kind by extension.
func KindOf(name string) (store.FileKind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return store.FileCSV, nil
	case ".xlsx", ".xlsm":
		return store.FileXLSX, nil
	case ".pdf":
		return store.FilePDF, nil
	case ".docx":
		return store.FileDOCX, nil
	case ".txt", ".text":
		return store.FileTXT, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(name))
}

// Parse extracts rows or field guesses from an uploaded file.
func Parse(name string, data []byte, opts Options) (*Result, error) {
	kind, err := KindOf(name)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyFile
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}

	var res *Result
	switch kind {
	case store.FileCSV:
		res, err = parseCSV(data, opts)
	case store.FileXLSX:
		res, err = parseXLSX(data, opts)
	case store.FilePDF:
		res, err = parsePDF(data)
	case store.FileDOCX:
		res, err = parseDOCX(data)
	case store.FileTXT:
		res, err = parseText(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	res.Kind = kind
	return res, nil
}

// ToFileContext converts a result into the session's immutable file record.
func (r *Result) ToFileContext(id, name string) *store.FileContext {
	return &store.FileContext{
		ID:           id,
		Name:         name,
		Kind:         r.Kind,
		Rows:         r.Rows,
		Fields:       r.Fields,
		Text:         r.Text,
		QualityScore: r.QualityScore,
	}
}
