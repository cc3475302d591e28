package store

import "time"

type FileKind string

const (
	FileCSV  FileKind = "csv"
	FileXLSX FileKind = "xlsx"
	FilePDF  FileKind = "pdf"
	FileDOCX FileKind = "docx"
	FileTXT  FileKind = "txt"
)

// Row is one imported record keyed by canonical field name.
type Row map[string]string

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FileContext is an uploaded file after extraction. It is not modified
// once stored on a session.
type FileContext struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Kind         FileKind          `json:"kind"`
	Rows         []Row             `json:"rows,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Text         string            `json:"-"`
	QualityScore float64           `json:"quality_score"`
	UploadedAt   time.Time         `json:"uploaded_at"`
}

// Structured reports whether the file yielded tabular rows for bulk import.
func (f *FileContext) Structured() bool {
	return len(f.Rows) > 0
}

// FailedRow is an import row the record service rejected, kept for export.
type FailedRow struct {
	Row    Row       `json:"row"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}
