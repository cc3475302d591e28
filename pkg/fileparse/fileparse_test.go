package fileparse

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hr-assistant-be/pkg/store"
)

func TestKindOf(t *testing.T) {
	cases := map[string]store.FileKind{
		"a.csv":         store.FileCSV,
		"Sheet.XLSX":    store.FileXLSX,
		"cv.pdf":        store.FilePDF,
		"resume.docx":   store.FileDOCX,
		"notes.txt":     store.FileTXT,
		"dir/x.y.z.csv": store.FileCSV,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := KindOf(name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := KindOf("image.png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = KindOf("legacy.doc")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestParseCSVNormalizesHeaders(t *testing.T) {
	data := "\xef\xbb\xbfFull Name,E-mail,Phone,Experience,Favourite Colour\n" +
		"Ada Lovelace,ada@example.com,555-0100,5,green\n" +
		",,,,\n" +
		"Grace Brewster Hopper,grace@example.com,N/A,-,blue\n"

	res, err := Parse("people.csv", []byte(data), Options{})
	require.NoError(t, err)

	assert.Equal(t, store.FileCSV, res.Kind)
	assert.Equal(t, []string{"Favourite Colour"}, res.UnknownHeaders)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, store.Row{
		store.FieldFirstName:         "Ada",
		store.FieldLastName:          "Lovelace",
		store.FieldEmail:             "ada@example.com",
		store.FieldPhoneNumber:       "555-0100",
		store.FieldYearsOfExperience: "5",
	}, res.Rows[0])
	assert.Equal(t, store.Row{
		store.FieldFirstName: "Grace",
		store.FieldLastName:  "Brewster Hopper",
		store.FieldEmail:     "grace@example.com",
	}, res.Rows[1])
	// both rows complete with valid email, 4 of 5 headers recognised
	assert.InDelta(t, 0.96, res.QualityScore, 0.001)
}

func TestParseCSVScoresIncompleteRows(t *testing.T) {
	data := "first_name,last_name,email\nAda,,not-an-email\nAlan,Turing,alan@example.com\n"

	res, err := Parse("x.csv", []byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.InDelta(t, 0.6, res.QualityScore, 0.001)
}

func TestParseCSVTruncatesAtMaxRows(t *testing.T) {
	data := "email\na@x.io\nb@x.io\nc@x.io\n"

	res, err := Parse("x.csv", []byte(data), Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.True(t, res.Truncated)
}

func TestParseCSVHeaderOnlyIsEmpty(t *testing.T) {
	_, err := Parse("x.csv", []byte("first_name,email\n"), Options{})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse("x.csv", []byte("  \n"), Options{})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"First Name", "Last Name", "Email", "Stage"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"Alan", "Turing", "alan@example.com", "Interview"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	res, err := Parse("sheet.xlsx", buf.Bytes(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Turing", res.Rows[0][store.FieldLastName])
	assert.Equal(t, "Interview", res.Rows[0][store.FieldCandidateStage])
	assert.Equal(t, 1.0, res.QualityScore)
}

func TestParseText(t *testing.T) {
	text := `Ada Lovelace
Email: ada@example.com
Phone: +44 20 7946 0958
Location: London
Position: Analyst
Skills: mathematics, engines
Over 7 years of experience in computation.`

	res, err := Parse("resume.txt", []byte(text), Options{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		store.FieldFirstName:         "Ada",
		store.FieldLastName:          "Lovelace",
		store.FieldEmail:             "ada@example.com",
		store.FieldPhoneNumber:       "+44 20 7946 0958",
		store.FieldCity:              "London",
		store.FieldJobTitle:          "Analyst",
		store.FieldNotes:             "mathematics, engines",
		store.FieldYearsOfExperience: "7",
	}, res.Fields)
	assert.Equal(t, 1.0, res.QualityScore)
	assert.Empty(t, res.Rows)
}

func TestParseTextPartialScore(t *testing.T) {
	res, err := Parse("note.txt", []byte("reach me at someone@example.com"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", res.Fields[store.FieldEmail])
	assert.InDelta(t, 0.14, res.QualityScore, 0.001)
}

func TestParseDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Grace Hopper</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Email: </w:t></w:r><w:r><w:t>grace@example.com</w:t></w:r></w:p>
</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	res, err := Parse("cv.docx", buf.Bytes(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Grace", res.Fields[store.FieldFirstName])
	assert.Equal(t, "Hopper", res.Fields[store.FieldLastName])
	assert.Equal(t, "grace@example.com", res.Fields[store.FieldEmail])
	assert.Contains(t, res.Text, "Grace Hopper\n")
}

func TestParseDOCXWithoutDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Parse("cv.docx", buf.Bytes(), Options{})
	assert.Error(t, err)
}

func TestParseInvalidPDF(t *testing.T) {
	_, err := Parse("cv.pdf", []byte("definitely not a pdf"), Options{})
	assert.Error(t, err)
}

func TestWriteFailedRowsCSV(t *testing.T) {
	rows := []store.FailedRow{
		{Row: store.Row{store.FieldEmail: "a@x.io", store.FieldFirstName: "A", "zeta": "1"}, Reason: "invalid email", At: time.Now()},
		{Row: store.Row{store.FieldLastName: "B"}, Reason: "missing email"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFailedRows(&buf, ExportCSV, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"first_name", "last_name", "email", "zeta", "error"},
		{"A", "", "a@x.io", "1", "invalid email"},
		{"", "B", "", "", "missing email"},
	}, records)
}

func TestWriteFailedRowsXLSX(t *testing.T) {
	rows := []store.FailedRow{{Row: store.Row{store.FieldEmail: "a@x.io"}, Reason: "duplicate"}}
	var buf bytes.Buffer
	require.NoError(t, WriteFailedRows(&buf, ExportXLSX, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(failedSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"email", "error"}, {"a@x.io", "duplicate"}}, got)
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportCSV, f)
	f, err = ParseExportFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, "failed_rows.xlsx", f.FileName())
	_, err = ParseExportFormat("ods")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
