package fileparse

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"hr-assistant-be/pkg/store"
)

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

const failedSheet = "Failed Rows"

var exportColumnOrder = []string{
	store.FieldFirstName,
	store.FieldLastName,
	store.FieldEmail,
	store.FieldPhoneNumber,
	store.FieldCandidateStage,
	store.FieldJobTitle,
	store.FieldCity,
	store.FieldSource,
	store.FieldCommunicationSkills,
	store.FieldYearsOfExperience,
	store.FieldExpectedSalary,
	store.FieldCurrentSalary,
	store.FieldNotes,
}

func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return ExportCSV, nil
	case "xlsx", "excel":
		return ExportXLSX, nil
	}
	return "", fmt.Errorf("%w: export format %q", ErrUnsupportedType, s)
}

func (f ExportFormat) ContentType() string {
	if f == ExportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

func (f ExportFormat) FileName() string {
	return "failed_rows." + string(f)
}

// WriteFailedRows writes the rejected import rows with their reasons. Columns
// are the known fields that occur in any row, then extra keys sorted, then
// the reason.
func WriteFailedRows(w io.Writer, format ExportFormat, rows []store.FailedRow) error {
	header := exportHeader(rows)
	table := make([][]string, 0, len(rows)+1)
	table = append(table, append(append([]string{}, header...), "error"))
	for _, fr := range rows {
		line := make([]string, 0, len(header)+1)
		for _, col := range header {
			line = append(line, fr.Row[col])
		}
		table = append(table, append(line, fr.Reason))
	}

	if format == ExportXLSX {
		return writeXLSX(w, table)
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(table); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func exportHeader(rows []store.FailedRow) []string {
	present := map[string]bool{}
	for _, fr := range rows {
		for k := range fr.Row {
			present[k] = true
		}
	}
	var header []string
	for _, col := range exportColumnOrder {
		if present[col] {
			header = append(header, col)
			delete(present, col)
		}
	}
	extra := make([]string, 0, len(present))
	for k := range present {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(header, extra...)
}

func writeXLSX(w io.Writer, table [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", failedSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, line := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(failedSheet, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
