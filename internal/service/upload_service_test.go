package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"hr-assistant-be/internal/dto"
	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/internal/repository/memory"
	"hr-assistant-be/pkg/fileparse"
	"hr-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Full Name,Email,Stage,Hobby\n" +
	"Ada Lovelace,ada@example.com,Interview,chess\n" +
	"Alan Turing,alan@example.com,Applied,running\n" +
	"Grace Hopper,grace@example.com,Offer,sailing\n"

func newUploadFixture(t *testing.T) (IUploadService, *memory.SessionStore) {
	t.Helper()
	log := logger.NewNopLogger()
	sessions := memory.NewSessionStore(store.DefaultLimits(), time.Hour, log)
	return NewUploadService(sessions, UploadConfig{MaxRows: 100, PreviewSize: 2}, log), sessions
}

func TestUploadStoresStructuredFile(t *testing.T) {
	svc, sessions := newUploadFixture(t)

	res, err := svc.Upload(context.Background(), &dto.UploadRequest{SessionID: "s1"}, "people.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, store.FileCSV, res.Kind)
	assert.Equal(t, 3, res.RowCount)
	assert.Len(t, res.Preview, 2)
	assert.Equal(t, []string{"Hobby"}, res.UnknownHeaders)
	assert.Contains(t, res.Hint, "Found 3 candidate row(s)")
	assert.NotEmpty(t, res.FileID)

	var file *store.FileContext
	require.NoError(t, sessions.WithSession("s1", func(s *store.Session) error {
		file = s.FindFile(res.FileID)
		return nil
	}))
	require.NotNil(t, file)
	assert.Equal(t, "Ada", file.Rows[0][store.FieldFirstName])
	assert.False(t, file.UploadedAt.IsZero())
}

func TestUploadSingleModeHint(t *testing.T) {
	svc, _ := newUploadFixture(t)

	res, err := svc.Upload(context.Background(), &dto.UploadRequest{Mode: dto.UploadModeSingle}, "people.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, store.DefaultSessionID, res.SessionID)
	assert.Contains(t, res.Hint, "add candidate from the file")
}

func TestUploadDocumentReportsMissingFields(t *testing.T) {
	svc, _ := newUploadFixture(t)

	res, err := svc.Upload(context.Background(), &dto.UploadRequest{SessionID: "s1"}, "resume.txt",
		[]byte("Email: jo@example.com\nPhone: +1 555 123 4567\n"))
	require.NoError(t, err)
	assert.Equal(t, store.FileTXT, res.Kind)
	assert.Zero(t, res.RowCount)
	assert.Equal(t, "jo@example.com", res.Fields[store.FieldEmail])
	assert.Contains(t, res.Hint, "Still missing: first_name, last_name.")
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, sessions := newUploadFixture(t)

	_, err := svc.Upload(context.Background(), &dto.UploadRequest{SessionID: "s1"}, "legacy.doc", []byte("x"))
	require.ErrorIs(t, err, fileparse.ErrUnsupportedType)
	assert.False(t, sessions.Exists("s1"))
}

func TestFailedRowsExport(t *testing.T) {
	svc, sessions := newUploadFixture(t)
	ctx := context.Background()

	out, err := svc.FailedRows(ctx, &dto.FailedRowsRequest{SessionID: "s1"})
	require.NoError(t, err)
	assert.Zero(t, out.Count)
	assert.False(t, sessions.Exists("s1"))

	require.NoError(t, sessions.WithSession("s1", func(s *store.Session) error {
		s.AppendFailedRows(store.FailedRow{
			Row:    store.Row{store.FieldFirstName: "Ada", store.FieldEmail: "ada@example.com"},
			Reason: "candidate with this email already exists",
		})
		return nil
	}))

	out, err = svc.FailedRows(ctx, &dto.FailedRowsRequest{SessionID: "s1", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, fileparse.ExportCSV, out.Format)

	records, err := csv.NewReader(strings.NewReader(string(out.Body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "error", records[0][len(records[0])-1])
	assert.Equal(t, "candidate with this email already exists", records[1][len(records[1])-1])
}
