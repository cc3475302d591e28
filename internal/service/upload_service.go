package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"hr-assistant-be/internal/constant"
	"hr-assistant-be/internal/dto"
	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/fileparse"
	"hr-assistant-be/pkg/store"

	"github.com/google/uuid"
)

const uploadModule = "UPLOAD"

type IUploadService interface {
	Upload(ctx context.Context, req *dto.UploadRequest, name string, data []byte) (*dto.UploadResponse, error)
	FailedRows(ctx context.Context, req *dto.FailedRowsRequest) (*dto.FailedRowsExport, error)
}

type UploadSessions interface {
	WithSession(id string, fn func(*store.Session) error) error
	Exists(id string) bool
}

type UploadConfig struct {
	MaxRows     int
	PreviewSize int
}

type uploadService struct {
	sessions UploadSessions
	cfg      UploadConfig
	logger   logger.ILogger
}

func NewUploadService(sessions UploadSessions, cfg UploadConfig, log logger.ILogger) IUploadService {
	if cfg.PreviewSize <= 0 {
		cfg.PreviewSize = 5
	}
	return &uploadService{sessions: sessions, cfg: cfg, logger: log}
}

func (s *uploadService) Upload(ctx context.Context, req *dto.UploadRequest, name string, data []byte) (*dto.UploadResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}

	parsed, err := fileparse.Parse(name, data, fileparse.Options{MaxRows: s.cfg.MaxRows})
	if err != nil {
		s.logger.Warn(uploadModule, "Upload rejected", map[string]interface{}{
			"session": logger.SessionFingerprint(sessionID),
			"file":    name,
			"error":   err.Error(),
		})
		return nil, err
	}

	file := parsed.ToFileContext(uuid.NewString(), name)
	file.UploadedAt = time.Now()
	err = s.sessions.WithSession(sessionID, func(sess *store.Session) error {
		sess.AddFile(file)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(uploadModule, "File stored", map[string]interface{}{
		"session": logger.SessionFingerprint(sessionID),
		"kind":    string(file.Kind),
		"rows":    len(file.Rows),
		"quality": file.QualityScore,
	})

	res := &dto.UploadResponse{
		FileID:         file.ID,
		SessionID:      sessionID,
		Name:           name,
		Kind:           file.Kind,
		RowCount:       len(file.Rows),
		Truncated:      parsed.Truncated,
		UnknownHeaders: parsed.UnknownHeaders,
		Fields:         parsed.Fields,
		QualityScore:   file.QualityScore,
	}
	if n := len(file.Rows); n > 0 {
		if n > s.cfg.PreviewSize {
			n = s.cfg.PreviewSize
		}
		res.Preview = file.Rows[:n]
	}
	res.Hint = uploadHint(req.Mode, file, parsed.Truncated, s.cfg.MaxRows)
	return res, nil
}

func uploadHint(mode dto.UploadMode, file *store.FileContext, truncated bool, maxRows int) string {
	var b strings.Builder
	b.WriteString(constant.MsgUploadStored)

	structured := file.Structured()
	switch {
	case structured && mode != dto.UploadModeSingle:
		fmt.Fprintf(&b, " Found %d candidate row(s). Say \"import candidates from the file\" to create them.", len(file.Rows))
	case structured:
		b.WriteString(" Say \"add candidate from the file\" to create a candidate from the first row.")
	case len(file.Fields) > 0:
		b.WriteString(" Say \"add candidate from the file\" to review the extracted details before creating a candidate.")
		if draft := store.DraftFromRow(store.Row(file.Fields)); len(draft.Missing()) > 0 {
			fmt.Fprintf(&b, " Still missing: %s.", strings.Join(draft.Missing(), ", "))
		}
	default:
		b.WriteString(" I could not find candidate details in it.")
	}
	if truncated {
		fmt.Fprintf(&b, " Only the first %d rows were kept.", maxRows)
	}
	return b.String()
}

func (s *uploadService) FailedRows(ctx context.Context, req *dto.FailedRowsRequest) (*dto.FailedRowsExport, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	format, err := fileparse.ParseExportFormat(req.Format)
	if err != nil {
		return nil, err
	}

	var rows []store.FailedRow
	if s.sessions.Exists(sessionID) {
		err = s.sessions.WithSession(sessionID, func(sess *store.Session) error {
			rows = sess.FailedRowsSnapshot()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return &dto.FailedRowsExport{Format: format}, nil
	}

	var buf bytes.Buffer
	if err := fileparse.WriteFailedRows(&buf, format, rows); err != nil {
		return nil, err
	}
	return &dto.FailedRowsExport{Format: format, Body: buf.Bytes(), Count: len(rows)}, nil
}
