package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"hr-assistant-be/internal/bootstrap"
	"hr-assistant-be/internal/config"
	"hr-assistant-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Load()
	cfg.App.LogFilePath = filepath.Join(t.TempDir(), "app.log")
	cfg.App.NatsURL = ""
	cfg.App.RedisURL = ""
	cfg.Database.Connection = ""
	cfg.RecordService.BaseURL = "http://127.0.0.1:1/api"

	container := bootstrap.NewContainer(cfg)
	t.Cleanup(container.Close)
	return New(cfg, container).GetApp()
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "hr_sessions_active")
}

func TestChatGreetingRoundTrip(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/chat", map[string]string{"message": "hi", "session_id": "web-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Hello! How can I help you today?", out["response"])
	assert.Equal(t, "web-1", out["session_id"])
}

func TestChatWithoutMessage(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/chat", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"success":false`)
	assert.Contains(t, string(body), "No message provided.")
}

func TestCancelValidationAndNothingRunning(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/chat/cancel", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var envelope serverutils.Response
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "Invalid request", envelope.Message)

	resp, body = doJSON(t, app, http.MethodPost, "/api/chat/cancel", map[string]string{"session_id": "web-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"success":false`)
}

func TestStatusModelsAndDelete(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/chat/status/web-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"running":false`)

	resp, body = doJSON(t, app, http.MethodGet, "/api/models", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"models"`)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/chat/session/web-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/chat/activity/web-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"session_id":"web-1"`)
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/chat/ws", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/chat/ws?session_id=web-1", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func upload(t *testing.T, app *fiber.App, name, content string, fields map[string]string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestUploadAndFailedRows(t *testing.T) {
	app := newTestApp(t)

	resp, body := upload(t, app, "people.csv", "name,email\nAda Lovelace,ada@example.com\n", map[string]string{"session_id": "web-2"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			RowCount int    `json:"row_count"`
			Kind     string `json:"kind"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, envelope.Data.RowCount)

	resp, _ = upload(t, app, "legacy.doc", "binary", nil)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/chat/upload/failed-rows?session_id=web-2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/chat/upload/failed-rows?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
