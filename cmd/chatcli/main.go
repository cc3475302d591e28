// Command chatcli is an interactive terminal client for the chat API.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

type client struct {
	baseURL   string
	token     string
	sessionID string
	model     string
	http      *http.Client
}

func (c *client) do(method, path, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

func (c *client) postJSON(path string, v interface{}) (int, []byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, nil, err
	}
	return c.do(http.MethodPost, path, "application/json", bytes.NewReader(raw))
}

type chatReply struct {
	Response  json.RawMessage `json:"response"`
	State     string          `json:"state"`
	Model     string          `json:"model"`
	FellBack  bool            `json:"fell_back"`
	Busy      bool            `json:"busy"`
	Cancelled bool            `json:"cancelled"`
}

// Chat sends one message and returns the reply text.
func (c *client) Chat(message string) (chatReply, string, error) {
	payload := map[string]interface{}{"message": message, "session_id": c.sessionID}
	if c.model != "" {
		payload["model"] = c.model
	}
	status, body, err := c.postJSON("/chat", payload)
	if err != nil {
		return chatReply{}, "", err
	}
	if status != http.StatusOK {
		return chatReply{}, "", fmt.Errorf("chat failed with %d: %s", status, strings.TrimSpace(string(body)))
	}
	var reply chatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return chatReply{}, "", err
	}
	var text string
	if err := json.Unmarshal(reply.Response, &text); err != nil {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(reply.Response, &failure)
		text = failure.Message
	}
	return reply, text, nil
}

func (c *client) Cancel() (string, error) {
	_, body, err := c.postJSON("/chat/cancel", map[string]string{"session_id": c.sessionID})
	if err != nil {
		return "", err
	}
	var res struct {
		Message string `json:"message"`
	}
	err = json.Unmarshal(body, &res)
	return res.Message, err
}

func (c *client) Status() ([]byte, error) {
	_, body, err := c.do(http.MethodGet, "/chat/status/"+c.sessionID, "", nil)
	return body, err
}

func (c *client) Upload(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("session_id", c.sessionID)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	status, body, err := c.do(http.MethodPost, "/chat/upload", w.FormDataContentType(), &buf)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("upload failed with %d: %s", status, strings.TrimSpace(string(body)))
	}
	return body, err
}

// FailedRows downloads the failed-row export into dir.
func (c *client) FailedRows(format, dir string) (string, error) {
	status, body, err := c.do(http.MethodGet, "/chat/upload/failed-rows?session_id="+c.sessionID+"&format="+format, "", nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("no export (%d): %s", status, strings.TrimSpace(string(body)))
	}
	if format == "" {
		format = "csv"
	}
	name := filepath.Join(dir, "failed_rows."+format)
	return name, os.WriteFile(name, body, 0o644)
}

func printUsage() {
	color.Cyan("Commands: /cancel  /status  /upload <file>  /failed [csv|xlsx]  /session  /quit")
}

func main() {
	baseURL := flag.String("url", "http://localhost:8001/api", "chat API base URL")
	token := flag.String("token", os.Getenv("HR_AUTH_TOKEN"), "record service token")
	session := flag.String("session", "", "session id (random when empty)")
	model := flag.String("model", "", "model id override")
	flag.Parse()

	c := &client{
		baseURL:   strings.TrimRight(*baseURL, "/"),
		token:     *token,
		sessionID: *session,
		model:     *model,
		http:      &http.Client{Timeout: 5 * time.Minute},
	}
	if c.sessionID == "" {
		c.sessionID = "cli-" + uuid.NewString()[:8]
	}

	color.Cyan("HR Assistant chat, session %s", c.sessionID)
	printUsage()

	in := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgYellow, color.Bold).Print("you> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "/quit", "/exit":
			return
		case "/help":
			printUsage()
		case "/session":
			color.Cyan("session %s", c.sessionID)
		case "/cancel":
			msg, err := c.Cancel()
			report(msg, err)
		case "/status":
			body, err := c.Status()
			report(string(body), err)
		case "/upload":
			body, err := c.Upload(strings.TrimSpace(arg))
			report(string(body), err)
		case "/failed":
			name, err := c.FailedRows(strings.TrimSpace(arg), ".")
			report("saved "+name, err)
		default:
			reply, text, err := c.Chat(line)
			if err != nil {
				color.Red("error: %v", err)
				continue
			}
			switch {
			case reply.Busy:
				color.Magenta("bot> %s", text)
			case reply.Cancelled:
				color.Red("bot> %s", text)
			default:
				color.Green("bot> %s", text)
			}
			if reply.FellBack {
				color.HiBlack("(answered by fallback model %s)", reply.Model)
			}
			if reply.State != "" {
				color.HiBlack("[%s]", reply.State)
			}
		}
	}
}

func report(msg string, err error) {
	if err != nil {
		color.Red("error: %v", err)
		return
	}
	color.Green("%s", msg)
}
