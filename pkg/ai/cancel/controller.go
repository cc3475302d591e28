package cancel

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrTaskRunning = errors.New("a task is already running for this session")

// TaskHandle marks one long-running unit of work for a session.
// Cancellation is cooperative: owners poll IsCancelled at checkpoints.
type TaskHandle struct {
	ID          string
	SessionID   string
	Description string
	StartedAt   time.Time

	cancelled atomic.Bool
}

func (h *TaskHandle) IsCancelled() bool {
	return h.cancelled.Load()
}

// TaskStatus is a point-in-time view of a handle.
type TaskStatus struct {
	SessionID   string    `json:"session_id"`
	TaskID      string    `json:"task_id"`
	Description string    `json:"description"`
	StartedAt   time.Time `json:"started_at"`
	Cancelled   bool      `json:"cancelled"`
}

// Controller tracks at most one running task per session.
type Controller struct {
	mu    sync.Mutex
	tasks map[string]*TaskHandle
	now   func() time.Time
}

func NewController() *Controller {
	return &Controller{
		tasks: make(map[string]*TaskHandle),
		now:   time.Now,
	}
}

// Register starts tracking a task. It fails with ErrTaskRunning while
// another task of the same session is registered.
func (c *Controller) Register(sessionID, description string) (*TaskHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.tasks[sessionID]; busy {
		return nil, ErrTaskRunning
	}
	h := &TaskHandle{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Description: description,
		StartedAt:   c.now(),
	}
	c.tasks[sessionID] = h
	return h, nil
}

// RequestCancel flags the running task. It returns false when there is
// nothing to cancel.
func (c *Controller) RequestCancel(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.tasks[sessionID]
	if !ok {
		return false
	}
	h.cancelled.Store(true)
	return true
}

func (c *Controller) IsCancelled(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.tasks[sessionID]
	return ok && h.IsCancelled()
}

func (c *Controller) IsRunning(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.tasks[sessionID]
	return ok
}

func (c *Controller) Status(sessionID string) (TaskStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.tasks[sessionID]
	if !ok {
		return TaskStatus{SessionID: sessionID}, false
	}
	return TaskStatus{
		SessionID:   sessionID,
		TaskID:      h.ID,
		Description: h.Description,
		StartedAt:   h.StartedAt,
		Cancelled:   h.IsCancelled(),
	}, true
}

// Finish unregisters h if it is still the session's current task.
func (c *Controller) Finish(h *TaskHandle) {
	if h == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.tasks[h.SessionID]; ok && cur == h {
		delete(c.tasks, h.SessionID)
	}
}

// Clear drops whatever task the session has, flagging it cancelled first.
func (c *Controller) Clear(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.tasks[sessionID]; ok {
		h.cancelled.Store(true)
		delete(c.tasks, sessionID)
	}
}
