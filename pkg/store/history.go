package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// History is a fixed-capacity ring buffer of turns.
type History struct {
	turns []Turn
	start int
	size  int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 50
	}
	return &History{turns: make([]Turn, capacity)}
}

func (h *History) Append(t Turn) {
	capacity := len(h.turns)
	if h.size < capacity {
		h.turns[(h.start+h.size)%capacity] = t
		h.size++
		return
	}
	h.turns[h.start] = t
	h.start = (h.start + 1) % capacity
}

func (h *History) Len() int {
	return h.size
}

func (h *History) Cap() int {
	return len(h.turns)
}

// Last returns up to n most recent turns, oldest first.
func (h *History) Last(n int) []Turn {
	if n <= 0 || n > h.size {
		n = h.size
	}
	out := make([]Turn, 0, n)
	for i := h.size - n; i < h.size; i++ {
		out = append(out, h.turns[(h.start+i)%len(h.turns)])
	}
	return out
}

func (h *History) All() []Turn {
	return h.Last(h.size)
}
