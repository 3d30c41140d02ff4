package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is one user-visible notification.
type Toast struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Sink receives notifications.
type Sink interface {
	Show(kind Kind, message string)
}

// Center is a bounded notification list owned by the application shell;
// toasts beyond capacity drop from the oldest end.
type Center struct {
	mu       sync.RWMutex
	capacity int
	toasts   []Toast
}

// NewCenter creates a center retaining at most capacity toasts.
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = 20
	}
	return &Center{capacity: capacity}
}

// Show appends a notification, dropping the oldest beyond capacity.
func (c *Center) Show(kind Kind, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, Toast{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
		Time:    time.Now().UTC(),
	})
	if len(c.toasts) > c.capacity {
		c.toasts = c.toasts[len(c.toasts)-c.capacity:]
	}
}

// Snapshot returns the retained toasts, oldest first.
func (c *Center) Snapshot() []Toast {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Toast, len(c.toasts))
	copy(out, c.toasts)
	return out
}

// Latest returns the most recent toast, if any.
func (c *Center) Latest() (Toast, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.toasts) == 0 {
		return Toast{}, false
	}
	return c.toasts[len(c.toasts)-1], true
}
