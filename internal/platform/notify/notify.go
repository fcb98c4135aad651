// Package notify delivers short, transient messages to the person driving the
// client: the success or failure of the action they just took.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Level is the kind of notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a single transient message.
type Notification struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier is the sink views report outcomes to.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// ---------------------------------------------------------------------------
// Console
// ---------------------------------------------------------------------------

// ConsoleNotifier prints one line per notification.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func Console(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (c *ConsoleNotifier) Success(msg string) { c.print("✓", msg) }
func (c *ConsoleNotifier) Error(msg string)   { c.print("✗", msg) }
func (c *ConsoleNotifier) Info(msg string)    { c.print("•", msg) }

func (c *ConsoleNotifier) print(prefix, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", prefix, msg)
}

// ---------------------------------------------------------------------------
// Recorder
// ---------------------------------------------------------------------------

// Recorder keeps every notification in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: msg, CreatedAt: time.Now()})
}

// All returns a copy of the recorded notifications in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// ---------------------------------------------------------------------------
// Nop
// ---------------------------------------------------------------------------

type nop struct{}

func (nop) Success(string) {}
func (nop) Error(string)   {}
func (nop) Info(string)    {}

// Nop discards every notification.
func Nop() Notifier { return nop{} }
