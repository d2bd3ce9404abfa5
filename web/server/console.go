package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by publishing each line to the event
// stream and forwarding it to the server log
type WebLogger struct {
	renderID string
	events   *eventHub
	base     core.Logger
}

// newWebLogger creates a new web logger for a specific render
func newWebLogger(renderID string, events *eventHub, base core.Logger) core.Logger {
	if base == nil {
		base = core.NopLogger()
	}
	return &WebLogger{
		renderID: renderID,
		events:   events,
		base:     base,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	wl.base.Printf(format, args...)

	if wl.events == nil {
		return
	}
	// Never blocks; slow subscribers lose console lines
	wl.events.publishJSON(EventConsole, ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   strings.TrimRight(fmt.Sprintf(format, args...), "\n"),
		Timestamp: time.Now(),
		Level:     "info",
	})
}
