package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

// captureLogger records formatted lines
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureLogger) Printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func TestWebLogger_BasicLogging(t *testing.T) {
	hub := newEventHub()
	events := hub.subscribe()
	defer hub.unsubscribe(events)

	base := &captureLogger{}
	logger := newWebLogger("render-123", hub, base)

	testMessage := "Test log message"
	logger.Printf("%s\n", testMessage)

	select {
	case event := <-events:
		if event.Type != EventConsole {
			t.Fatalf("Expected console event, got %q", event.Type)
		}
		var msg ConsoleMessage
		if err := json.Unmarshal([]byte(event.Data), &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Message != testMessage {
			t.Errorf("Expected message '%s', got '%s'", testMessage, msg.Message)
		}
		if msg.RenderID != "render-123" {
			t.Errorf("Expected render id 'render-123', got '%s'", msg.RenderID)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}

	if len(base.lines) != 1 || base.lines[0] != testMessage+"\n" {
		t.Errorf("Expected base logger to receive the line, got %q", base.lines)
	}
}

func TestWebLogger_NilHub(t *testing.T) {
	base := &captureLogger{}
	logger := newWebLogger("render-1", nil, base)

	logger.Printf("no subscribers %d\n", 1)

	if len(base.lines) != 1 {
		t.Errorf("Expected 1 forwarded line, got %d", len(base.lines))
	}
}

func TestWebLogger_NonBlocking(t *testing.T) {
	hub := newEventHub()
	events := hub.subscribe() // never drained
	defer hub.unsubscribe(events)

	logger := newWebLogger("render-789", hub, nil)

	done := make(chan bool)
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			logger.Printf("Message %d\n", i)
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Logger blocked when the subscriber buffer was full")
	}

	if len(events) != subscriberBuffer {
		t.Errorf("Expected a full buffer of %d events, got %d", subscriberBuffer, len(events))
	}
}

func TestEventHub_FanOut(t *testing.T) {
	hub := newEventHub()
	a := hub.subscribe()
	b := hub.subscribe()
	if hub.count() != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", hub.count())
	}

	hub.publishJSON(EventProgress, map[string]int{"jobNumber": 1})

	for i, ch := range []chan SSEEvent{a, b} {
		select {
		case event := <-ch:
			if event.Type != EventProgress || event.Data != `{"jobNumber":1}` {
				t.Errorf("Subscriber %d got %+v", i, event)
			}
		default:
			t.Errorf("Subscriber %d received nothing", i)
		}
	}

	hub.unsubscribe(a)
	hub.publish(SSEEvent{Type: EventComplete, Data: "{}"})
	if len(a) != 0 {
		t.Error("Unsubscribed channel still received events")
	}
	if len(b) != 1 {
		t.Errorf("Expected 1 pending event for remaining subscriber, got %d", len(b))
	}
	hub.unsubscribe(b)
}
