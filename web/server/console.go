package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	requestID   string
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a new web logger for a specific request
func NewWebLogger(requestID string, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		requestID:   requestID,
		consoleChan: consoleChan,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	glog.Infof("[%s] %s", wl.requestID, strings.TrimRight(message, "\n"))

	// Non-blocking: a full console drops the message
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			Message:   message,
			Timestamp: time.Now(),
			Level:     "info",
		}:
		default:
		}
	}
}

// drainConsole collects every message already queued on ch
func drainConsole(ch <-chan ConsoleMessage) []ConsoleMessage {
	messages := []ConsoleMessage{}
	for {
		select {
		case msg := <-ch:
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}
