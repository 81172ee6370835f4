package sinks

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/orviagent/orvi/pkg/log"
	"github.com/orviagent/orvi/pkg/types"
)

// MemorySink keeps the formatted lines of one mission in emission order.
// Lines are only ever appended.
type MemorySink struct {
	// MinLevel drops events below it. The zero value keeps everything.
	MinLevel types.Level

	mu    sync.Mutex
	lines []string
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Write(event *log.LogEvent) error {
	if event.Level < m.MinLevel {
		return nil
	}
	line := fmt.Sprintf("%s - %s - %s",
		event.Timestamp.Format(time.RFC3339),
		strings.ToUpper(event.Level.String()),
		event.Message,
	)
	if errMsg := getStringField(event.Fields, "error"); errMsg != "" {
		line = fmt.Sprintf("%s: %s", line, errMsg)
	}

	m.mu.Lock()
	m.lines = append(m.lines, line)
	m.mu.Unlock()
	return nil
}

// Append adds a preformatted line, used when the logging pipeline itself is
// unavailable.
func (m *MemorySink) Append(line string) {
	m.mu.Lock()
	m.lines = append(m.lines, line)
	m.mu.Unlock()
}

// Lines returns a copy of every line collected so far.
func (m *MemorySink) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *MemorySink) Close() error {
	return nil
}
