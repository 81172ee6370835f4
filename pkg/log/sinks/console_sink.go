package sinks

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/orviagent/orvi/pkg/log"
	"github.com/orviagent/orvi/pkg/types"
)

var levelColorMap = map[types.Level]*color.Color{
	types.DebugLevel: color.New(color.FgCyan),
	types.InfoLevel:  color.New(color.FgGreen),
	types.WarnLevel:  color.New(color.FgYellow),
	types.ErrorLevel: color.New(color.FgRed),
	types.FatalLevel: color.New(color.FgRed, color.Bold),
}

// ConsoleSink may be shared by concurrent missions.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{out: os.Stdout}
}

func NewConsoleSinkTo(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

func (c *ConsoleSink) Write(event *log.LogEvent) error {
	sequence := getStringField(event.Fields, "sequence")
	kind := getStringField(event.Fields, "kind")
	errorMsg := getStringField(event.Fields, "error")
	levelStr := strings.ToUpper(event.Level.String())
	timestampStr := event.Timestamp.Format(time.RFC3339)

	levelFmt := color.New(color.FgWhite).SprintFunc()
	if lc, ok := levelColorMap[event.Level]; ok {
		levelFmt = lc.SprintFunc()
	}

	label := sequence
	if label == "" {
		label = "mission"
	}
	if kind != "" {
		label = fmt.Sprintf("%s/%s", label, kind)
	}

	output := fmt.Sprintf("[%s %s] %s: %s",
		levelFmt(levelStr),
		color.New(color.FgWhite).Sprint(timestampStr),
		color.CyanString(label),
		event.Message,
	)
	if errorMsg != "" {
		output = fmt.Sprintf("%s: %s", output, color.RedString(errorMsg))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, output)
	return err
}

// Helper to safely get string field from LogEvent.Fields
func getStringField(fields map[string]any, key string) string {
	if val, ok := fields[key]; ok {
		if strVal, isStr := val.(string); isStr {
			return strVal
		}
	}
	return ""
}

func (c *ConsoleSink) Close() error {
	return nil // Console doesn't need closing
}
