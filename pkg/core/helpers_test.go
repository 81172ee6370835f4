package core_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orviagent/orvi/pkg/artifacts"
	"github.com/orviagent/orvi/pkg/core"
	"github.com/orviagent/orvi/pkg/drivertest"
	"github.com/orviagent/orvi/pkg/log"
	"github.com/orviagent/orvi/pkg/log/sinks"
	"github.com/orviagent/orvi/pkg/security"
	"github.com/orviagent/orvi/pkg/types"
)

// harness wires a sequence runner to scripted fakes with millisecond pacing.
type harness struct {
	driver   *drivertest.Driver
	oracle   *drivertest.Oracle
	resolver *drivertest.Resolver
	tracker  *artifacts.Tracker
	memory   *sinks.MemorySink
	redactor *security.Redactor
	logger   core.Logger
	coords   core.CoordinateTable
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tracker, err := artifacts.NewTracker(t.TempDir(), "test")
	require.NoError(t, err)

	memory := sinks.NewMemorySink()
	router := log.NewRouter(memory)
	router.Redactor = security.NewRedactor()

	return &harness{
		driver:   drivertest.NewDriver(),
		oracle:   &drivertest.Oracle{},
		resolver: &drivertest.Resolver{},
		tracker:  tracker,
		memory:   memory,
		redactor: router.Redactor,
		logger:   log.NewLogger(router),
		coords:   core.CoordinateTable{},
	}
}

func (h *harness) interpreter() *core.StepInterpreter {
	return &core.StepInterpreter{
		Driver:      h.driver,
		Oracle:      h.oracle,
		Captcha:     h.resolver,
		Coordinates: h.coords,
		Artifacts:   h.tracker,
		Timing:      types.DefaultTiming(),
		Redactor:    h.redactor,
	}
}

func (h *harness) sequenceRunner() *core.SequenceRunner {
	return &core.SequenceRunner{
		Interpreter: h.interpreter(),
		Poller: &core.ValidationPoller{
			Driver:    h.driver,
			Oracle:    h.oracle,
			Artifacts: h.tracker,
		},
		Driver:             h.driver,
		Cooldown:           time.Millisecond,
		ValidationCooldown: time.Millisecond,
		Stabilization:      time.Millisecond,
	}
}

func (h *harness) linesAt(level string) []string {
	var out []string
	for _, line := range h.memory.Lines() {
		if strings.Contains(line, " - "+level+" - ") {
			out = append(out, line)
		}
	}
	return out
}

func (h *harness) logged(substr string) bool {
	return containsLine(h.memory.Lines(), substr)
}

func containsLine(lines []string, substr string) bool {
	for _, line := range lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// quick strips the default post delay so tests do not sleep.
func quick(steps ...core.Step) []core.Step {
	for i := range steps {
		if steps[i].PostDelay == nil {
			steps[i].PostDelay = types.Seconds(0)
		}
	}
	return steps
}
