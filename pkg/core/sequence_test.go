package core_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orviagent/orvi/pkg/core"
	"github.com/orviagent/orvi/pkg/types"
)

func TestSequence_LoginWithEnvUser(t *testing.T) {
	t.Setenv("USER", "alice")
	h := newHarness(t)

	seq := core.Sequence{
		Title:       "Login",
		MaxAttempts: 1,
		Steps: quick(
			core.Step{Kind: types.KindNavigate, Target: "https://example.test/login"},
			core.Step{Kind: types.KindInput, Target: "#user", Value: "env:USER"},
		),
	}

	res := h.sequenceRunner().Run(t.Context(), 1, seq, h.logger)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	require.NoError(t, res.Err)

	want := []string{
		"current_location()",
		"navigate(https://example.test/login)",
		"wait_for_visible(#user, 5s)",
		"clear(#user)",
		"type(#user, alice)",
	}
	if diff := cmp.Diff(want, h.driver.Calls()); diff != "" {
		t.Errorf("driver calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSequence_NoTargetNeverWaitsForTarget(t *testing.T) {
	h := newHarness(t)
	seq := core.Sequence{
		Title: "Idle",
		Steps: quick(core.Step{Kind: types.KindWait}),
	}

	res := h.sequenceRunner().Run(t.Context(), 1, seq, h.logger)
	require.True(t, res.Success)
	assert.False(t, h.driver.Called("wait_for_visible("))
}

func TestSequence_TargetFoundOnSecondAttempt(t *testing.T) {
	h := newHarness(t)
	h.driver.FailTimes["#dashboard"] = 1

	seq := core.Sequence{
		Title:                "Login",
		MaxAttempts:          3,
		SuccessTarget:        "#dashboard",
		SuccessTargetTimeout: types.Duration(0),
		Steps:                quick(core.Step{Kind: types.KindClick, Target: "#submit"}),
	}

	res := h.sequenceRunner().Run(t.Context(), 1, seq, h.logger)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.True(t, h.logged("Success target not found"))
	assert.True(t, h.logged("Retrying"))
}

func TestSequence_FailingStepAbortsAttempt(t *testing.T) {
	h := newHarness(t)
	h.driver.FailTimes["#user"] = 1

	seq := core.Sequence{
		Title:       "Login",
		MaxAttempts: 2,
		Steps: quick(
			core.Step{Kind: types.KindInput, Target: "#user", Value: "alice"},
			core.Step{Kind: types.KindClick, Target: "#submit"},
		),
	}

	res := h.sequenceRunner().Run(t.Context(), 1, seq, h.logger)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)

	want := []string{
		"wait_for_visible(#user, 5s)",
		"wait_for_visible(#user, 5s)",
		"clear(#user)",
		"type(#user, alice)",
		"wait_for_visible(#submit, 5s)",
		"click(#submit)",
	}
	if diff := cmp.Diff(want, h.driver.Calls()); diff != "" {
		t.Errorf("driver calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSequence_ExhaustsAttempts(t *testing.T) {
	h := newHarness(t)
	h.driver.Hidden["#submit"] = true

	seq := core.Sequence{
		Title:       "Transfer",
		MaxAttempts: 3,
		Steps:       quick(core.Step{Kind: types.KindClick, Target: "#submit"}),
	}

	res := h.sequenceRunner().Run(t.Context(), 1, seq, h.logger)
	require.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	require.ErrorIs(t, res.Err, types.ErrSequenceExhausted)
	require.ErrorIs(t, res.Err, types.ErrElementNotFound)
	assert.True(t, h.logged("Sequence failed after 3 attempts"))
}

func TestSequence_OptionalStepDoesNotAbort(t *testing.T) {
	h := newHarness(t)
	h.driver.Hidden["#cookies"] = true

	seq := core.Sequence{
		Title: "Login",
		Steps: quick(
			core.Step{Kind: types.KindClick, Target: "#cookies", Optional: true},
			core.Step{Kind: types.KindClick, Target: "#submit"},
		),
	}

	res := h.sequenceRunner().Run(t.Context(), 1, seq, h.logger)
	require.True(t, res.Success)
	assert.True(t, h.driver.Called("click(#submit)"))
	assert.Empty(t, h.linesAt("ERROR"))
}

func TestSequence_ValidationPassesAfterPolling(t *testing.T) {
	h := newHarness(t)
	h.oracle.Verdicts = []types.Verdict{
		{Passed: false, Reason: "still loading"},
		{Passed: false, Reason: "still loading"},
		{Passed: true, Reason: "dashboard visible"},
	}

	seq := core.Sequence{
		Title: "Confirm",
		Steps: quick(core.Step{
			Kind:   types.KindClick,
			Target: "#submit",
			Validation: &core.Validation{
				Condition:    "the transfer receipt is shown",
				PollAttempts: 3,
				PollDelay:    types.Seconds(0.001),
			},
		}),
	}

	res := h.sequenceRunner().Run(t.Context(), 1, seq, h.logger)
	require.True(t, res.Success)
	assert.Equal(t, 3, h.oracle.ValidateCalls)
	assert.Len(t, h.tracker.Files(), 3)
}

func TestSequence_ValidationExhaustionRetriesAttempt(t *testing.T) {
	h := newHarness(t)
	h.oracle.Verdicts = []types.Verdict{{Passed: false, Reason: "error banner"}}

	seq := core.Sequence{
		Title:       "Confirm",
		MaxAttempts: 2,
		Steps: quick(core.Step{
			Kind:   types.KindClick,
			Target: "#submit",
			Validation: &core.Validation{
				Condition:    "the transfer receipt is shown",
				PollAttempts: 2,
				PollDelay:    types.Seconds(0.001),
			},
		}),
	}

	res := h.sequenceRunner().Run(t.Context(), 1, seq, h.logger)
	require.False(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	require.ErrorIs(t, res.Err, types.ErrValidationFailed)
	assert.Equal(t, 4, h.oracle.ValidateCalls)
	assert.Len(t, h.tracker.Files(), 4)
}

func TestPoller_EmptyConditionPasses(t *testing.T) {
	h := newHarness(t)
	p := &core.ValidationPoller{Driver: h.driver, Oracle: h.oracle, Artifacts: h.tracker}

	require.NoError(t, p.Poll(t.Context(), core.Validation{}, key, h.logger))
	assert.Zero(t, h.oracle.ValidateCalls)
	assert.Empty(t, h.driver.Calls())
}

func TestPoller_OracleErrorCountsAsFailedVerdict(t *testing.T) {
	h := newHarness(t)
	h.oracle.Errs = []error{errors.New("503 from model")}
	h.oracle.Verdicts = []types.Verdict{{}, {Passed: true, Reason: "ok"}}
	p := &core.ValidationPoller{Driver: h.driver, Oracle: h.oracle, Artifacts: h.tracker}

	v := core.Validation{Condition: "logged in", PollAttempts: 3, PollDelay: types.Seconds(0)}
	require.NoError(t, p.Poll(t.Context(), v, key, h.logger))
	assert.Equal(t, 2, h.oracle.ValidateCalls)
	assert.True(t, h.logged("Oracle call failed"))
}

func TestPoller_ScreenshotNamesCarryPollIndex(t *testing.T) {
	h := newHarness(t)
	h.oracle.Verdicts = []types.Verdict{{Passed: false}}
	p := &core.ValidationPoller{Driver: h.driver, Oracle: h.oracle, Artifacts: h.tracker}

	v := core.Validation{Condition: "logged in", PollAttempts: 2, PollDelay: types.Seconds(0)}
	err := p.Poll(t.Context(), v, types.ArtifactKey{Sequence: 2, Attempt: 3}, h.logger)
	require.ErrorIs(t, err, types.ErrValidationFailed)

	files := h.tracker.Files()
	require.Len(t, files, 2)
	assert.Contains(t, files[0], "s02_a03_p01_validation")
	assert.Contains(t, files[1], "s02_a03_p02_validation")
}
