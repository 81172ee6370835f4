package artifacts_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orviagent/orvi/pkg/artifacts"
	"github.com/orviagent/orvi/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifacts(t *testing.T, tr *artifacts.Tracker, keys ...types.ArtifactKey) []string {
	t.Helper()
	var paths []string
	for _, key := range keys {
		p := tr.Path(key)
		require.NoError(t, os.WriteFile(p, []byte("png"), 0644))
		tr.Record(p)
		paths = append(paths, p)
	}
	return paths
}

func TestTracker_PathEncodesIndices(t *testing.T) {
	tr, err := artifacts.NewTracker(t.TempDir(), "m1")
	require.NoError(t, err)

	p := filepath.Base(tr.Path(types.ArtifactKey{Sequence: 2, Attempt: 3, Poll: 1, Kind: types.ArtifactValidation}))
	assert.Equal(t, "m1_s02_a03_p01_validation_001.png", p)

	p = filepath.Base(tr.Path(types.ArtifactKey{Sequence: 1, Attempt: 1, Kind: types.ArtifactCaptcha}))
	assert.Equal(t, "m1_s01_a01_captcha_002.png", p)
}

func TestTracker_PathsAreUniqueForSameKey(t *testing.T) {
	tr, err := artifacts.NewTracker(t.TempDir(), "m1")
	require.NoError(t, err)

	key := types.ArtifactKey{Sequence: 1, Attempt: 1, Kind: types.ArtifactCaptcha}
	assert.NotEqual(t, tr.Path(key), tr.Path(key))
}

func TestTracker_CleanupOnSuccessKeepsOnlyLast(t *testing.T) {
	dir := t.TempDir()
	tr, err := artifacts.NewTracker(dir, "m1")
	require.NoError(t, err)

	paths := writeArtifacts(t, tr,
		types.ArtifactKey{Sequence: 1, Attempt: 1, Kind: types.ArtifactCaptcha},
		types.ArtifactKey{Sequence: 1, Attempt: 1, Kind: types.ArtifactCaptchaClean},
		types.ArtifactKey{Sequence: 2, Attempt: 1, Poll: 1, Kind: types.ArtifactValidation},
		types.ArtifactKey{Kind: types.ArtifactFinal},
	)

	report := tr.Cleanup(true)
	assert.Equal(t, paths[3], report.Kept)
	assert.ElementsMatch(t, paths[:3], report.Deleted)
	assert.Empty(t, report.Failed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_final_004.png"))
}

func TestTracker_CleanupOnFailureKeepsEverything(t *testing.T) {
	dir := t.TempDir()
	tr, err := artifacts.NewTracker(dir, "m1")
	require.NoError(t, err)

	writeArtifacts(t, tr,
		types.ArtifactKey{Sequence: 1, Attempt: 1, Kind: types.ArtifactCaptcha},
		types.ArtifactKey{Sequence: 1, Attempt: 2, Kind: types.ArtifactCaptcha},
		types.ArtifactKey{Kind: types.ArtifactFinal},
	)

	report := tr.Cleanup(false)
	assert.Empty(t, report.Deleted)
	assert.Empty(t, report.Kept)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestTracker_CleanupIgnoresAlreadyMissingFiles(t *testing.T) {
	tr, err := artifacts.NewTracker(t.TempDir(), "m1")
	require.NoError(t, err)

	paths := writeArtifacts(t, tr,
		types.ArtifactKey{Sequence: 1, Attempt: 1, Kind: types.ArtifactCaptcha},
		types.ArtifactKey{Kind: types.ArtifactFinal},
	)
	require.NoError(t, os.Remove(paths[0]))

	report := tr.Cleanup(true)
	assert.Empty(t, report.Deleted)
	assert.Empty(t, report.Failed)
	assert.Equal(t, paths[1], report.Kept)
}
