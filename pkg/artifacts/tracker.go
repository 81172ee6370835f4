// Package artifacts names the image files a mission generates and applies the
// retention policy once the mission is over.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/orviagent/orvi/pkg/types"
)

// Tracker is owned by a single mission. Generation order is the order in which
// files are recorded, not their modification times.
type Tracker struct {
	dir       string
	missionID string

	mu      sync.Mutex
	counter int
	files   []string
}

func NewTracker(dir, missionID string) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating artifact directory %q: %w", dir, err)
	}
	return &Tracker{dir: dir, missionID: missionID}, nil
}

// Path returns a unique file path encoding the mission, sequence, attempt and
// poll indices. The file is not tracked until Record is called.
func (t *Tracker) Path(key types.ArtifactKey) string {
	t.mu.Lock()
	t.counter++
	n := t.counter
	t.mu.Unlock()

	name := fmt.Sprintf("%s_s%02d_a%02d", t.missionID, key.Sequence, key.Attempt)
	if key.Poll > 0 {
		name = fmt.Sprintf("%s_p%02d", name, key.Poll)
	}
	name = fmt.Sprintf("%s_%s_%03d.png", name, key.Kind, n)
	return filepath.Join(t.dir, name)
}

func (t *Tracker) Record(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, existing := range t.files {
		if existing == path {
			return
		}
	}
	t.files = append(t.files, path)
}

// Files returns the recorded files in generation order.
func (t *Tracker) Files() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.files))
	copy(out, t.files)
	return out
}

// CleanupReport describes what Cleanup did.
type CleanupReport struct {
	Kept    string
	Deleted []string
	Failed  map[string]error
}

// Cleanup applies the retention policy. On success every recorded file except
// the most recently recorded one is removed. On failure nothing is removed.
func (t *Tracker) Cleanup(success bool) CleanupReport {
	report := CleanupReport{Failed: map[string]error{}}
	files := t.Files()
	if !success || len(files) == 0 {
		return report
	}

	report.Kept = files[len(files)-1]
	for _, f := range files[:len(files)-1] {
		if f == report.Kept {
			continue
		}
		if err := os.Remove(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			report.Failed[f] = err
			continue
		}
		report.Deleted = append(report.Deleted, f)
	}
	return report
}
