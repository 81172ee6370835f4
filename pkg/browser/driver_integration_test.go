package browser_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orviagent/orvi/pkg/browser"
	"github.com/orviagent/orvi/pkg/types"
)

const loginPage = `<!doctype html>
<html><body>
<form>
  <input id="user" value="stale">
  <span id="challenge">07</span>
  <img id="captcha" width="40" height="20" src="data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7">
  <button type="button">Ingresar</button>
</form>
</body></html>`

func TestDriver_AgainstRealChrome(t *testing.T) {
	if os.Getenv("ORVI_BROWSER_TESTS") == "" {
		t.Skip("set ORVI_BROWSER_TESTS=1 to run against a local Chrome")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(loginPage))
	}))
	defer srv.Close()

	launcher := &browser.Launcher{Headless: true, ActionTimeout: 10 * time.Second}
	d, err := launcher.Open(t.Context())
	require.NoError(t, err)
	defer d.Close()

	ctx := t.Context()
	require.NoError(t, d.Navigate(ctx, srv.URL))

	loc, err := d.CurrentLocation(ctx)
	require.NoError(t, err)
	assert.Contains(t, loc, srv.URL)

	require.NoError(t, d.WaitForVisible(ctx, "#user", 2*time.Second))
	require.NoError(t, d.Fill(ctx, "#user", "alice"))

	text, err := d.ReadText(ctx, "#challenge")
	require.NoError(t, err)
	assert.Equal(t, "07", text)

	visible, err := d.IsVisible(ctx, "#missing")
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = d.IsVisible(ctx, "button:has-text('Ingresar')")
	require.NoError(t, err)
	assert.True(t, visible)

	err = d.WaitForVisible(ctx, "#missing", 200*time.Millisecond)
	require.ErrorIs(t, err, types.ErrElementNotFound)

	dir := t.TempDir()
	require.NoError(t, d.Screenshot(ctx, filepath.Join(dir, "page.png")))
	require.NoError(t, d.ScreenshotElement(ctx, "#captcha", filepath.Join(dir, "captcha.png")))
	assert.FileExists(t, filepath.Join(dir, "page.png"))
	assert.FileExists(t, filepath.Join(dir, "captcha.png"))
}
