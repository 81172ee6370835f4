package captcha_test

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orviagent/orvi/pkg/captcha"
	"github.com/orviagent/orvi/pkg/log"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.Set(0, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	img.Set(1, 0, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	img.Set(2, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	img.Set(3, 0, color.NRGBA{R: 250, G: 250, B: 250, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestPreprocess_ProducesBlackAndWhite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.png")
	out := filepath.Join(dir, "clean.png")
	writePNG(t, in)

	require.NoError(t, captcha.Preprocess(in, out))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	bounds := img.Bounds()
	require.Equal(t, 4, bounds.Dx())

	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		r, g, b, _ := img.At(x, 0).RGBA()
		v := uint8(r >> 8)
		assert.Contains(t, []uint8{0, 255}, v, "pixel %d", x)
		assert.Equal(t, r, g)
		assert.Equal(t, r, b)
	}

	r0, _, _, _ := img.At(0, 0).RGBA()
	r3, _, _, _ := img.At(3, 0).RGBA()
	assert.Equal(t, uint32(0), r0>>8, "dark pixel goes black")
	assert.Equal(t, uint32(255), r3>>8, "light pixel goes white")
}

func TestPreprocess_MissingInput(t *testing.T) {
	dir := t.TempDir()
	err := captcha.Preprocess(filepath.Join(dir, "nope.png"), filepath.Join(dir, "out.png"))
	require.Error(t, err)
}

func newImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "captcha.png")
	writePNG(t, path)
	return path
}

func TestAntiCaptcha_Solve(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "secret-key", body["clientKey"])

		switch r.URL.Path {
		case "/createTask":
			task := body["task"].(map[string]any)
			assert.Equal(t, "ImageToTextTask", task["type"])
			assert.NotEmpty(t, task["body"])
			w.Write([]byte(`{"errorId":0,"taskId":42}`))
		case "/getTaskResult":
			assert.EqualValues(t, 42, body["taskId"])
			if atomic.AddInt32(&polls, 1) < 2 {
				w.Write([]byte(`{"errorId":0,"status":"processing"}`))
				return
			}
			w.Write([]byte(`{"errorId":0,"status":"ready","solution":{"text":"Ab3d"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	solver := captcha.NewAntiCaptcha("secret-key", log.Nop(),
		captcha.WithBaseURL(srv.URL),
		captcha.WithPollInterval(time.Millisecond),
	)

	text, err := solver.Solve(t.Context(), newImage(t))
	require.NoError(t, err)
	assert.Equal(t, "Ab3d", text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&polls))
}

func TestAntiCaptcha_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errorId":1,"errorCode":"ERROR_KEY_DOES_NOT_EXIST","errorDescription":"bad key"}`))
	}))
	defer srv.Close()

	solver := captcha.NewAntiCaptcha("wrong", log.Nop(), captcha.WithBaseURL(srv.URL))
	text, err := solver.Solve(t.Context(), newImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERROR_KEY_DOES_NOT_EXIST")
	assert.Empty(t, text)
}

func TestAntiCaptcha_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/createTask" {
			w.Write([]byte(`{"errorId":0,"taskId":7}`))
			return
		}
		w.Write([]byte(`{"errorId":0,"status":"processing"}`))
	}))
	defer srv.Close()

	solver := captcha.NewAntiCaptcha("k", log.Nop(),
		captcha.WithBaseURL(srv.URL),
		captcha.WithPollInterval(5*time.Millisecond),
		captcha.WithTimeout(50*time.Millisecond),
	)
	text, err := solver.Solve(t.Context(), newImage(t))
	require.Error(t, err)
	assert.Empty(t, text)
}

func TestAntiCaptcha_NoKey(t *testing.T) {
	solver := captcha.NewAntiCaptcha("", log.Nop())
	_, err := solver.Solve(t.Context(), "unused.png")
	require.ErrorIs(t, err, captcha.ErrNoAPIKey)
}
