package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/orviagent/orvi/pkg/types"
)

// Launcher starts a dedicated Chrome process for every mission.
type Launcher struct {
	Headless      bool
	ExecPath      string
	WindowWidth   int
	WindowHeight  int
	ActionTimeout time.Duration
	Logger        types.Logger
}

func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	width, height := l.WindowWidth, l.WindowHeight
	if width == 0 || height == 0 {
		width, height = 1366, 900
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(width, height),
	)
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}
	return opts
}

// Open launches the browser. The session outlives ctx and must be released
// with Close.
func (l *Launcher) Open(ctx context.Context) (types.Driver, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	if err := ctx.Err(); err != nil {
		tabCancel()
		allocCancel()
		return nil, err
	}
	// The first Run on a tab context starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	timeout := l.ActionTimeout
	if timeout == 0 {
		timeout = defaultActionTimeout
	}
	if l.Logger != nil {
		l.Logger.Debug().Bool("headless", l.Headless).Msg("Browser session started")
	}

	return &Driver{
		ctx:           tabCtx,
		tabCancel:     tabCancel,
		allocCancel:   allocCancel,
		actionTimeout: timeout,
	}, nil
}
