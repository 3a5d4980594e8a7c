// Package rod adapts go-rod browser pages into execution contexts speaking
// the action-tagged command protocol. One Factory owns one Chrome process;
// every job gets a fresh page.
package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/google/uuid"

	"signup-agent/internal/application/port/output"
	"signup-agent/internal/usecase/classify"
)

var _ output.ContextFactory = (*Factory)(nil)

type Config struct {
	Headless   bool
	Stealth    bool // create pages through the stealth patch
	SlowMotion time.Duration
	Timeout    time.Duration // per element lookup / eval
	NoSandbox  bool
	DevTools   bool
	Threshold  float64 // classifier acceptance threshold
}

func DefaultConfig() Config {
	return Config{
		Headless:  true,
		Stealth:   true,
		Timeout:   10 * time.Second,
		NoSandbox: true,
		Threshold: classify.DefaultThreshold,
	}
}

type Factory struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   output.LoggerPort
	cfg      Config
}

// NewFactory launches Chrome and connects. Close kills the process.
func NewFactory(ctx context.Context, cfg Config, logger output.LoggerPort) (*Factory, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-setuid-sandbox")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	return &Factory{browser: browser, launcher: l, logger: logger, cfg: cfg}, nil
}

// Open creates a page, navigates it to url, and waits for the load event.
// The readiness handshake is the caller's job: a loaded page is not yet a
// responsive agent.
func (f *Factory) Open(ctx context.Context, url string) (output.ExecContext, error) {
	var page *rod.Page
	var err error
	if f.cfg.Stealth {
		page, err = stealth.Page(f.browser)
	} else {
		page, err = f.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := page.Context(ctx).Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		f.logger.Warn("wait load", "url", url, "error", err)
	}

	return &Context{
		handle:  uuid.NewString(),
		page:    page,
		logger:  f.logger.WithField("url", url),
		timeout: f.cfg.Timeout,
		cfg:     f.cfg,
	}, nil
}

func (f *Factory) Close() {
	if f.browser != nil {
		_ = f.browser.Close()
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher.Cleanup()
	}
}
