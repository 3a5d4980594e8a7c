package rod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"signup-agent/internal/application/port/output"
	"signup-agent/internal/domain/entity"
)

var _ output.ExecContext = (*Context)(nil)

// Context is one live page plus its in-process automation agent. Send
// dispatches the closed command union exhaustively; unknown actions cannot
// exist by construction.
type Context struct {
	handle  string
	page    *rod.Page
	logger  output.LoggerPort
	timeout time.Duration
	cfg     Config

	// set by the last fillForm, consumed by submitForm
	selected    *entity.FormCandidate
	hasBirthday bool
}

func (c *Context) Handle() string { return c.handle }

func (c *Context) Send(ctx context.Context, cmd entity.Command) (entity.Response, error) {
	switch cmd := cmd.(type) {
	case entity.PingCommand:
		return c.ping(ctx)
	case entity.FillFormCommand:
		return c.fillForm(ctx, cmd)
	case entity.SubmitFormCommand:
		return c.submitForm(ctx)
	case entity.FormStatusCommand:
		return c.formStatus(ctx)
	default:
		return nil, fmt.Errorf("unhandled command %q", cmd.Action())
	}
}

// ping evaluates a constant in the page. Success means the agent can run
// script there, which is the whole point of the handshake.
func (c *Context) ping(ctx context.Context) (entity.Response, error) {
	res, err := c.page.Context(ctx).Eval(`() => "pong"`)
	if err != nil {
		return nil, classifyEvalErr(err)
	}
	return entity.PingResponse{Status: res.Value.Str()}, nil
}

func (c *Context) formStatus(ctx context.Context) (entity.Response, error) {
	form, ok, err := c.selectForm(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return entity.FormStatusResponse{}, nil
	}
	count := 0
	for _, f := range form.Fields {
		if f.Kind.Fillable() {
			count++
		}
	}
	return entity.FormStatusResponse{FormDetected: true, FieldCount: count}, nil
}

func (c *Context) submitForm(ctx context.Context) (entity.Response, error) {
	resp := entity.SubmitFormResponse{HasBirthdayField: c.hasBirthday}

	if c.selected == nil {
		return resp, nil
	}

	captcha, err := c.captchaPresent(ctx)
	if err != nil {
		c.logger.Warn("captcha scan", "error", err)
	}
	if captcha {
		resp.CaptchaDetected = true
		return resp, nil
	}

	el, err := c.submitControl(ctx)
	if err != nil || el == nil {
		return resp, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		c.logger.Warn("submit click", "error", err)
		return resp, nil
	}
	c.page.Context(ctx).WaitIdle(2 * time.Second)
	resp.Success = true
	return resp, nil
}

func (c *Context) submitControl(ctx context.Context) (*rod.Element, error) {
	container, err := c.page.Context(ctx).Timeout(c.timeout).Element(c.selected.Selector)
	if err != nil {
		return nil, err
	}
	for _, sel := range []string{
		`button[type="submit"]`, `input[type="submit"]`, `button:not([type])`, "button",
	} {
		if el, err := container.Element(sel); err == nil {
			return el, nil
		}
	}
	return nil, fmt.Errorf("no submit control in %s", c.selected.Selector)
}

func (c *Context) captchaPresent(ctx context.Context) (bool, error) {
	res, err := c.page.Context(ctx).Eval(`() => {
		const markers = ['g-recaptcha', 'h-captcha', 'cf-turnstile'];
		if (markers.some(m => document.querySelector('.' + m + ', #' + m) !== null)) return true;
		return document.querySelector('iframe[src*="captcha"], [class*="captcha"], [id*="captcha"]') !== null;
	}`)
	if err != nil {
		return false, classifyEvalErr(err)
	}
	return res.Value.Bool(), nil
}

// domSnapshot serialises the live DOM so extraction and classification can
// run outside the page.
func (c *Context) domSnapshot(ctx context.Context) (string, error) {
	res, err := c.page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", classifyEvalErr(err)
	}
	return res.Value.Str(), nil
}

func (c *Context) Screenshot(ctx context.Context) ([]byte, error) {
	img, err := c.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return img, nil
}

func (c *Context) Close() {
	if c.page != nil {
		_ = c.page.Close()
	}
}

// classifyEvalErr tags script rejections coming from the page's own security
// layer so they surface as policy violations, not generic failures.
func classifyEvalErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, marker := range []string{
		"Content Security Policy",
		"unsafe-eval",
		"Refused to evaluate",
		"EvalError",
	} {
		if strings.Contains(msg, marker) {
			return entity.NewFailure(entity.FailPolicyViolation, err)
		}
	}
	return err
}
