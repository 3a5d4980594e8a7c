package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signup-agent/internal/domain/entity"
	"signup-agent/internal/infrastructure/browser/rod"
	"signup-agent/internal/infrastructure/logger"
)

const signupHTML = `<!DOCTYPE html>
<html>
<head><title>Join Us</title></head>
<body>
  <form id="signup">
    <label for="fn">First Name</label>
    <input type="text" id="fn" name="first_name">
    <label for="ln">Last Name</label>
    <input type="text" id="ln" name="last_name">
    <input type="email" id="em" name="email" placeholder="Email">
    <input type="password" id="pw" name="password">
    <input type="text" id="zip" name="zip_code">
    <input type="submit" value="Create Account">
  </form>
</body>
</html>`

func testProfile() entity.Profile {
	p := entity.NewProfile("itest", "integration")
	p.Set(entity.AttrFirstName, "Sam")
	p.Set(entity.AttrLastName, "Rivera")
	p.Set(entity.AttrEmail, "sam@example.com")
	p.Set(entity.AttrPassword, "hunter2hunter2")
	p.Set(entity.AttrZip, "94110")
	return p
}

func newFactory(t *testing.T) *rod.Factory {
	t.Helper()
	if testing.Short() {
		t.Skip("browser integration skipped in short mode")
	}
	cfg := rod.DefaultConfig()
	cfg.Headless = true
	cfg.SlowMotion = 0

	f, err := rod.NewFactory(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("launch browser: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFillForm_EndToEnd(t *testing.T) {
	factory := newFactory(t)
	srv := serve(t, signupHTML)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ec, err := factory.Open(ctx, srv.URL)
	if err != nil {
		t.Fatalf("open context: %v", err)
	}
	defer ec.Close()

	resp, err := ec.Send(ctx, entity.PingCommand{})
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if pong, ok := resp.(entity.PingResponse); !ok || pong.Status != "pong" {
		t.Fatalf("ping response = %#v", resp)
	}

	resp, err = ec.Send(ctx, entity.FormStatusCommand{})
	if err != nil {
		t.Fatalf("getFormStatus: %v", err)
	}
	status, ok := resp.(entity.FormStatusResponse)
	if !ok || !status.FormDetected {
		t.Fatalf("form not detected: %#v", resp)
	}
	if status.FieldCount != 5 {
		t.Errorf("field count = %d, want 5", status.FieldCount)
	}

	resp, err = ec.Send(ctx, entity.FillFormCommand{Profile: testProfile()})
	if err != nil {
		t.Fatalf("fillForm: %v", err)
	}
	fill, ok := resp.(entity.FillFormResponse)
	if !ok {
		t.Fatalf("fill response = %#v", resp)
	}
	if fill.Status != entity.FillStatusSuccess {
		t.Fatalf("fill status = %s (%s)", fill.Status, fill.Message)
	}
	if fill.FieldsFilledCount != 5 {
		t.Errorf("filled %d fields, want 5", fill.FieldsFilledCount)
	}
}

func TestFormStatus_PageWithoutForm(t *testing.T) {
	factory := newFactory(t)
	srv := serve(t, `<!DOCTYPE html><html><body><h1>Just an article</h1></body></html>`)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ec, err := factory.Open(ctx, srv.URL)
	if err != nil {
		t.Fatalf("open context: %v", err)
	}
	defer ec.Close()

	resp, err := ec.Send(ctx, entity.FormStatusCommand{})
	if err != nil {
		t.Fatalf("getFormStatus: %v", err)
	}
	status, ok := resp.(entity.FormStatusResponse)
	if !ok {
		t.Fatalf("response = %#v", resp)
	}
	if status.FormDetected {
		t.Errorf("no form on the page, but one was detected")
	}
}

func TestFillForm_SelectorOverrides(t *testing.T) {
	factory := newFactory(t)
	srv := serve(t, `<!DOCTYPE html><html><body>
	<form id="f">
		<input type="text" id="x1" name="a">
		<input type="text" id="x2" name="b">
		<input type="text" id="x3" name="c">
		<input type="submit">
	</form>
	</body></html>`)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ec, err := factory.Open(ctx, srv.URL)
	if err != nil {
		t.Fatalf("open context: %v", err)
	}
	defer ec.Close()

	// opaque controls fill only through the per-retailer override map
	resp, err := ec.Send(ctx, entity.FillFormCommand{
		Profile: testProfile(),
		Overrides: map[string]entity.ProfileAttribute{
			"#x1": entity.AttrEmail,
			"#x2": entity.AttrZip,
		},
	})
	if err != nil {
		t.Fatalf("fillForm: %v", err)
	}
	fill, ok := resp.(entity.FillFormResponse)
	if !ok {
		t.Fatalf("fill response = %#v", resp)
	}
	if fill.FieldsFilledCount != 2 {
		t.Errorf("filled %d fields, want the 2 overridden ones", fill.FieldsFilledCount)
	}
}
