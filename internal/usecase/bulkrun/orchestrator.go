// Package bulkrun sequences many independent "visit a site and fill its
// form" jobs under a concurrency cap, with readiness handshakes, per-job
// timeouts, a retry policy, and cooperative cancellation.
package bulkrun

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"signup-agent/internal/application/port/input"
	"signup-agent/internal/application/port/output"
	"signup-agent/internal/domain/entity"
)

// Config tunes one orchestrator. Zero values fall back to the defaults.
type Config struct {
	MaxConcurrent     int           // contexts in flight at once
	MaxRetries        int           // re-attempts after the first failure
	JobTimeout        time.Duration // open → settle deadline per attempt
	HandshakeAttempts int
	HandshakeInterval time.Duration
	SubmitAfterFill   bool
}

// DefaultConfig returns the canonical policy: one context at a time, two
// retries, 30s per attempt, 20 probes at 250ms.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:     1,
		MaxRetries:        2,
		JobTimeout:        30 * time.Second,
		HandshakeAttempts: 20,
		HandshakeInterval: 250 * time.Millisecond,
	}
}

func (c *Config) defaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 1
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 2
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Second
	}
	if c.HandshakeAttempts <= 0 {
		c.HandshakeAttempts = 20
	}
	if c.HandshakeInterval <= 0 {
		c.HandshakeInterval = 250 * time.Millisecond
	}
}

// Diagnoser captures failure evidence from a still-open context. Optional.
type Diagnoser interface {
	CaptureFailure(ctx context.Context, ec output.ExecContext, retailerID string)
}

// Orchestrator owns all run state: the FIFO queue, the job map, the running
// count, and the failed registry delta. Everything is mutated from the Run
// loop goroutine only; job executions report back over a channel.
type Orchestrator struct {
	factory output.ContextFactory
	store   output.Store
	tracker *Tracker
	logger  output.LoggerPort
	diag    Diagnoser
	cfg     Config

	cancelled atomic.Bool
}

var _ input.BulkRunner = (*Orchestrator)(nil)

// New builds an orchestrator. diag may be nil.
func New(
	factory output.ContextFactory,
	store output.Store,
	tracker *Tracker,
	logger output.LoggerPort,
	diag Diagnoser,
	cfg Config,
) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		factory: factory,
		store:   store,
		tracker: tracker,
		logger:  logger,
		diag:    diag,
		cfg:     cfg,
	}
}

// Cancel requests cooperative cancellation. In-flight jobs run to natural
// completion or timeout; pending ones are skipped at the next loop boundary.
func (o *Orchestrator) Cancel() {
	o.cancelled.Store(true)
}

// jobEvent is what an execution goroutine reports back to the loop.
type jobEvent struct {
	retailerID string
	opened     bool   // a context was acquired; handle carries its id
	handle     string // empty on settle
	err        error  // nil on success
	message    string
}

// Run processes every retailer to a terminal status and returns the summary.
// The error return covers run-level problems (registry persistence); per-job
// failures land in the status map, never here.
func (o *Orchestrator) Run(ctx context.Context, retailers []entity.Retailer, profile entity.Profile) (*input.RunSummary, error) {
	o.cancelled.Store(false)
	runID := uuid.NewString()
	log := o.logger.WithField("runId", runID)
	log.Info("bulk run starting", "retailers", len(retailers))

	jobs := make(map[string]*entity.Job, len(retailers))
	byID := make(map[string]entity.Retailer, len(retailers))
	ids := make([]string, 0, len(retailers))
	var queue []string

	for _, r := range retailers {
		if _, dup := jobs[r.ID]; dup {
			continue
		}
		jobs[r.ID] = &entity.Job{RetailerID: r.ID, Status: entity.JobPending}
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	o.tracker.Reset(ids)

	// Skip policy: a malformed sign-up URL never consumes a context or a
	// retry.
	for _, id := range ids {
		if !byID[id].HasValidSignupURL() {
			o.setStatus(jobs[id], entity.JobSkipped, "invalid sign-up URL")
			continue
		}
		queue = append(queue, id)
	}

	failedSet, err := o.loadFailedSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load failed registry: %w", err)
	}

	events := make(chan jobEvent)
	running := 0

	for {
		if o.cancelRequested(ctx) {
			for _, id := range queue {
				o.setStatus(jobs[id], entity.JobSkipped, "run cancelled")
			}
			queue = nil
		}

		for !o.cancelRequested(ctx) && running < o.cfg.MaxConcurrent && len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			job := jobs[id]
			job.AttemptCount++
			o.setStatus(job, entity.JobInProgress, fmt.Sprintf("attempt %d", job.AttemptCount))
			running++
			go o.execute(ctx, byID[id], profile, events)
		}

		if running == 0 {
			break
		}

		ev := <-events
		job := jobs[ev.retailerID]
		if ev.opened {
			job.ContextHandle = ev.handle
			continue
		}
		running--
		job.ContextHandle = ""
		queue = o.settle(job, ev, queue, failedSet)
	}

	if err := o.persistFailedSet(ctx, failedSet); err != nil {
		log.Error("persist failed registry", "error", err)
		o.tracker.Complete()
		return nil, fmt.Errorf("persist failed registry: %w", err)
	}
	o.tracker.Complete()

	summary := &input.RunSummary{
		RunID:     runID,
		Statuses:  o.tracker.Snapshot(),
		Cancelled: o.cancelRequested(ctx),
	}
	for _, j := range jobs {
		switch j.Status {
		case entity.JobComplete:
			summary.Complete++
		case entity.JobError:
			summary.Errors++
		case entity.JobSkipped:
			summary.Skipped++
		}
	}
	log.Info("bulk run finished",
		"complete", summary.Complete, "errors", summary.Errors, "skipped", summary.Skipped)
	return summary, nil
}

// settle applies the outcome of one attempt. Retryable failures requeue at
// the FRONT so a flaky retailer resolves quickly instead of waiting out the
// whole queue again. Exhausted or cancelled jobs go terminal and terminal
// errors feed the failed registry.
func (o *Orchestrator) settle(job *entity.Job, ev jobEvent, queue []string, failedSet map[string]bool) []string {
	if ev.err == nil {
		o.setStatus(job, entity.JobComplete, ev.message)
		delete(failedSet, job.RetailerID)
		return queue
	}

	kind := entity.KindOf(ev.err)
	msg := ev.err.Error()
	var f *entity.Failure
	if !errors.As(ev.err, &f) {
		msg = fmt.Sprintf("%s: %v", kind, ev.err)
	}

	canRetry := kind.Retryable() &&
		job.AttemptCount < o.cfg.MaxRetries+1 &&
		!o.cancelled.Load()
	if canRetry {
		o.setStatus(job, entity.JobPending, fmt.Sprintf("retrying after %s", kind))
		return append([]string{job.RetailerID}, queue...)
	}

	o.setStatus(job, entity.JobError, msg)
	failedSet[job.RetailerID] = true
	return queue
}

// execute runs one attempt end to end: open context, handshake, probe for a
// form, fill, optionally submit, tear down. It owns the context's whole
// lifetime and reports exactly one settle event (plus one opened event when
// a context was acquired).
func (o *Orchestrator) execute(ctx context.Context, retailer entity.Retailer, profile entity.Profile, events chan<- jobEvent) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.JobTimeout)
	defer cancel()

	settle := func(err error, message string) {
		events <- jobEvent{retailerID: retailer.ID, err: err, message: message}
	}

	ec, err := o.factory.Open(attemptCtx, retailer.SignupURL)
	if err != nil {
		settle(o.timeoutOr(attemptCtx, entity.FailSubmission, fmt.Errorf("open context: %w", err)), "")
		return
	}
	events <- jobEvent{retailerID: retailer.ID, opened: true, handle: ec.Handle()}

	// The context must be gone before the settle event: the loop treats a
	// settled job as having released its concurrency slot.
	closed := false
	closeEC := func() {
		if !closed {
			closed = true
			ec.Close()
		}
	}
	defer closeEC()

	fail := func(err error) {
		if o.diag != nil {
			o.diag.CaptureFailure(ctx, ec, retailer.ID)
		}
		closeEC()
		settle(err, "")
	}

	if !o.awaitReady(attemptCtx, ec) {
		fail(entity.Failf(entity.FailHandshakeTimeout,
			"agent did not acknowledge within %d probes", o.cfg.HandshakeAttempts))
		return
	}

	status, err := o.sendFormStatus(attemptCtx, ec)
	if err != nil {
		fail(o.timeoutOr(attemptCtx, entity.KindOf(err), err))
		return
	}
	if !status.FormDetected {
		fail(entity.Failf(entity.FailSubmission, "no sign-up form detected"))
		return
	}

	resp, err := ec.Send(attemptCtx, entity.FillFormCommand{
		Profile:   profile,
		Overrides: retailer.Selectors,
	})
	if err != nil {
		fail(o.timeoutOr(attemptCtx, entity.KindOf(err), err))
		return
	}
	fillResp, ok := resp.(entity.FillFormResponse)
	if !ok {
		fail(entity.Failf(entity.FailSubmission, "unexpected response to fillForm"))
		return
	}
	if fillResp.Status == entity.FillStatusError {
		fail(entity.Failf(entity.FailSubmission, "fill failed: %s", fillResp.Message))
		return
	}
	if fillResp.FieldsFilledCount == 0 {
		fail(entity.Failf(entity.FailSubmission, "no fields could be filled"))
		return
	}

	message := fmt.Sprintf("filled %d fields", fillResp.FieldsFilledCount)
	if o.cfg.SubmitAfterFill {
		message += "; " + o.submit(attemptCtx, ec)
	}
	closeEC()
	settle(nil, message)
}

// submit is best-effort: a fill that succeeded keeps the job Complete even
// when submission does not go through.
func (o *Orchestrator) submit(ctx context.Context, ec output.ExecContext) string {
	resp, err := ec.Send(ctx, entity.SubmitFormCommand{})
	if err != nil {
		return fmt.Sprintf("submit failed: %v", err)
	}
	sub, ok := resp.(entity.SubmitFormResponse)
	if !ok {
		return "submit: unexpected response"
	}
	switch {
	case sub.CaptchaDetected:
		return "submit withheld: captcha detected"
	case sub.Success:
		return "submitted"
	default:
		return "submit not confirmed"
	}
}

// awaitReady polls the agent with liveness probes until it acknowledges.
// "Page loaded" and "agent answers" are different facts; only the second
// makes the context safe to command.
func (o *Orchestrator) awaitReady(ctx context.Context, ec output.ExecContext) bool {
	for attempt := 0; attempt < o.cfg.HandshakeAttempts; attempt++ {
		probeCtx, cancel := context.WithTimeout(ctx, o.cfg.HandshakeInterval)
		resp, err := ec.Send(probeCtx, entity.PingCommand{})
		cancel()
		if err == nil {
			if pong, ok := resp.(entity.PingResponse); ok && pong.Status == "pong" {
				return true
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(o.cfg.HandshakeInterval):
		}
	}
	return false
}

func (o *Orchestrator) sendFormStatus(ctx context.Context, ec output.ExecContext) (entity.FormStatusResponse, error) {
	resp, err := ec.Send(ctx, entity.FormStatusCommand{})
	if err != nil {
		return entity.FormStatusResponse{}, err
	}
	status, ok := resp.(entity.FormStatusResponse)
	if !ok {
		return entity.FormStatusResponse{}, entity.Failf(entity.FailSubmission, "unexpected response to getFormStatus")
	}
	return status, nil
}

// timeoutOr reclassifies an error as ExecutionTimeout when the attempt
// deadline is what actually killed it.
func (o *Orchestrator) timeoutOr(ctx context.Context, kind entity.FailureKind, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return entity.NewFailure(entity.FailExecutionTimeout, err)
	}
	var f *entity.Failure
	if errors.As(err, &f) {
		return err
	}
	return entity.NewFailure(kind, err)
}

func (o *Orchestrator) cancelRequested(ctx context.Context) bool {
	return o.cancelled.Load() || ctx.Err() != nil
}

func (o *Orchestrator) setStatus(job *entity.Job, status entity.JobStatus, message string) {
	job.Status = status
	job.Message = message
	o.tracker.Set(job.RetailerID, status, message)
}

func (o *Orchestrator) loadFailedSet(ctx context.Context) (map[string]bool, error) {
	ids, err := o.store.FailedRetailerIDs(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (o *Orchestrator) persistFailedSet(ctx context.Context, set map[string]bool) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return o.store.SetFailedRetailerIDs(ctx, ids)
}
