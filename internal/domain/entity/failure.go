package entity

import (
	"errors"
	"fmt"
)

// FailureKind tags why a job attempt went wrong. A classification miss is
// not in this taxonomy: a field left unknown is a normal outcome, not a
// failure.
type FailureKind string

const (
	// FailHandshakeTimeout: the context's agent never acknowledged a probe
	// before the probe limit was reached.
	FailHandshakeTimeout FailureKind = "HandshakeTimeout"
	// FailExecutionTimeout: the overall per-job deadline expired.
	FailExecutionTimeout FailureKind = "ExecutionTimeout"
	// FailSubmission: the fill or submit was reported failed by the page.
	FailSubmission FailureKind = "SubmissionFailure"
	// FailPolicyViolation: the page's own security layer rejected the
	// injected automation.
	FailPolicyViolation FailureKind = "PolicyViolation"
	// FailInvalidRetailerURL: the sign-up URL is not an absolute web
	// address. Skipped outright, never retried.
	FailInvalidRetailerURL FailureKind = "InvalidRetailerUrl"
)

// Retryable reports whether a failure of this kind may re-enter the queue.
func (k FailureKind) Retryable() bool {
	return k != FailInvalidRetailerURL
}

// Failure is a job-level error carrying its taxonomy kind. Failures are
// captured into the job's status entry; they never abort the run loop or
// sibling jobs.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err with a failure kind.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Failf builds a failure from a format string.
func Failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from an error chain, defaulting to
// SubmissionFailure for untagged errors.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailSubmission
}
