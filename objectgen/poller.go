// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// poller.go is the async task poll loop shared by the job-based adapters.
// A provider that answers a submission with a task id instead of artifacts
// is polled at a fixed interval until it reaches a terminal status, its
// payload starts carrying artifacts, or the poll budget runs out. Budget
// exhaustion without a terminal status is a timeout error for every adapter;
// the sequencer treats it as just another recoverable provider failure.
package objectgen

import (
	"context"
	"time"
)

// Poll budgets per adapter family.
const (
	// DefaultPollInterval is the delay between status polls.
	DefaultPollInterval = 2500 * time.Millisecond

	// TaskPollAttempts is the poll budget for the job-based 3D providers.
	TaskPollAttempts = 25

	// PredictionPollAttempts is the poll budget per submitted prediction on
	// the Replicate-style provider.
	PredictionPollAttempts = 45
)

// Task handle statuses.
const (
	taskStatusSubmitted  = "submitted"
	taskStatusProcessing = "processing"
	taskStatusSucceeded  = "succeeded"
	taskStatusFailed     = "failed"
)

// taskHandle tracks one in-flight async provider job. It lives only for the
// duration of the owning adapter attempt.
type taskHandle struct {
	TaskID  string
	PollURL string
	Status  string
}

// pollVerdict is the per-poll decision made from one status payload.
type pollVerdict int

const (
	// pollContinue keeps polling.
	pollContinue pollVerdict = iota

	// pollSucceeded stops polling and keeps the current payload.
	pollSucceeded

	// pollFailed stops polling with a job failure.
	pollFailed
)

// taskPoller drives the poll loop for one in-flight provider task. It exists
// only while its owning adapter attempt is in flight.
type taskPoller struct {
	provider    string
	maxAttempts int
	interval    time.Duration

	// sleep is injectable for tests; defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// newTaskPoller builds a poller with the given budget.
func newTaskPoller(provider string, maxAttempts int, interval time.Duration) *taskPoller {
	return &taskPoller{
		provider:    provider,
		maxAttempts: maxAttempts,
		interval:    interval,
		sleep:       sleepContext,
	}
}

// run polls fetch until evaluate reports a terminal verdict.
//
// Each iteration waits one interval, fetches the status payload, and asks
// evaluate for a verdict plus an optional failure reason. The payload of the
// final poll is returned on success; a pollFailed verdict becomes an
// ErrKindJobFailure error carrying the provider-supplied reason; exhausting
// the budget becomes an ErrKindTimeout error.
func (p *taskPoller) run(
	ctx context.Context,
	fetch func(ctx context.Context) (map[string]interface{}, error),
	evaluate func(payload map[string]interface{}) (pollVerdict, string),
) (map[string]interface{}, error) {
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, wrapProviderError(p.provider, ErrKindHTTPFailure, "poll cancelled", err)
		}

		payload, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		verdict, reason := evaluate(payload)
		switch verdict {
		case pollSucceeded:
			return payload, nil
		case pollFailed:
			if reason == "" {
				reason = "job reported failure without a reason"
			}
			return nil, newProviderError(p.provider, ErrKindJobFailure, reason)
		}
	}

	return nil, newProviderError(p.provider, ErrKindTimeout, "job did not finish within the poll budget")
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
