// Package poller waits for a remote analysis to reach a terminal state.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/soos-io/cli-extension-sca/internal/scanerrors"
	"github.com/soos-io/cli-extension-sca/internal/soosclient"
	"github.com/soos-io/cli-extension-sca/pkg/logger"
)

// Fetcher fetches the current state of an analysis.
type Fetcher interface {
	FetchResult(ctx context.Context, handle soosclient.ScanHandle) (*soosclient.AnalysisResult, error)
}

// Clock is the time source used between attempts.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock {
	return realClock{}
}

// Poller repeatedly fetches a result until it is terminal, the max wait is
// exhausted, a non-retryable error occurs or the context is cancelled.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	maxWait  time.Duration
	clock    Clock
	backOff  backoff.BackOff
	log      logger.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(p *Poller) {
		p.clock = clock
	}
}

// WithBackOff replaces the constant interval schedule. The max wait still
// bounds the total time.
func WithBackOff(b backoff.BackOff) Option {
	return func(p *Poller) {
		p.backOff = b
	}
}

// WithLogger sets the logger used for progress lines.
func WithLogger(log logger.Logger) Option {
	return func(p *Poller) {
		p.log = log
	}
}

// New returns a Poller that checks every interval for at most maxWait.
func New(fetcher Fetcher, interval, maxWait time.Duration, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: interval,
		maxWait:  maxWait,
		clock:    RealClock(),
		backOff:  backoff.NewConstantBackOff(interval),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait polls handle and returns the first terminal result.
//
// Attempts are made at 0, interval, 2*interval, ... for as long as the attempt
// time is strictly before maxWait, so an interval of at least maxWait allows a
// single attempt. Transient errors count as "not yet complete". Errors are
// scanerrors of kind PollTimeout, Aborted or whatever non-retryable kind the
// fetcher returned.
func (p *Poller) Wait(ctx context.Context, handle soosclient.ScanHandle) (*soosclient.AnalysisResult, error) {
	if p.interval <= 0 || p.maxWait <= 0 {
		return nil, scanerrors.Newf(scanerrors.Configuration, "poll interval %s and max wait %s must be positive", p.interval, p.maxWait)
	}

	start := p.clock.Now()
	deadline := start.Add(p.maxWait)
	p.backOff.Reset()

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, scanerrors.New(scanerrors.Aborted, "wait for result", err)
		}

		result, err := p.fetcher.FetchResult(ctx, handle)
		switch {
		case err == nil && result == nil:
			return nil, scanerrors.New(scanerrors.RemoteFailure, "wait for result", errors.New("empty result"))
		case err == nil && result.Status.Terminal():
			p.log.Debug(ctx, "Analysis reached a terminal state",
				logger.Attr("status", result.Status.String()),
				logger.Attr("attempts", attempt),
				logger.Attr("elapsed", p.clock.Now().Sub(start).String()))
			return result, nil
		case err == nil:
			lastErr = nil
			p.log.Info(ctx, "Analysis is still running",
				logger.Attr("status", result.RemoteStatus),
				logger.Attr("attempt", attempt))
		case scanerrors.Is(err, scanerrors.Aborted) || ctx.Err() != nil:
			return nil, scanerrors.New(scanerrors.Aborted, "wait for result", err)
		case scanerrors.IsRetryable(err):
			lastErr = err
			p.log.Warn(ctx, "Checking the analysis status failed, retrying",
				logger.Attr("attempt", attempt),
				logger.Err(err))
		default:
			return nil, err
		}

		next := p.backOff.NextBackOff()
		if next == backoff.Stop || !p.clock.Now().Add(next).Before(deadline) {
			return nil, scanerrors.New(scanerrors.PollTimeout,
				fmt.Sprintf("no result after %d attempt(s) within max wait of %s", attempt, p.maxWait), lastErr)
		}

		select {
		case <-ctx.Done():
			return nil, scanerrors.New(scanerrors.Aborted, "wait for result", ctx.Err())
		case <-p.clock.After(next):
		}
	}
}
