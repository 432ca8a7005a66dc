// Package orchestrator runs one scan build step: it starts, defers or resumes
// an SCA analysis depending on the mode and turns the result into a build
// outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/soos-io/cli-extension-sca/internal/constants"
	"github.com/soos-io/cli-extension-sca/internal/poller"
	"github.com/soos-io/cli-extension-sca/internal/scancontext"
	"github.com/soos-io/cli-extension-sca/internal/scanerrors"
	"github.com/soos-io/cli-extension-sca/internal/soosclient"
	"github.com/soos-io/cli-extension-sca/internal/statusstore"
	"github.com/soos-io/cli-extension-sca/pkg/logger"
)

// State is a step of the scan state machine.
type State int

const (
	Idle State = iota
	Starting
	Waiting
	Deferred
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Waiting:
		return "waiting"
	case Deferred:
		return "deferred"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer is notified on every state transition.
type Observer func(from, to State)

// Waiter blocks until an analysis is terminal.
type Waiter interface {
	Wait(ctx context.Context, handle soosclient.ScanHandle) (*soosclient.AnalysisResult, error)
}

type Orchestrator struct {
	client      soosclient.Client
	store       statusstore.Store
	log         logger.Logger
	observer    Observer
	pollerOpts  []poller.Option
	waiterMaker func(sc scancontext.ScanContext, log logger.Logger) Waiter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger for progress lines.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithObserver registers fn for state transitions.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// WithPollerOptions passes opts to every poller the orchestrator creates.
func WithPollerOptions(opts ...poller.Option) Option {
	return func(o *Orchestrator) {
		o.pollerOpts = append(o.pollerOpts, opts...)
	}
}

// New returns an Orchestrator that talks to client and keeps async status
// records in store.
func New(client soosclient.Client, store statusstore.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		store:  store,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.waiterMaker = func(sc scancontext.ScanContext, log logger.Logger) Waiter {
		popts := append([]poller.Option{poller.WithLogger(log)}, o.pollerOpts...)
		return poller.New(o.client, sc.ResultPollInterval, sc.ResultMaxWait, popts...)
	}
	return o
}

// Run executes the mode selected in sc and applies the on-failure policy once
// to the terminal result.
func (o *Orchestrator) Run(ctx context.Context, sc scancontext.ScanContext) BuildOutcome {
	m := &machine{state: Idle, observer: o.observer}
	log := o.log.With(
		logger.Attr("project", sc.ProjectName),
		logger.Attr("build", sc.Build.String()))

	log.Info(ctx, "Starting SOOS SCA build step",
		logger.Attr("mode", modeName(sc.Mode)),
		logger.Attr("onFailure", sc.OnFailure.Name()))

	reportURL, err := o.execute(ctx, log, m, sc)
	if err != nil {
		m.to(Failed)
	} else {
		m.to(Completed)
	}

	outcome := BuildOutcome{
		Status:      ApplyPolicy(sc.OnFailure, err),
		ReportURL:   reportURL,
		DisplayName: DisplayName(sc.Build.Number, sc.Mode),
		Err:         err,
	}
	if sc.Mode != nil {
		outcome.Mode = sc.Mode.Value()
	}
	report(ctx, log, outcome)
	return outcome
}

// FailedOutcome builds the outcome of an invocation whose configuration could
// not be resolved. policy is the parsed on-failure value or FailBuild.
func FailedOutcome(policy scancontext.OnFailure, err error) BuildOutcome {
	return BuildOutcome{Status: ApplyPolicy(policy, err), Err: err}
}

func (o *Orchestrator) execute(ctx context.Context, log logger.Logger, m *machine, sc scancontext.ScanContext) (string, error) {
	switch mode := sc.Mode.(type) {
	case scancontext.RunAndWait:
		m.to(Starting)
		started, err := o.start(ctx, log, sc)
		if err != nil {
			return "", err
		}
		m.to(Waiting)
		return o.wait(ctx, log, sc, started.Handle, started.ReportURL)

	case scancontext.AsyncInit:
		m.to(Starting)
		started, err := o.start(ctx, log, sc)
		if err != nil {
			return "", err
		}
		if err := o.store.Save(ctx, mode.Build, started.Handle); err != nil {
			return started.ReportURL, err
		}
		m.to(Deferred)
		log.Info(ctx, "Analysis started, the result will be collected by a later build")
		return started.ReportURL, nil

	case scancontext.AsyncResult:
		handle, err := o.store.Load(ctx, mode.Previous)
		if err != nil {
			return "", err
		}
		log.Info(ctx, "Collecting the result of an analysis started earlier",
			logger.Attr("previousBuild", mode.Previous.String()))
		m.to(Waiting)
		return o.wait(ctx, log, sc, handle, "")

	default:
		return "", scanerrors.Newf(scanerrors.Configuration, "invalid SCA mode %T", sc.Mode)
	}
}

func (o *Orchestrator) start(ctx context.Context, log logger.Logger, sc scancontext.ScanContext) (soosclient.StartResponse, error) {
	started, err := o.client.StartAnalysis(ctx, sc)
	if scanerrors.IsRetryable(err) {
		// only the poller retries; a start that cannot get through is final
		return soosclient.StartResponse{}, scanerrors.New(scanerrors.RemoteFailure, "start analysis", err)
	}
	if err != nil {
		return soosclient.StartResponse{}, err
	}
	log.Info(ctx, "Analysis started", logger.Attr("scanId", started.ScanID))
	return started, nil
}

func (o *Orchestrator) wait(ctx context.Context, log logger.Logger, sc scancontext.ScanContext, handle soosclient.ScanHandle, reportURL string) (string, error) {
	result, err := o.waiterMaker(sc, log).Wait(ctx, handle)
	if err != nil {
		return reportURL, err
	}
	if result.ReportURL != "" {
		reportURL = result.ReportURL
	}

	switch result.Status {
	case soosclient.StatusSuccess:
		log.Info(ctx, "Analysis finished",
			logger.Attr("violations", result.Violations),
			logger.Attr("vulnerabilities", result.Vulnerabilities))
		return reportURL, nil
	case soosclient.StatusFailure, soosclient.StatusIncomplete:
		return reportURL, scanerrors.New(scanerrors.RemoteFailure, "analysis", resultError(result))
	default:
		return reportURL, scanerrors.Newf(scanerrors.RemoteFailure, "analysis returned non-terminal status %q", result.RemoteStatus)
	}
}

func resultError(result *soosclient.AnalysisResult) error {
	msg := fmt.Sprintf("analysis ended with status %s", result.RemoteStatus)
	if result.Violations > 0 || result.Vulnerabilities > 0 {
		msg = fmt.Sprintf("%s (%d violations, %d vulnerabilities)", msg, result.Violations, result.Vulnerabilities)
	}
	if result.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, result.Message)
	}
	return errors.New(msg)
}

func report(ctx context.Context, log logger.Logger, outcome BuildOutcome) {
	if outcome.ReportURL != "" {
		log.Info(ctx, constants.ReportLinkText, logger.Attr("url", outcome.ReportURL))
	}

	switch outcome.Status {
	case Success:
		log.Info(ctx, "SOOS SCA build step finished", logger.Attr("status", outcome.Status.String()))
	case Unstable:
		log.Warn(ctx, "SOOS SCA failed, continuing the build",
			logger.Attr("status", outcome.Status.String()),
			logger.Err(outcome.Err))
	default:
		log.Error(ctx, "SOOS SCA failed",
			logger.Attr("status", outcome.Status.String()),
			logger.Err(outcome.Err))
	}
}

func modeName(mode scancontext.Mode) string {
	if mode == nil {
		return ""
	}
	return mode.Name()
}

type machine struct {
	state    State
	observer Observer
}

func (m *machine) to(next State) {
	if m.observer != nil {
		m.observer(m.state, next)
	}
	m.state = next
}
