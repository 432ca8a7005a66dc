package scancontext

import (
	"fmt"
	"strconv"
)

// Mode values accepted from the build step.
const (
	ModeRunAndWait  = "run_and_wait"
	ModeAsyncInit   = "async_init"
	ModeAsyncResult = "async_result"
)

// BuildKey identifies one build of one CI job.
type BuildKey struct {
	Job    string
	Number int
}

func (k BuildKey) String() string {
	return k.Job + "#" + strconv.Itoa(k.Number)
}

// Mode selects how starting a scan and collecting its result are split across
// builds. It is one of RunAndWait, AsyncInit or AsyncResult; each variant
// carries only what that strategy needs.
type Mode interface {
	// Name is the human readable mode name.
	Name() string
	// Value is the build-step value selecting the mode.
	Value() string

	isMode()
}

// RunAndWait starts a scan and polls it to completion in the same build.
type RunAndWait struct{}

// AsyncInit starts a scan and hands its status URL to the next build.
type AsyncInit struct {
	// Build is the current build; the status record is stored under it.
	Build BuildKey
}

// AsyncResult collects the result of a scan started by an earlier build.
type AsyncResult struct {
	// Previous is the build whose status record is read.
	Previous BuildKey
}

func (RunAndWait) Name() string  { return "Run and wait" }
func (RunAndWait) Value() string { return ModeRunAndWait }
func (RunAndWait) isMode()       {}

func (AsyncInit) Name() string  { return "Async init" }
func (AsyncInit) Value() string { return ModeAsyncInit }
func (AsyncInit) isMode()       {}

func (AsyncResult) Name() string  { return "Async result" }
func (AsyncResult) Value() string { return ModeAsyncResult }
func (AsyncResult) isMode()       {}

// OnFailure is the build-level policy applied when the scan cannot complete.
type OnFailure int

const (
	// FailBuild marks the build as failed.
	FailBuild OnFailure = iota
	// ContinueOnFailure logs the error and lets the build continue as unstable.
	ContinueOnFailure
)

// OnFailure values accepted from the build step.
const (
	OnFailureFailBuild = "fail_the_build"
	OnFailureContinue  = "continue_on_failure"
)

// ParseOnFailure converts a build-step value into an OnFailure policy.
func ParseOnFailure(value string) (OnFailure, error) {
	switch value {
	case OnFailureFailBuild:
		return FailBuild, nil
	case OnFailureContinue:
		return ContinueOnFailure, nil
	default:
		return FailBuild, fmt.Errorf("unsupported on-failure value %q", value)
	}
}

// Name is the human readable policy name.
func (o OnFailure) Name() string {
	if o == ContinueOnFailure {
		return "Continue the build"
	}
	return "Fail the build"
}

// Value is the build-step value selecting the policy.
func (o OnFailure) Value() string {
	if o == ContinueOnFailure {
		return OnFailureContinue
	}
	return OnFailureFailBuild
}

func (o OnFailure) String() string {
	return o.Value()
}
