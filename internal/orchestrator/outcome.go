package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/soos-io/cli-extension-sca/internal/scancontext"
)

// Status is the build-level verdict of one invocation.
type Status int

const (
	Success Status = iota
	Unstable
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "SUCCESS"
	case Unstable:
		return "UNSTABLE"
	default:
		return "FAILURE"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// BuildOutcome is what the build step reports back to the host.
type BuildOutcome struct {
	Status      Status `json:"status"`
	ReportURL   string `json:"reportUrl,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Mode        string `json:"mode,omitempty"`
	// Err is the terminal error when Status is not Success.
	Err error `json:"-"`
}

// MarshalJSON adds the error message to the payload.
func (o BuildOutcome) MarshalJSON() ([]byte, error) {
	type alias BuildOutcome
	var message string
	if o.Err != nil {
		message = o.Err.Error()
	}
	//nolint:wrapcheck // plain encoding of an in-memory value
	return json.Marshal(struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(o), Error: message})
}

// DisplayName is the build name shown by the host, e.g. "#42 - Async init mode.".
func DisplayName(number int, mode scancontext.Mode) string {
	if mode == nil {
		return ""
	}
	return fmt.Sprintf("#%d - %s mode.", number, mode.Name())
}

// ApplyPolicy maps a terminal error onto a build status. A nil error is always
// Success.
func ApplyPolicy(policy scancontext.OnFailure, err error) Status {
	switch {
	case err == nil:
		return Success
	case policy == scancontext.ContinueOnFailure:
		return Unstable
	default:
		return Failure
	}
}
