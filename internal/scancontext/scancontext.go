// Package scancontext assembles the immutable ScanContext for one build
// invocation from build-step parameters, the host environment and platform
// defaults.
package scancontext

import (
	"time"
)

// Credentials authenticate against the SOOS API. They are kept in memory only
// and redact themselves when printed or serialised.
type Credentials struct {
	ClientID string
	APIKey   string
}

const redacted = "[REDACTED]"

func (c Credentials) String() string {
	return "Credentials{ClientID:" + redacted + ", APIKey:" + redacted + "}"
}

// GoString keeps %#v from printing the secrets.
func (c Credentials) GoString() string {
	return c.String()
}

// MarshalJSON keeps structured loggers from serialising the secrets.
func (c Credentials) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// ScanContext is everything a single invocation needs to run a scan. Build it
// with Build; treat it as read-only afterwards.
type ScanContext struct {
	ProjectName string
	Mode        Mode
	OnFailure   OnFailure
	APIBaseURI  string

	ResultMaxWait      time.Duration
	ResultPollInterval time.Duration

	DirsToExclude  []string
	FilesToExclude []string

	Credentials Credentials

	// HomeDir is the host home directory holding the per-build status records.
	HomeDir string
	// Build is the current build.
	Build BuildKey

	BranchName            string
	BranchURI             string
	CommitHash            string
	BuildVersion          string
	BuildURI              string
	ContributingDeveloper string
	OperatingEnvironment  string
	IntegrationName       string
	WorkingDirectory      string
}
