//nolint:tagliatelle // field names follow the SOOS API schema
package soosclient

import "strings"

// ScanHandle identifies a started analysis. It is the status URL returned by
// the SOOS API and the only state that outlives a build.
type ScanHandle string

// AnalysisStatus is the state of a remote analysis.
type AnalysisStatus int

const (
	// StatusPending means the analysis has not finished yet.
	StatusPending AnalysisStatus = iota
	// StatusSuccess means the analysis finished.
	StatusSuccess
	// StatusFailure means the analysis failed or found blocking issues.
	StatusFailure
	// StatusIncomplete means the analysis stopped without a full result.
	StatusIncomplete
)

func (s AnalysisStatus) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusIncomplete:
		return "Incomplete"
	default:
		return "Pending"
	}
}

// Terminal reports whether polling can stop.
func (s AnalysisStatus) Terminal() bool {
	return s != StatusPending
}

// ParseStatus maps a SOOS scan status onto an AnalysisStatus. Unknown values
// are treated as still running.
func ParseStatus(remote string) AnalysisStatus {
	switch strings.ToLower(strings.TrimSpace(remote)) {
	case "finished":
		return StatusSuccess
	case "failedwithissues", "error":
		return StatusFailure
	case "incomplete":
		return StatusIncomplete
	default:
		return StatusPending
	}
}

// StartResponse is the outcome of starting an analysis.
type StartResponse struct {
	Handle    ScanHandle
	ReportURL string
	ScanID    string
}

// AnalysisResult is a snapshot of an analysis. Only terminal results carry
// final counts.
type AnalysisResult struct {
	Status          AnalysisStatus
	RemoteStatus    string
	ReportURL       string
	Violations      int
	Vulnerabilities int
	Message         string
}

type contributingDeveloperAudit struct {
	Source                  string `json:"source"`
	SourceName              string `json:"sourceName"`
	ContributingDeveloperID string `json:"contributingDeveloperId"`
}

type startAnalysisRequest struct {
	ProjectName                string                       `json:"projectName"`
	Name                       string                       `json:"name"`
	IntegrationName            string                       `json:"integrationName"`
	IntegrationType            string                       `json:"integrationType"`
	BranchName                 string                       `json:"branch,omitempty"`
	BranchURI                  string                       `json:"branchUri,omitempty"`
	CommitHash                 string                       `json:"commitHash,omitempty"`
	BuildVersion               string                       `json:"buildVersion,omitempty"`
	BuildURI                   string                       `json:"buildUri,omitempty"`
	OperatingEnvironment       string                       `json:"operatingEnvironment"`
	DirsToExclude              []string                     `json:"dirsToExclude"`
	FilesToExclude             []string                     `json:"filesToExclude"`
	ContributingDeveloperAudit []contributingDeveloperAudit `json:"contributingDeveloperAudit,omitempty"`
}

type startAnalysisResponse struct {
	ClientID      string `json:"clientId"`
	ProjectHash   string `json:"projectHash"`
	BranchHash    string `json:"branchHash"`
	ScanID        string `json:"scanId"`
	ScanStatusURL string `json:"scanStatusUrl"`
	ScanURL       string `json:"scanUrl"`
}

type scanStatusResponse struct {
	Status          string `json:"status"`
	Violations      *int   `json:"violations"`
	Vulnerabilities *int   `json:"vulnerabilities"`
	ScanURL         string `json:"scanUrl"`
	ErrorMessage    string `json:"errorMessage"`
}

type apiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
