package constants

// IntegrationName identifies this integration to the SOOS API.
const IntegrationName = "Jenkins"

// IntegrationType is reported alongside IntegrationName.
const IntegrationType = "Plugin"

// DefaultAPIBaseURI is used when no api-base-uri is configured.
const DefaultAPIBaseURI = "https://api.soos.io/api/"

// MinRecommendedResultMaxWait is the default result max wait, in seconds.
const MinRecommendedResultMaxWait = 300

// MinResultPollingInterval is the default result polling interval, in seconds.
const MinResultPollingInterval = 10

// SoosDirName is the working directory the scanner writes to. It is always
// excluded from the scan.
const SoosDirName = "soos"

// ReportLinkText labels the report link written to the build log.
const ReportLinkText = "SOOS Report"

// ResultURLFile holds the scan status URL of an async_init build.
const ResultURLFile = "resultUrl.txt"

// JobsDir and BuildsDir make up the per-build directory layout under the host
// home directory.
const (
	JobsDir   = "jobs"
	BuildsDir = "builds"
)

// Host environment variables.
const (
	EnvHome                  = "JENKINS_HOME"
	EnvJobBaseName           = "JOB_BASE_NAME"
	EnvBuildNumber           = "BUILD_NUMBER"
	EnvBuildID               = "BUILD_ID"
	EnvBuildURL              = "BUILD_URL"
	EnvGitBranch             = "GIT_BRANCH"
	EnvGitURL                = "GIT_URL"
	EnvGitCommit             = "GIT_COMMIT"
	EnvWorkspace             = "WORKSPACE"
	EnvContributingDeveloper = "JENKINS_ENTRY_USER"
	EnvClientID              = "SOOS_CLIENT_ID"
	EnvAPIKey                = "SOOS_API_KEY" //nolint:gosec // environment variable name, not a credential
)

// ContributingDeveloperSource describes where the contributing developer was read from.
const ContributingDeveloperSource = "EnvironmentVariable"
