package scancontext

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"

	"github.com/soos-io/cli-extension-sca/internal/constants"
	"github.com/soos-io/cli-extension-sca/internal/scanerrors"
)

// Params are the raw build-step parameters. Blank values fall back to the
// host environment and then to platform defaults.
type Params struct {
	ProjectName           string
	Mode                  string
	OnFailure             string
	APIBaseURI            string
	ResultMaxWait         string
	ResultPollingInterval string
	DirsToExclude         string
	FilesToExclude        string
	BranchName            string
	BranchURI             string
	CommitHash            string
	BuildVersion          string
	BuildURI              string
	// PreviousBuildNumber overrides the build async_result reads from. It
	// defaults to the current build number minus one.
	PreviousBuildNumber string
}

// Environment looks up a host environment variable. os.LookupEnv satisfies it.
type Environment func(key string) (string, bool)

// MapEnvironment serves lookups from a fixed map.
func MapEnvironment(vars map[string]string) Environment {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func (e Environment) get(key string) string {
	if e == nil {
		return ""
	}
	v, _ := e(key)
	return strings.TrimSpace(v)
}

// input is the resolved parameter set checked by the validator before the
// ScanContext is assembled.
type input struct {
	ProjectName        string `validate:"required,min=5"`
	Mode               string `validate:"required,oneof=run_and_wait async_init async_result"`
	OnFailure          string `validate:"required,oneof=fail_the_build continue_on_failure"`
	APIBaseURI         string `validate:"required,http_url"`
	ResultMaxWait      int    `validate:"gt=0"`
	ResultPollInterval int    `validate:"gt=0,ltefield=ResultMaxWait"`
	ClientID           string `validate:"required"`
	APIKey             string `validate:"required"`
	HomeDir            string `validate:"required_unless=Mode run_and_wait"`
	Job                string `validate:"required_unless=Mode run_and_wait"`
	BuildNumber        int    `validate:"gte=0"`
}

// flagNames maps validated fields back to the names users configure.
//
//nolint:gochecknoglobals // read-only lookup table
var flagNames = map[string]string{
	"ProjectName":        "project-name",
	"Mode":               "mode",
	"OnFailure":          "on-failure",
	"APIBaseURI":         "api-base-uri",
	"ResultMaxWait":      "result-max-wait",
	"ResultPollInterval": "result-polling-interval",
	"ClientID":           constants.EnvClientID,
	"APIKey":             constants.EnvAPIKey,
	"HomeDir":            constants.EnvHome,
	"Job":                constants.EnvJobBaseName,
	"BuildNumber":        constants.EnvBuildNumber,
}

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use
var validate = validator.New()

// Build resolves params against env and defaults and returns the ScanContext.
// Every failure is a scanerrors.Configuration error and happens before any
// remote call.
func Build(params Params, env Environment) (ScanContext, error) {
	in, err := resolve(params, env)
	if err != nil {
		return ScanContext{}, err
	}

	if err := validate.Struct(in); err != nil {
		return ScanContext{}, scanerrors.New(scanerrors.Configuration, "", translate(err))
	}

	mode, err := buildMode(in, params.PreviousBuildNumber)
	if err != nil {
		return ScanContext{}, err
	}

	onFailure, err := ParseOnFailure(in.OnFailure)
	if err != nil {
		return ScanContext{}, scanerrors.New(scanerrors.Configuration, "", err)
	}

	dirs, err := MergeExclusions(params.DirsToExclude, constants.SoosDirName)
	if err != nil {
		return ScanContext{}, scanerrors.New(scanerrors.Configuration, "dirs-to-exclude", err)
	}
	files, err := MergeExclusions(params.FilesToExclude)
	if err != nil {
		return ScanContext{}, scanerrors.New(scanerrors.Configuration, "files-to-exclude", err)
	}

	return ScanContext{
		ProjectName:        in.ProjectName,
		Mode:               mode,
		OnFailure:          onFailure,
		APIBaseURI:         withTrailingSlash(in.APIBaseURI),
		ResultMaxWait:      time.Duration(in.ResultMaxWait) * time.Second,
		ResultPollInterval: time.Duration(in.ResultPollInterval) * time.Second,
		DirsToExclude:      dirs,
		FilesToExclude:     files,
		Credentials: Credentials{
			ClientID: in.ClientID,
			APIKey:   in.APIKey,
		},
		HomeDir:               in.HomeDir,
		Build:                 BuildKey{Job: in.Job, Number: in.BuildNumber},
		BranchName:            NormalizeBranchName(firstNonBlank(params.BranchName, env.get(constants.EnvGitBranch))),
		BranchURI:             firstNonBlank(params.BranchURI, env.get(constants.EnvGitURL)),
		CommitHash:            firstNonBlank(params.CommitHash, env.get(constants.EnvGitCommit)),
		BuildVersion:          firstNonBlank(params.BuildVersion, env.get(constants.EnvBuildID)),
		BuildURI:              firstNonBlank(params.BuildURI, env.get(constants.EnvBuildURL)),
		ContributingDeveloper: env.get(constants.EnvContributingDeveloper),
		OperatingEnvironment:  OperatingEnvironment(runtime.GOOS),
		IntegrationName:       constants.IntegrationName,
		WorkingDirectory:      env.get(constants.EnvWorkspace),
	}, nil
}

func resolve(params Params, env Environment) (input, error) {
	maxWait, err := parseSeconds("result-max-wait", params.ResultMaxWait, constants.MinRecommendedResultMaxWait)
	if err != nil {
		return input{}, err
	}
	pollInterval, err := parseSeconds("result-polling-interval", params.ResultPollingInterval, constants.MinResultPollingInterval)
	if err != nil {
		return input{}, err
	}

	buildNumber := 0
	if raw := firstNonBlank(env.get(constants.EnvBuildNumber), env.get(constants.EnvBuildID)); raw != "" {
		buildNumber, err = strconv.Atoi(raw)
		if err != nil {
			return input{}, scanerrors.Newf(scanerrors.Configuration, "build number %q is not a number", raw)
		}
	}

	return input{
		ProjectName:        strings.TrimSpace(params.ProjectName),
		Mode:               firstNonBlank(params.Mode, ModeRunAndWait),
		OnFailure:          firstNonBlank(params.OnFailure, OnFailureFailBuild),
		APIBaseURI:         firstNonBlank(params.APIBaseURI, constants.DefaultAPIBaseURI),
		ResultMaxWait:      maxWait,
		ResultPollInterval: pollInterval,
		ClientID:           env.get(constants.EnvClientID),
		APIKey:             env.get(constants.EnvAPIKey),
		HomeDir:            env.get(constants.EnvHome),
		Job:                env.get(constants.EnvJobBaseName),
		BuildNumber:        buildNumber,
	}, nil
}

func buildMode(in input, previousOverride string) (Mode, error) {
	switch in.Mode {
	case ModeRunAndWait:
		return RunAndWait{}, nil
	case ModeAsyncInit:
		if in.BuildNumber < 1 {
			return nil, scanerrors.Newf(scanerrors.Configuration, "%s requires the current build number (%s)", ModeAsyncInit, constants.EnvBuildNumber)
		}
		return AsyncInit{Build: BuildKey{Job: in.Job, Number: in.BuildNumber}}, nil
	case ModeAsyncResult:
		previous := in.BuildNumber - 1
		if raw := strings.TrimSpace(previousOverride); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, scanerrors.Newf(scanerrors.Configuration, "previous-build-number %q is not a number", raw)
			}
			previous = n
		}
		if previous < 1 {
			return nil, scanerrors.Newf(scanerrors.Configuration, "%s requires a previous build of job %q", ModeAsyncResult, in.Job)
		}
		return AsyncResult{Previous: BuildKey{Job: in.Job, Number: previous}}, nil
	default:
		return nil, scanerrors.Newf(scanerrors.Configuration, "invalid SCA mode %q", in.Mode)
	}
}

func parseSeconds(name, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, scanerrors.Newf(scanerrors.Configuration, "%s should be a number, got %q", name, raw)
	}
	return n, nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := flagNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required", "required_unless":
			msgs = append(msgs, fmt.Sprintf("%s should not be empty", name))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s should be at least %s characters", name, fe.Param()))
		case "gt", "gte":
			msgs = append(msgs, fmt.Sprintf("%s should be a positive number", name))
		case "ltefield":
			msgs = append(msgs, fmt.Sprintf("%s should not exceed %s", name, flagNames[fe.Param()]))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s should be one of [%s], got %q", name, fe.Param(), fe.Value()))
		case "url", "http_url":
			msgs = append(msgs, fmt.Sprintf("%s should be a valid http(s) URL, got %q", name, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", name, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// MergeExclusions splits a comma separated list of path globs, drops blanks and
// duplicates, and appends the always-excluded entries. Every glob must compile.
func MergeExclusions(list string, always ...string) ([]string, error) {
	seen := make(map[string]struct{})
	merged := []string{}
	add := func(pattern string) error {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			return nil
		}
		if _, ok := seen[pattern]; ok {
			return nil
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		seen[pattern] = struct{}{}
		merged = append(merged, pattern)
		return nil
	}

	for _, pattern := range strings.Split(list, ",") {
		if err := add(pattern); err != nil {
			return nil, err
		}
	}
	for _, pattern := range always {
		if err := add(pattern); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// NormalizeBranchName strips the remote from a "remote/branch" name. Names
// with more than one separator are kept as they are.
func NormalizeBranchName(branch string) string {
	parts := strings.Split(branch, "/")
	if len(parts) == 2 {
		return parts[1]
	}
	return branch
}

// OperatingEnvironment maps a GOOS value to the operating environment names
// the SOOS API expects.
func OperatingEnvironment(goos string) string {
	switch goos {
	case "darwin":
		return "mac"
	case "windows":
		return "win"
	default:
		return "unix"
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func withTrailingSlash(uri string) string {
	if strings.HasSuffix(uri, "/") {
		return uri
	}
	return uri + "/"
}
