package soossca

import (
	"github.com/snyk/go-application-framework/pkg/configuration"
	"github.com/spf13/pflag"

	"github.com/soos-io/cli-extension-sca/internal/scancontext"
)

const (
	FlagProjectName           = "project-name"
	FlagMode                  = "mode"
	FlagOnFailure             = "on-failure"
	FlagAPIBaseURI            = "api-base-uri"
	FlagResultMaxWait         = "result-max-wait"
	FlagResultPollingInterval = "result-polling-interval"
	FlagDirsToExclude         = "dirs-to-exclude"
	FlagFilesToExclude        = "files-to-exclude"
	FlagBranchName            = "branch-name"
	FlagBranchURI             = "branch-uri"
	FlagCommitHash            = "commit-hash"
	FlagBuildVersion          = "build-version"
	FlagBuildURI              = "build-uri"
	FlagPreviousBuildNumber   = "previous-build-number"
)

func getFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("soos-sca", pflag.ExitOnError)

	flagSet.String(FlagProjectName, "", "Name of the project in SOOS (at least 5 characters).")
	flagSet.String(FlagMode, scancontext.ModeRunAndWait, "Scan mode: run_and_wait, async_init or async_result.")
	flagSet.String(FlagOnFailure, scancontext.OnFailureFailBuild, "What to do when the scan fails: fail_the_build or continue_on_failure.")
	flagSet.String(FlagAPIBaseURI, "", "SOOS API base URI.")
	flagSet.String(FlagResultMaxWait, "", "Maximum time in seconds to wait for the scan result.")
	flagSet.String(FlagResultPollingInterval, "", "Time in seconds between scan status checks.")
	flagSet.String(FlagDirsToExclude, "", "Comma separated directory globs to exclude from the scan.")
	flagSet.String(FlagFilesToExclude, "", "Comma separated file globs to exclude from the scan.")
	flagSet.String(FlagBranchName, "", "Branch name. Defaults to GIT_BRANCH.")
	flagSet.String(FlagBranchURI, "", "Branch URI. Defaults to GIT_URL.")
	flagSet.String(FlagCommitHash, "", "Commit hash. Defaults to GIT_COMMIT.")
	flagSet.String(FlagBuildVersion, "", "Build version. Defaults to BUILD_ID.")
	flagSet.String(FlagBuildURI, "", "Build URI. Defaults to BUILD_URL.")
	flagSet.String(FlagPreviousBuildNumber, "", "Build whose scan async_result collects. Defaults to the previous build.")

	return flagSet
}

func paramsFromConfig(config configuration.Configuration) scancontext.Params {
	return scancontext.Params{
		ProjectName:           config.GetString(FlagProjectName),
		Mode:                  config.GetString(FlagMode),
		OnFailure:             config.GetString(FlagOnFailure),
		APIBaseURI:            config.GetString(FlagAPIBaseURI),
		ResultMaxWait:         config.GetString(FlagResultMaxWait),
		ResultPollingInterval: config.GetString(FlagResultPollingInterval),
		DirsToExclude:         config.GetString(FlagDirsToExclude),
		FilesToExclude:        config.GetString(FlagFilesToExclude),
		BranchName:            config.GetString(FlagBranchName),
		BranchURI:             config.GetString(FlagBranchURI),
		CommitHash:            config.GetString(FlagCommitHash),
		BuildVersion:          config.GetString(FlagBuildVersion),
		BuildURI:              config.GetString(FlagBuildURI),
		PreviousBuildNumber:   config.GetString(FlagPreviousBuildNumber),
	}
}
