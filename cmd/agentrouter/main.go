// Package main provides the agentrouter CLI.
package main

import "github.com/hupe1980/agentrouter/internal/cli"

// Build vars.
var (
	Version   = ""
	CommitSHA = ""
)

func main() {
	cli.Execute(cli.BuildInfo{Version: Version, CommitSHA: CommitSHA})
}
