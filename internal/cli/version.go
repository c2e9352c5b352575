package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("vaultfs %s %s/%s (commit %s)\n", Version, runtime.GOOS, runtime.GOARCH, GitCommit)
	},
}
