package cli

import (
	"fmt"
	"runtime"

	coreRuntime "github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for ammd, the registered contract kinds and the Go version.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ammd version %s\n", rootCmd.Version)
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Contracts: %v\n", coreRuntime.DefaultRegistry.Kinds())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
