package cmd

import (
	"fmt"
	"runtime"

	"github.com/chengshang-tools/update-server/utils"
	"github.com/spf13/cobra"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "update-server %s (hash: %s, %s %s/%s)\n",
			utils.CurrentVersion, utils.VersionHash, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	RootCmd.AddCommand(VersionCmd)
}
