package cli

import (
	"github.com/spf13/cobra"
)

// version is the build version, overridable via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("pressvec version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
