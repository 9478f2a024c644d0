package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nestegg-app/nestegg/internal/api"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the NestEgg version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("nestegg", api.Version)
	},
}
