package cmd

import (
	"ViewTube/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the ViewTube HTTP server",
	Long:  `Starts the account service: registration, login, session refresh and profile endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
