package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "colourwars",
	Short: "Colour Wars game server",
	Long: `Realtime server for Colour Wars, a chain-reaction board game for 2 or 4 players.
Without a subcommand it runs the server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before the environment (default .env)")
	rootCmd.AddCommand(serveCmd, versionCmd)
}
