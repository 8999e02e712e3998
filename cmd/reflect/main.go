package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Stream AI reflections on your notes",
	Long: `reflect asks the notes API for a structured reflection on a note and
shows it while it is being generated.

Connection settings come from the environment (or .env):
  REFLECT_API_BASE   notes API base URL (default http://localhost:3000)
  REFLECT_API_TOKEN  bearer token, when the API requires one`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
