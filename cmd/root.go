package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"notesync/configs"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "notesync",
	Short:         "Real-time collaborative notes",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")
	rootCmd.AddCommand(serveCmd, watchCmd)
}

func loadConfig() (configs.Config, error) {
	return configs.Load(envFile)
}

func Execute() error {
	return rootCmd.Execute()
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
