package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

var envFile string

// NewRootCmd builds the relay command tree. Running it without a subcommand starts the server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "LINE to Dialogflow intent relay",
		Long: `relay receives LINE webhook events, resolves each text message to an intent
with Dialogflow and answers through the LINE reply API. Users who ask for a
human are paused and receive no further automated replies.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewProductsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// loadEnvFile loads path into the environment without overriding variables already set.
// A missing default file is fine; a missing explicit one is not.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if path == defaultEnvFile && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}
