package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long: `List, inspect, and remove sessions kept by the file or redis store.
Sessions are decrypted with the configured encryption key before they are shown.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := sessionOptions(cmd)
		if err != nil {
			return err
		}
		return cli.ListSessions(opts)
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := sessionOptions(cmd)
		if err != nil {
			return err
		}
		return cli.InspectSession(opts, args[0])
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := sessionOptions(cmd)
		if err != nil {
			return err
		}
		return cli.RemoveSessions(opts, args...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionCmd.PersistentFlags().String("store", "", "Session store: file or redis")
	sessionCmd.PersistentFlags().String("store-dir", "", "Directory for the file store")
	sessionCmd.PersistentFlags().String("redis-url", "", "Redis URL for the redis store")
}

func sessionOptions(cmd *cobra.Command) (cli.SessionOptions, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.SessionOptions{}, err
	}
	return cli.SessionOptions{
		Config: cfg,
		Stdout: cmd.OutOrStdout(),
		Parent: cmd.Context(),
	}, nil
}
