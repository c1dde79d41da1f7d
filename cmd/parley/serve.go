package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long: `Serves the chat page and a JSON API over HTTP.
Each browser gets its own conversation, tracked by a session cookie.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.RunServe(cli.ServeOptions{
			Config: cfg,
			Parent: cmd.Context(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().String("store", "", "Session store: memory or redis")
	serveCmd.Flags().String("redis-url", "", "Redis URL for the redis store")
	serveCmd.Flags().String("log-format", "", "Log format: text or json")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
