package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Long: `Starts an interactive conversation on standard input and output.
When no API key is configured, the key is asked for once without echo and kept in memory only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		noPrompt, _ := cmd.Flags().GetBool("no-prompt")
		sessionID, _ := cmd.Flags().GetString("session")

		return cli.RunChat(cli.ChatOptions{
			Config:    cfg,
			JSON:      jsonMode,
			NoPrompt:  noPrompt,
			SessionID: sessionID,
			Parent:    cmd.Context(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().Bool("json", false, "Run in JSON mode (JSON Lines input/output)")
	chatCmd.Flags().Bool("no-prompt", false, "Never ask for an API key")
	chatCmd.Flags().String("session", "", "Session ID used when persisting the conversation")
	chatCmd.Flags().String("store", "", "Session store: memory, file or redis")
	chatCmd.Flags().String("store-dir", "", "Directory for the file store")
	chatCmd.Flags().String("redis-url", "", "Redis URL for the redis store")

	// Make 'chat' the default if no command is provided.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
