package main

import (
	"fmt"
	"os"

	"github.com/aretw0/parley/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a small chat front-end for OpenAI-compatible completion APIs",
	Long: `Parley keeps a conversation with a language model, in the terminal or in the browser.
The API key is read from a secrets file, typed in for the session, or taken from the environment.
It is never stored.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default "+config.DefaultFile+")")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("secrets", "", "Secrets file holding OPENAI_API_KEY")
	rootCmd.PersistentFlags().String("model", "", "Model for new conversations")
	rootCmd.PersistentFlags().Float64("temperature", 0, "Sampling temperature for new conversations")
	rootCmd.PersistentFlags().Bool("no-env", false, "Do not read the API key from the environment")
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"debug":       "debug",
	"secrets":     "secrets_file",
	"model":       "model",
	"temperature": "temperature",
	"addr":        "addr",
	"store":       "store.kind",
	"redis-url":   "store.redis_url",
	"store-dir":   "store.dir",
	"log-format":  "log_format",
	"metrics":     "metrics",
}

// loadConfig merges the configuration file, environment and the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	overrides := map[string]any{}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(f.Name)
			overrides[key] = v
		case "float64":
			v, _ := cmd.Flags().GetFloat64(f.Name)
			overrides[key] = v
		default:
			overrides[key] = f.Value.String()
		}
	})
	if noEnv, _ := cmd.Flags().GetBool("no-env"); noEnv {
		overrides["env_fallback"] = false
	}

	return config.Load(config.LoadOptions{
		File:      file,
		Required:  file != "",
		Overrides: overrides,
	})
}
