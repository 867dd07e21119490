package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeforge-dev/codeforge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage codeforge configuration",
	Long: `Manage codeforge configuration including API keys and defaults.

Examples:
  codeforge config                          # Show current config
  codeforge config set openrouter <key>     # Set the OpenRouter API key
  codeforge config set model <name>         # Set the default OpenRouter model
  codeforge config delete openrouter        # Remove the OpenRouter API key`,
	Run: func(cmd *cobra.Command, args []string) {
		showConfig()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available keys:
  openrouter_api_key (alias: openrouter)              - OpenRouter API key
  default_model (alias: model)                        - Default OpenRouter model
  vercel_ai_gateway_api_key (alias: vercel, gateway)   - Vercel AI Gateway fallback key
  default_gateway_model (alias: gateway_model)         - Default Vercel AI Gateway model`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		if err := config.Set(key, value); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("Set %s successfully.\n", key)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		keys := config.ListKeys()

		if val, ok := keys[key]; ok {
			fmt.Printf("%s: %s\n", key, val)
		} else {
			fmt.Printf("%s is not set\n", key)
		}
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"remove", "unset"},
	Short:   "Delete a configuration value",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		if err := config.Delete(key); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("Deleted %s.\n", key)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.ConfigPath())
	},
}

func showConfig() {
	fmt.Printf("Configuration file: %s\n\n", config.ConfigPath())

	keys := config.ListKeys()
	if len(keys) == 0 {
		fmt.Println("No configuration set.")
		fmt.Println("\nUse 'codeforge config set <key> <value>' to configure.")
		return
	}

	for k, v := range keys {
		fmt.Printf("  %s: %s\n", k, v)
	}
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
