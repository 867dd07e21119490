package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/codeforge-dev/codeforge/internal/agent"
	"github.com/codeforge-dev/codeforge/internal/config"
	"github.com/codeforge-dev/codeforge/internal/events"
	"github.com/codeforge-dev/codeforge/internal/session"
	"github.com/codeforge-dev/codeforge/internal/tools"
	"github.com/codeforge-dev/codeforge/internal/tui"
)

var modelFlag string

var rootCmd = &cobra.Command{
	Use:   "codeforge",
	Short: "AI coding assistant with interactive TUI",
	Long: `Codeforge is an AI-powered coding assistant with a terminal user
interface and a fixed tool-calling loop for file, search, and shell
operations. It talks to OpenRouter by default, falling back to a Vercel
AI Gateway model when one is configured.`,
	Run: runChat,
}

func runChat(cmd *cobra.Command, args []string) {
	model := modelFlag
	if model == "" {
		model = config.GetOpenRouterModel()
	}

	apiKey := config.GetOpenRouterKey()
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "codeforge: no API key configured (set OPENROUTER_API_KEY or run `codeforge config set`)")
		os.Exit(1)
	}

	bus := events.NewBus()
	sender := bus.Sender()
	registry := tools.NewRegistry()
	dispatcher := tools.NewDispatcher(registry, sender)
	ag := agent.NewDriver(apiKey, model, sender, registry, dispatcher)

	sess := session.New(ag, sender)
	if err := sess.LoadInto(""); err != nil {
		sess.AddErrorMessage(fmt.Sprintf("failed to load chat history: %s", err))
	}

	p := tea.NewProgram(
		tui.New(sess, bus, model),
		tea.WithAltScreen(),
		tea.WithoutBracketedPaste(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model to use, overriding the configured default")
}
