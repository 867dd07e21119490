package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codeforge-dev/codeforge/internal/agent"
	"github.com/codeforge-dev/codeforge/internal/config"
	"github.com/codeforge-dev/codeforge/internal/events"
	"github.com/codeforge-dev/codeforge/internal/session"
	"github.com/codeforge-dev/codeforge/internal/tui/components"
	"github.com/codeforge-dev/codeforge/internal/tui/layout"
	"github.com/codeforge-dev/codeforge/internal/tui/theme"
)

const version = "0.1.0"

// Layout constants for consistent height calculations
const (
	layoutHeaderHeight = 2 // Header row + separator line
	layoutStatusHeight = 2 // Separator line + status bar
	layoutEditorHeight = 5 // Input editor area
	layoutPadding      = 1 // Extra padding for separators
)

// busEventMsg wraps one events.Event pulled off the bus.
type busEventMsg struct{ ev events.Event }

// busClosedMsg signals the bus was closed (process shutting down).
type busClosedMsg struct{}

// Model is the main TUI model
type Model struct {
	session *session.Session
	bus     *events.Bus

	// Components
	header      *components.Header
	messages    *components.Messages
	editor      *components.Editor
	status      *components.Status
	help        *components.HelpDialog
	suggestions *components.Suggestions
	spinner     spinner.Model

	// Layout
	layout *layout.SplitPane

	// toolBuffers accumulates stdout and stderr for the in-flight tool call keyed by
	// its dispatcher-assigned id, mirroring Session.updateTool's
	// scan-from-tail matching.
	toolBuffers map[string]string

	// State
	width          int
	height         int
	ready          bool
	thinking       bool
	showHelp       bool
	lastReply      string
	lastTokenUsage *events.TokenUsage
}

// New creates a new TUI model driven by sess, consuming events off bus.
func New(sess *session.Session, bus *events.Bus, modelName string) Model {
	cwd, _ := os.Getwd()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	status := components.NewStatus(80)
	status.SetModel(modelName)

	return Model{
		session:     sess,
		bus:         bus,
		header:      components.NewHeader(80, version, cwd),
		status:      status,
		help:        components.NewHelpDialog(),
		suggestions: components.NewSuggestions(),
		spinner:     sp,
		toolBuffers: make(map[string]string),
	}
}

// welcomeMessage returns the initial welcome content
func welcomeMessage() string {
	return `
    ███████╗       ██████╗ ██████╗ ██████╗ ███████╗
    ╚══███╔╝      ██╔════╝██╔═══██╗██╔══██╗██╔════╝
      ███╔╝ █████╗██║     ██║   ██║██║  ██║█████╗
     ███╔╝  ╚════╝██║     ██║   ██║██║  ██║██╔══╝
    ███████╗      ╚██████╗╚██████╔╝██████╔╝███████╗
    ╚══════╝       ╚═════╝ ╚═════╝ ╚═════╝ ╚══════╝
`
}

// waitForEvent returns a tea.Cmd that blocks on the bus until the next
// event, then hands it back to Update. bubbletea runs tea.Cmd funcs on
// their own goroutine, so blocking here does not stall the UI loop.
func waitForEvent(bus *events.Bus) tea.Cmd {
	return func() tea.Msg {
		ev, ok := bus.Recv()
		if !ok {
			return busClosedMsg{}
		}
		return busEventMsg{ev: ev}
	}
}

// Init initializes the TUI
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, waitForEvent(m.bus))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+?", "ctrl+h":
			m.showHelp = !m.showHelp
			return m, nil

		case "ctrl+l":
			m.messages.Clear()
			return m, nil

		case "ctrl+y":
			if m.lastReply != "" {
				if err := clipboard.WriteAll(m.lastReply); err != nil {
					m.messages.AddMessage(components.Message{Role: "error", Content: fmt.Sprintf("Failed to copy to clipboard: %v", err)})
				} else {
					m.messages.AddMessage(components.Message{Role: "system", Content: "Copied last assistant reply to clipboard."})
				}
			}
			return m, nil

		case "esc":
			if m.showHelp {
				m.showHelp = false
			}
			if m.suggestions.IsVisible() {
				m.suggestions.Hide()
			}
			return m, nil

		case "tab":
			if m.suggestions.IsVisible() {
				selected := m.suggestions.GetSelected()
				if selected != "" {
					m.editor.SetValue(selected)
					m.suggestions.Hide()
				}
				return m, nil
			}

		case "up":
			if m.suggestions.IsVisible() {
				m.suggestions.MoveUp()
				return m, nil
			}

		case "down":
			if m.suggestions.IsVisible() {
				m.suggestions.MoveDown()
				return m, nil
			}

		case "enter":
			if m.suggestions.IsVisible() {
				selected := m.suggestions.GetSelected()
				if selected != "" {
					m.editor.Reset()
					m.suggestions.Hide()
					return m.handleCommand(selected)
				}
			}

			if !m.thinking && strings.TrimSpace(m.editor.Value()) != "" {
				userMsg := strings.TrimSpace(m.editor.Value())
				m.editor.Reset()
				m.suggestions.Hide()

				if strings.HasPrefix(userMsg, "/") {
					return m.handleCommand(userMsg)
				}

				m.messages.AddMessage(components.Message{Role: "user", Content: userMsg})
				m.thinking = true
				m.status.SetThinking(true)
				m.session.HandleUserInput(context.Background(), userMsg)
				cmds = append(cmds, m.spinner.Tick)
			}

		case "pgup", "pgdown":
			vp := m.messages.GetViewport()
			var cmd tea.Cmd
			*vp, cmd = vp.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		messagesHeight := msg.Height - layoutHeaderHeight - layoutStatusHeight - layoutEditorHeight - layoutPadding

		if !m.ready {
			m.layout = layout.NewSplitPane(msg.Width, msg.Height)
			m.messages = components.NewMessages(msg.Width, messagesHeight)
			m.messages.SetWelcome(welcomeMessage())
			m.editor = components.NewEditor(msg.Width, layoutEditorHeight)
			m.editor.Reset()
			m.ready = true
		} else {
			m.layout.SetSize(msg.Width, msg.Height)
			m.messages.SetSize(msg.Width, messagesHeight)
			m.editor.SetSize(msg.Width, layoutEditorHeight)
		}

		m.header.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case busEventMsg:
		m.session.HandleEvent(msg.ev)
		cmds = append(cmds, m.applyBusEvent(msg.ev))
		cmds = append(cmds, waitForEvent(m.bus))

	case busClosedMsg:
		return m, nil
	}

	if !m.thinking && m.editor != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			cmds = append(cmds, cmd)
			m.suggestions.Filter(m.editor.Value())
		}
	}

	if m.messages != nil {
		vp := m.messages.GetViewport()
		var cmd tea.Cmd
		*vp, cmd = vp.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// applyBusEvent updates the rendered message list for ev. Session.HandleEvent
// (called by the caller, above) is the system of record; this only mirrors
// it into the view component.
func (m *Model) applyBusEvent(ev events.Event) tea.Cmd {
	switch ev.Kind {
	case events.KindToolBegin:
		delete(m.toolBuffers, ev.ID)
		m.messages.AddMessage(components.Message{
			Role:     "tool",
			ToolName: string(ev.Tool),
			ToolArgs: ev.Summary,
			Content:  "Running...",
		})

	case events.KindToolStdout:
		m.toolBuffers[ev.ID] += ev.Chunk
		m.messages.UpdateLastToolResult(m.toolBuffers[ev.ID])

	case events.KindToolStderr:
		m.toolBuffers[ev.ID] += ev.Chunk
		m.messages.UpdateLastToolResult(m.toolBuffers[ev.ID])

	case events.KindToolEnd:
		result := m.toolBuffers[ev.ID]
		if !ev.OK && result == "" {
			result = "Error: tool failed"
		}
		m.messages.UpdateLastToolResult(result)
		delete(m.toolBuffers, ev.ID)

	case events.KindAgentResponse:
		m.thinking = false
		m.status.SetThinking(false)
		if ev.Response != nil && ev.Response.Content != "" {
			m.messages.AddMessage(components.Message{Role: "assistant", Content: ev.Response.Content})
			m.lastReply = ev.Response.Content
		}

	case events.KindAgentThinking:
		m.messages.AddMessage(components.Message{Role: "system", Content: "Reasoning: " + ev.Text})

	case events.KindTokenCount:
		m.lastTokenUsage = ev.TokenUsage

	case events.KindAgentError:
		m.thinking = false
		m.status.SetThinking(false)
		if ev.Err != nil {
			m.messages.AddMessage(components.Message{Role: "error", Content: ev.Err.Error()})
		}

	case events.KindError:
		m.messages.AddMessage(components.Message{Role: "error", Content: ev.Message})

	case events.KindClear:
		m.messages.Clear()
	}
	return nil
}

// handleCommand processes slash commands
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "/help":
		m.showHelp = true
		return m, nil

	case "/clear", "/reset":
		m.messages.Clear()
		m.session.Clear()
		m.messages.AddMessage(components.Message{Role: "system", Content: "Conversation reset."})
		return m, nil

	case "/tools":
		m.messages.AddMessage(components.Message{
			Role: "system",
			Content: `Available tools:
  fs.read             - Read a file, optionally by byte range
  fs.search           - Search file contents by literal or regex
  fs.write            - Create or overwrite a file
  fs.apply_patch      - Apply anchor-based edits to one or more files
  fs.find             - Find files by fuzzy name match or glob
  shell.exec          - Execute a shell command
  code.symbols        - List top-level symbols in a source file
  large_context_fetch - Rank and fetch the files most relevant to a query`,
		})
		return m, nil

	case "/info":
		info := m.session.AgentInfo()
		m.messages.AddMessage(components.Message{
			Role:    "system",
			Content: fmt.Sprintf("Agent: %s v%s - %s", info.Name, info.Version, info.Description),
		})
		return m, nil

	case "/context":
		if m.lastTokenUsage == nil {
			m.messages.AddMessage(components.Message{Role: "system", Content: "No token usage information available yet."})
		} else {
			u := m.lastTokenUsage
			m.messages.AddMessage(components.Message{Role: "system", Content: fmt.Sprintf(
				"Token Usage:\n• Input tokens: %d\n• Output tokens: %d\n• Total tokens: %d",
				u.InputTokens, u.OutputTokens, u.TotalTokens,
			)})
		}
		return m, nil

	case "/new":
		m.messages.Clear()
		m.session.Clear()
		m.lastReply = ""
		m.lastTokenUsage = nil
		m.messages.AddMessage(components.Message{Role: "system", Content: "Started a new conversation."})
		return m, nil

	case "/load":
		title := strings.Join(parts[1:], " ")
		if title == "" {
			m.messages.AddMessage(components.Message{Role: "error", Content: "Usage: /load <chat name>"})
			return m, nil
		}
		path, err := m.session.LoadNamed(title)
		if err != nil {
			m.messages.AddMessage(components.Message{Role: "error", Content: fmt.Sprintf("Failed to load chat: %v", err)})
			return m, nil
		}
		m.messages.Clear()
		m.renderSessionMessages()
		m.messages.AddMessage(components.Message{Role: "system", Content: "Loaded chat from " + path})
		return m, nil

	case "/thinking":
		enabled := !config.InterleavedThinkingEnabled()
		os.Setenv("CODEFORGE_ENABLE_INTERLEAVED_THINKING", map[bool]string{true: "1", false: "0"}[enabled])
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		m.messages.AddMessage(components.Message{Role: "system", Content: fmt.Sprintf(
			"Interleaved thinking is now %s. This will take effect for the next conversation.\n"+
				"• When enabled, the agent will share its reasoning process between tool calls\n"+
				"• Use '/thinking' again to toggle", state,
		)})
		return m, nil

	case "/chats":
		return m.listChats()

	case "/save":
		title := strings.Join(parts[1:], " ")
		if title == "" {
			title = "chat"
		}
		path, err := m.session.SaveNamed(title)
		if err != nil {
			m.messages.AddMessage(components.Message{Role: "error", Content: fmt.Sprintf("Failed to save chat: %v", err)})
		} else {
			m.messages.AddMessage(components.Message{Role: "system", Content: "Saved chat to " + path})
		}
		return m, nil

	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/config":
		return m.handleConfigCommand(parts)

	default:
		m.messages.AddMessage(components.Message{
			Role:    "error",
			Content: "Unknown command: " + cmd + "\nType /help for available commands.",
		})
		return m, nil
	}
}

// renderSessionMessages replays the Session's current message log into the
// view, used after /load replaces the log wholesale.
func (m Model) renderSessionMessages() {
	for _, cm := range m.session.Messages() {
		switch cm.Role {
		case agent.RoleUser:
			m.messages.AddMessage(components.Message{Role: "user", Content: cm.Content})
		case agent.RoleAgent:
			m.messages.AddMessage(components.Message{Role: "assistant", Content: cm.Content})
		case agent.RoleSystem:
			m.messages.AddMessage(components.Message{Role: "system", Content: cm.Content})
		case agent.RoleError:
			m.messages.AddMessage(components.Message{Role: "error", Content: cm.Content})
		case agent.RoleTool:
			if cm.Tool != nil {
				m.messages.AddMessage(components.Message{
					Role:     "tool",
					ToolName: cm.Tool.Name,
					ToolArgs: cm.Tool.Summary,
					Content:  cm.Tool.Stdout,
				})
			}
		}
	}
}

// listChats displays saved named chats
func (m Model) listChats() (tea.Model, tea.Cmd) {
	chats, err := session.ListChats()
	if err != nil {
		m.messages.AddMessage(components.Message{Role: "error", Content: fmt.Sprintf("Failed to list chats: %v", err)})
		return m, nil
	}
	if len(chats) == 0 {
		m.messages.AddMessage(components.Message{Role: "system", Content: "No saved chats.\n\nUse /save <name> to save the current conversation."})
		return m, nil
	}

	var sb strings.Builder
	sb.WriteString("Saved chats:\n\n")
	for _, c := range chats {
		sb.WriteString(fmt.Sprintf("  %s  (%s)\n", c.Title, c.ModTime.Format("2006-01-02 15:04")))
	}
	m.messages.AddMessage(components.Message{Role: "system", Content: sb.String()})
	return m, nil
}

func (m Model) handleConfigCommand(parts []string) (tea.Model, tea.Cmd) {
	if len(parts) == 1 {
		keys := config.ListKeys()
		var sb strings.Builder
		sb.WriteString("Configuration:\n")
		sb.WriteString(fmt.Sprintf("  Config file: %s\n\n", config.ConfigPath()))

		if len(keys) == 0 {
			sb.WriteString("  No keys configured.\n")
		} else {
			for k, v := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
			}
		}
		sb.WriteString("\nUsage:\n")
		sb.WriteString("  /config set <key> <value>  - Set a config value\n")
		sb.WriteString("  /config delete <key>       - Delete a config value\n")
		sb.WriteString("\nKeys: openrouter_api_key, default_model, vercel_ai_gateway_api_key, default_gateway_model")

		m.messages.AddMessage(components.Message{Role: "system", Content: sb.String()})
		return m, nil
	}

	subCmd := strings.ToLower(parts[1])
	switch subCmd {
	case "set":
		if len(parts) < 4 {
			m.messages.AddMessage(components.Message{Role: "error", Content: "Usage: /config set <key> <value>"})
			return m, nil
		}
		key := parts[2]
		value := strings.Join(parts[3:], " ")
		if err := config.Set(key, value); err != nil {
			m.messages.AddMessage(components.Message{Role: "error", Content: fmt.Sprintf("Failed to set config: %v", err)})
		} else {
			m.messages.AddMessage(components.Message{Role: "system", Content: fmt.Sprintf("Set %s successfully.", key)})
		}
		return m, nil

	case "delete", "remove", "unset":
		if len(parts) < 3 {
			m.messages.AddMessage(components.Message{Role: "error", Content: "Usage: /config delete <key>"})
			return m, nil
		}
		key := parts[2]
		if err := config.Delete(key); err != nil {
			m.messages.AddMessage(components.Message{Role: "error", Content: fmt.Sprintf("Failed to delete config: %v", err)})
		} else {
			m.messages.AddMessage(components.Message{Role: "system", Content: fmt.Sprintf("Deleted %s.", key)})
		}
		return m, nil

	default:
		m.messages.AddMessage(components.Message{Role: "error", Content: "Unknown config subcommand: " + subCmd + "\nUse: set, delete"})
		return m, nil
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	t := theme.Current

	messagesHeight := m.height - layoutHeaderHeight - layoutStatusHeight - layoutEditorHeight - layoutPadding

	header := m.header.View()

	messagesView := m.messages.View()
	if m.thinking {
		thinkingStyle := lipgloss.NewStyle().Foreground(t.Primary)
		messagesView = lipgloss.NewStyle().
			Height(messagesHeight).
			Render(messagesView + "\n" + thinkingStyle.Render(m.spinner.View()+" Thinking..."))
	} else {
		messagesView = lipgloss.NewStyle().
			Height(messagesHeight).
			Render(messagesView)
	}

	suggestions := ""
	if m.suggestions.IsVisible() {
		m.suggestions.SetWidth(m.width)
		suggestions = m.suggestions.View()
	}

	editor := m.editor.View()
	status := m.status.View()

	var view string
	if suggestions != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, header, messagesView, suggestions, editor, status)
	} else {
		view = lipgloss.JoinVertical(lipgloss.Left, header, messagesView, editor, status)
	}

	if m.showHelp {
		overlay := m.help.View()
		view = components.PlaceOverlay(overlay, view, m.width, m.height)
	}

	return lipgloss.NewStyle().
		Background(t.Background).
		Width(m.width).
		Height(m.height).
		Render(view)
}

// ConfirmAction is the tool-approval hook. Always approves: interactive
// per-call confirmation is out of scope.
func ConfirmAction(prompt string) bool {
	return true
}
