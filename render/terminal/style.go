package terminal

import "github.com/charmbracelet/lipgloss"

var (
	// Blue for the user, emerald for the assistant.
	colorUser      = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	colorAssistant = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34d399"}

	// UI colors.
	colorBright = lipgloss.AdaptiveColor{Light: "#0f172a", Dark: "#f1f5f9"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}
	colorError  = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
)

var (
	styleUserBadge      = lipgloss.NewStyle().Foreground(colorUser).Bold(true)
	styleAssistantBadge = lipgloss.NewStyle().Foreground(colorAssistant).Bold(true)

	styleTitle = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleMeta  = lipgloss.NewStyle().Foreground(colorDim)
	styleBold  = lipgloss.NewStyle().Bold(true)
	styleError = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	styleSession = lipgloss.NewStyle().Foreground(colorBright)
	styleActive  = lipgloss.NewStyle().Foreground(colorUser).Bold(true)

	styleStatLabel = lipgloss.NewStyle().Foreground(colorDim)

	styleSeparator = lipgloss.NewStyle().Foreground(colorDim)
)
