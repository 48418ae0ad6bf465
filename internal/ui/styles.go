package ui

import "charm.land/lipgloss/v2"

var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorBorder    = lipgloss.Color("#374151")
	ColorText      = lipgloss.Color("#F9FAFB")
	ColorTextMuted = lipgloss.Color("#B0B8C4")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorError     = lipgloss.Color("#EF4444")
	ColorSuccess   = lipgloss.Color("#10B981")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1)

	OnlineStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	OfflineStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	SelectedUserStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary)

	SystemLineStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(ColorTextMuted)

	InviteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)
)
