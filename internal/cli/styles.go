// Package cli renders pipeline results for the terminal using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	GoldColor     = lipgloss.Color("#D4AF37")
	ApprovedColor = lipgloss.Color("#4ECDC4")
	CautionColor  = lipgloss.Color("#FFE66D")
	ElevatedColor = lipgloss.Color("#FF6B6B")
	CriticalColor = lipgloss.Color("#C0392B")
	MutedColor    = lipgloss.Color("#666666")
	BorderColor   = lipgloss.Color("#333333")
)

var (
	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(GoldColor).MarginBottom(1)

	// SubtitleStyle is used for secondary headings.
	SubtitleStyle = lipgloss.NewStyle().Foreground(MutedColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(ApprovedColor)
	WarningStyle = lipgloss.NewStyle().Foreground(CautionColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ElevatedColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(MutedColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// BoxStyle frames a compliance verdict.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	// TableHeaderStyle underlines candidate table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(BorderColor)
)

// Icons.
const (
	SuccessIcon   = "✓"
	ErrorIcon     = "✗"
	WarningIcon   = "⚠️"
	ConciergeIcon = "🛎️"
	SearchIcon    = "🔎"
	ShieldIcon    = "🛡️"
	MailIcon      = "✉️"
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatTitle renders a section title with the bell icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(ConciergeIcon + " " + title)
}

// RenderBox renders content under a gold title inside a rounded border.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}

// RiskStyle colors a risk level, verdict or recommendation by severity.
func RiskStyle(value string) lipgloss.Style {
	switch value {
	case "critical", "rejected", "block":
		return BoldStyle.Foreground(CriticalColor)
	case "high", "manual_review", "enhanced_due_diligence":
		return ErrorStyle
	case "medium":
		return WarningStyle
	default:
		return SuccessStyle
	}
}
