package ui

import (
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // funded, withdrawn
	ColorWarning   = lipgloss.Color("#FFB800") // refunds, warnings
	ColorError     = lipgloss.Color("#FF4444")
	ColorAddress   = lipgloss.Color("#00B4D8")
	ColorValue     = lipgloss.Color("#FFFFFF")
	ColorMeta      = lipgloss.Color("#555555")
	ColorBorder    = lipgloss.Color("#1E3A5F")
	ColorNetwork   = lipgloss.Color("#9B5DE5")
	ColorHighlight = lipgloss.Color("#F15BB5")
	ColorInfo      = lipgloss.Color("#4EA8DE")
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleNetwork = lipgloss.NewStyle().Foreground(ColorNetwork).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorNetwork).
			Bold(true).
			MarginBottom(1)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Banner returns the fundme banner.
func Banner(version string) string {
	art := `
  ┌─┐┬ ┬┌┐┌┌┬┐┌┬┐┌─┐
  ├┤ │ ││││ │││││├┤
  └  └─┘┘└┘─┴┘┴ ┴└─┘`

	tagline := StyleMeta.Render("  Time-boxed crowdfunding ledger  v" + version)
	return StyleNetwork.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational message.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a follow-up suggestion.
func Hint(msg string) string { return StyleMeta.Render("→ " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// NetworkName formats a network name.
func NetworkName(n string) string { return StyleNetwork.Render(n) }

// Phase colors a campaign phase.
func Phase(p ledger.Phase) string {
	switch p {
	case ledger.PhaseOpen:
		return StyleInfo.Bold(true).Render(string(p))
	case ledger.PhaseClosedTargetMet:
		return StyleSuccess.Render(string(p))
	case ledger.PhaseClosedTargetMissed:
		return StyleWarning.Render(string(p))
	default:
		return StyleMeta.Render("unknown")
	}
}

// EventKind colors an event kind.
func EventKind(k ledger.EventKind) string {
	switch k {
	case ledger.EventFunded, ledger.EventWithdrawnByOwner:
		return StyleSuccess.Render(string(k))
	case ledger.EventRefundedByFunder:
		return StyleWarning.Render(string(k))
	default:
		return StyleInfo.Render(string(k))
	}
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
