// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"dudley/internal/config"
)

// Color palette - adaptive light/dark pairs for consistent theming across
// all CLI output. Which side of a pair renders is decided by the detected
// terminal background, or forced by the ui.color_scheme config key.
var (
	// ColorPrimary is purple - used for titles, headers, and primary emphasis.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#7C3AED"}

	// ColorMuted is gray - used for subtitles, secondary text, and de-emphasized content.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#6B7280"}

	// ColorSuccess is green - used for success states, checkmarks, and positive outcomes.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#10B981"}

	// ColorError is red - used for errors, failures, and negative outcomes.
	ColorError = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}

	// ColorWarning is amber - used for warnings, caution states, and attention-needed items.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}

	// ColorHighlight is blue - used for module names, paths, and values.
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#3B82F6"}

	// ColorVerbose is light gray - used for verbose/debug output and supplementary details.
	ColorVerbose = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Base styles - reusable lipgloss styles built from the color palette.
var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// ModuleStyle is for module names and paths.
	ModuleStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// VerboseStyle is for verbose output and supplementary information.
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)
)

// applyColorScheme forces the light or dark side of the adaptive palette.
// Auto keeps lipgloss's background detection.
func applyColorScheme(scheme config.ColorScheme) {
	switch scheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
}
