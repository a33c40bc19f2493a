package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): Primary text
// - Accent (soft purple #A78BFA): Highlights, paths, interactive elements
// - Muted (gray): Secondary info, line numbers
// - No colored success/error/warning - use unicode symbols only

const defaultAccent = "#A78BFA"

var (
	// Accent style for file paths, column headers, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info, hints, line numbers
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)
)

// accentColor is the configured accent, empty when accent styling is off.
var accentColor = defaultAccent

// ConfigureTheme applies a user-configured accent color to the shared
// styles. "none", "off", or "default" disable the accent entirely.
func ConfigureTheme(accent string) {
	color, ok := normalizeAccentColor(accent)
	if !ok {
		if isDisabled(accent) {
			accentColor = ""
			Accent = lipgloss.NewStyle()
			AccentBold = lipgloss.NewStyle().Bold(true)
		}
		return
	}

	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// AccentColor returns the active accent color, if any.
func AccentColor() (string, bool) {
	if accentColor == "" {
		return "", false
	}
	return accentColor, true
}

func isDisabled(accent string) bool {
	switch strings.ToLower(strings.TrimSpace(accent)) {
	case "none", "off", "default":
		return true
	}
	return false
}

// normalizeAccentColor validates an accent value: an ANSI color code
// (0-255) or a hex color (#RGB or #RRGGBB). Three-digit hex expands to
// six digits.
func normalizeAccentColor(accent string) (string, bool) {
	accent = strings.TrimSpace(accent)
	if accent == "" || isDisabled(accent) {
		return "", false
	}

	if strings.HasPrefix(accent, "#") {
		hex := accent[1:]
		for _, r := range hex {
			isDigit := r >= '0' && r <= '9'
			isHexAlpha := (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
			if !isDigit && !isHexAlpha {
				return "", false
			}
		}
		switch len(hex) {
		case 3:
			var sb strings.Builder
			sb.WriteByte('#')
			for i := 0; i < 3; i++ {
				sb.WriteByte(hex[i])
				sb.WriteByte(hex[i])
			}
			return strings.ToLower(sb.String()), true
		case 6:
			return "#" + strings.ToLower(hex), true
		}
		return "", false
	}

	code, err := strconv.Atoi(accent)
	if err != nil || code < 0 || code > 255 {
		return "", false
	}
	return strconv.Itoa(code), true
}
