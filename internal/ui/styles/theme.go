// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER AND STATUS BAR STYLES
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// FORM STYLES
	// ==========================================================================

	FormBox      lipgloss.Style
	FormTitle    lipgloss.Style
	FormLabel    lipgloss.Style
	FormHint     lipgloss.Style
	FieldActive  lipgloss.Style
	FieldBlurred lipgloss.Style

	// ==========================================================================
	// TELEMETRY TABLE STYLES
	// ==========================================================================

	TableHeader      lipgloss.Style
	TableRow         lipgloss.Style
	TableRowAlt      lipgloss.Style
	TablePlaceholder lipgloss.Style
	DeviceSelected   lipgloss.Style
	DeviceUnselected lipgloss.Style

	// ==========================================================================
	// STATUS INDICATOR STYLES
	// ==========================================================================

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	Spinner      lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Forms
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 3)

	t.FormTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		MarginBottom(1)

	t.FormLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.FormHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.FieldActive = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Cyan).
		PaddingLeft(1)

	t.FieldBlurred = lipgloss.NewStyle().
		Foreground(TextSecondary).
		PaddingLeft(2)

	// Telemetry table
	t.TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(CyanDeep).
		Padding(0, 1)

	t.TableRow = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.TableRowAlt = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.TablePlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	t.DeviceSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1)

	t.DeviceUnselected = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	// Status indicators
	t.SuccessStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)

	t.ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(Amber)

	t.InfoStyle = lipgloss.NewStyle().
		Foreground(Cyan)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
}

// SetSize updates the layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
