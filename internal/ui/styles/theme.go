// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

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

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// TAB BAR STYLES
	// ==========================================================================

	TabBar      lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	TabDisabled lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusOK      lipgloss.Style
	StatusWarn    lipgloss.Style
	StatusError   lipgloss.Style
	StatusMuted   lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style
	AdminUnlocked lipgloss.Style
	AdminLocked   lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarMeta     lipgloss.Style

	// ==========================================================================
	// TABLE STYLES
	// ==========================================================================

	TableHeader      lipgloss.Style
	TableRow         lipgloss.Style
	TableRowSelected lipgloss.Style
	TableCaption     lipgloss.Style

	// ==========================================================================
	// CARD STYLES
	// ==========================================================================

	CardOK      lipgloss.Style
	CardWarn    lipgloss.Style
	CardError   lipgloss.Style
	CardUnknown lipgloss.Style
	CardTitle   lipgloss.Style
	CardValue   lipgloss.Style
	CardDetail  lipgloss.Style

	// ==========================================================================
	// PILL STYLES
	// ==========================================================================

	PillOK   lipgloss.Style
	PillWarn lipgloss.Style
	PillErr  lipgloss.Style
	PillInfo lipgloss.Style

	// ==========================================================================
	// LOG PANE STYLES
	// ==========================================================================

	LogPane      lipgloss.Style
	LogLine      lipgloss.Style
	LogLineError lipgloss.Style
	LogChannel   lipgloss.Style

	// ==========================================================================
	// CHAT STYLES
	// ==========================================================================

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	StageLine        lipgloss.Style
	CitationLine     lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	InputText      lipgloss.Style
	InputError     lipgloss.Style

	// ==========================================================================
	// MODAL STYLES
	// ==========================================================================

	ModalBox    lipgloss.Style
	ModalTitle  lipgloss.Style
	ModalBody   lipgloss.Style
	ModalDanger lipgloss.Style

	// ==========================================================================
	// INDICATOR STYLES
	// ==========================================================================

	IndicatorSaving lipgloss.Style
	IndicatorSaved  lipgloss.Style
	IndicatorError  lipgloss.Style
	Spinner         lipgloss.Style
}

// NewTheme creates a theme. name is "dark", "light", or "auto"; auto
// follows the terminal's detected background.
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(name) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
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

	// Tab bar
	t.TabBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.Tab = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 2)

	t.TabActive = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true).
		Underline(true).
		Padding(0, 2)

	t.TabDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 2)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusOK = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusWarn = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.StatusMuted = lipgloss.NewStyle().Foreground(TextMuted)

	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.AdminUnlocked = lipgloss.NewStyle().Foreground(Emerald)
	t.AdminLocked = lipgloss.NewStyle().Foreground(TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.SidebarMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Tables
	t.TableHeader = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)

	t.TableRow = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.TableRowSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg)

	t.TableCaption = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Cards
	cardBase := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 2).
		Width(24)

	t.CardOK = cardBase.BorderForeground(Emerald)
	t.CardWarn = cardBase.BorderForeground(Amber)
	t.CardError = cardBase.BorderForeground(Rose)
	t.CardUnknown = cardBase.BorderForeground(Overlay)

	t.CardTitle = lipgloss.NewStyle().Foreground(TextSecondary).Bold(true)
	t.CardValue = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.CardDetail = lipgloss.NewStyle().Foreground(TextMuted)

	// Pills
	pillBase := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	t.PillOK = pillBase.Foreground(TextInverse).Background(Emerald)
	t.PillWarn = pillBase.Foreground(TextInverse).Background(Amber)
	t.PillErr = pillBase.Foreground(TextInverse).Background(Rose)
	t.PillInfo = pillBase.Foreground(TextInverse).Background(Cyan)

	// Log pane
	t.LogPane = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.LogLine = lipgloss.NewStyle().Foreground(TextSecondary)
	t.LogLineError = lipgloss.NewStyle().Foreground(Rose)
	t.LogChannel = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// Chat
	t.UserMessage = lipgloss.NewStyle().
		Foreground(Cyan).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Cyan).
		PaddingLeft(1)

	t.AssistantMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.StageLine = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.CitationLine = lipgloss.NewStyle().
		Foreground(Purple)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.InputText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.InputError = lipgloss.NewStyle().Foreground(Rose)

	// Modals
	t.ModalBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 3)

	t.ModalTitle = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.ModalBody = lipgloss.NewStyle().Foreground(TextSecondary)

	t.ModalDanger = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Padding(1, 3)

	// Indicators
	t.IndicatorSaving = lipgloss.NewStyle().Foreground(Amber)
	t.IndicatorSaved = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.IndicatorError = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
}
