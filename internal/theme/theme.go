// Package theme holds the palette, badge styles and icons used when
// printing reports to a terminal.
package theme

import (
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
)

// IconSet represents a collection of icons keyed by semantic usage.
type IconSet map[string]string

func (s IconSet) clone() IconSet {
	if s == nil {
		return nil
	}
	clone := make(IconSet, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}

// Colors holds the shared color palette.
type Colors struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
}

// BadgeKind enumerates supported badge style variants.
type BadgeKind int

const (
	BadgeInfo BadgeKind = iota
	BadgeSuccess
	BadgeError
	BadgeMuted
)

// Theme centralizes palette, border and icon configuration.
type Theme struct {
	colors   Colors
	border   lipgloss.Border
	icons    IconSet
	fallback IconSet
	plain    bool
}

// Option configures a Theme during construction.
type Option func(*Theme)

// WithIconSet overrides the icon set used by the theme.
func WithIconSet(set IconSet) Option {
	return func(t *Theme) {
		t.icons = set.clone()
	}
}

// WithColors overrides the base color palette.
func WithColors(colors Colors) Option {
	return func(t *Theme) {
		t.colors = colors
	}
}

// WithPlain disables colors and switches to ASCII icons, for output that is
// not a terminal.
func WithPlain(plain bool) Option {
	return func(t *Theme) {
		t.plain = plain
		if plain {
			t.icons = asciiIcons.clone()
		}
	}
}

// New constructs a Theme with optional overrides applied.
func New(opts ...Option) Theme {
	defaults := []Option{
		WithColors(Colors{
			Primary:    lipgloss.Color("#3a6b4a"),
			Secondary:  lipgloss.Color("#2c5439"),
			Accent:     lipgloss.Color("#8fc279"),
			Background: lipgloss.Color("#f8f8f8"),
			Muted:      lipgloss.Color("#9ba8c0"),
			Success:    lipgloss.Color("#5dc796"),
			Error:      lipgloss.Color("#f04c56"),
		}),
		WithIconSet(defaultIconSet()),
	}

	t := Theme{border: lipgloss.RoundedBorder(), fallback: asciiIcons.clone()}
	for _, opt := range append(defaults, opts...) {
		opt(&t)
	}
	if t.icons == nil {
		t.icons = defaultIconSet()
	}
	return t
}

// Plain reports whether styling is disabled.
func (t Theme) Plain() bool {
	return t.plain
}

// Colors exposes the theme color palette.
func (t Theme) Colors() Colors {
	return t.colors
}

// Border returns the table border.
func (t Theme) Border() lipgloss.Border {
	if t.plain {
		return lipgloss.ASCIIBorder()
	}
	return t.border
}

// Icon returns a themed icon with ASCII fallback if unavailable.
func (t Theme) Icon(name string) string {
	if icon, ok := t.icons[name]; ok {
		return icon
	}
	if icon, ok := t.fallback[name]; ok {
		return icon
	}
	return ""
}

// HeaderStyle returns the style used for report headers.
func (t Theme) HeaderStyle() lipgloss.Style {
	if t.plain {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(t.colors.Primary)
}

// BorderStyle returns the style applied to table borders.
func (t Theme) BorderStyle() lipgloss.Style {
	if t.plain {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(t.colors.Accent)
}

// CellStyle returns the base style for table cells.
func (t Theme) CellStyle() lipgloss.Style {
	return lipgloss.NewStyle().Padding(0, 1)
}

// TextStyle returns a foreground-only style for the badge variant, used
// inside table cells.
func (t Theme) TextStyle(kind BadgeKind) lipgloss.Style {
	base := t.CellStyle()
	if t.plain {
		return base
	}
	switch kind {
	case BadgeSuccess:
		return base.Foreground(t.colors.Success)
	case BadgeError:
		return base.Foreground(t.colors.Error)
	case BadgeMuted:
		return base.Foreground(t.colors.Muted)
	default:
		return base
	}
}

// StatusBarStyle returns the style for the bottom status line.
func (t Theme) StatusBarStyle() lipgloss.Style {
	if t.plain {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().
		Background(t.colors.Secondary).
		Foreground(t.colors.Background).
		Padding(0, 1)
}

// PanelStyle returns the shared panel container style.
func (t Theme) PanelStyle() lipgloss.Style {
	style := lipgloss.NewStyle().Border(t.Border()).Padding(0, 1)
	if t.plain {
		return style
	}
	return style.BorderForeground(t.colors.Accent)
}

// ProgressGradient returns the gradient colors for progress bars.
func (t Theme) ProgressGradient() []string {
	return []string{string(t.colors.Primary), string(t.colors.Accent)}
}

// BadgeStyle returns the shared badge style for the requested variant.
func (t Theme) BadgeStyle(kind BadgeKind) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	if t.plain {
		return lipgloss.NewStyle()
	}

	switch kind {
	case BadgeSuccess:
		return base.Background(t.colors.Success).Foreground(t.colors.Background)
	case BadgeError:
		return base.Background(t.colors.Error).Foreground(t.colors.Background)
	case BadgeMuted:
		return base.Background(t.colors.Muted).Foreground(t.colors.Background)
	default:
		return base.Background(t.colors.Accent).Foreground(t.colors.Background)
	}
}

// defaultIconSet chooses the best icon set for the current terminal.
func defaultIconSet() IconSet {
	if isLimitedTerminal() {
		return asciiIcons.clone()
	}
	return emojiIcons.clone()
}

// isLimitedTerminal detects environments where ASCII icons are preferable.
func isLimitedTerminal() bool {
	if os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != "" {
		return true
	}
	return runtime.GOOS == "windows"
}

var emojiIcons = IconSet{
	"movie":    "🎬",
	"applied":  "✅",
	"failed":   "❌",
	"skipped":  "➖",
	"pending":  "⏸",
	"backend":  "🌐",
	"group":    "📁",
	"key":      "🔑",
	"file":     "🎥",
	"stats":    "📊",
	"canceled": "⏹",
}

var asciiIcons = IconSet{
	"movie":    "[M]",
	"applied":  "[v]",
	"failed":   "[!]",
	"skipped":  "[-]",
	"pending":  "[ ]",
	"backend":  "[B]",
	"group":    "[G]",
	"key":      "[K]",
	"file":     "[F]",
	"stats":    "[*]",
	"canceled": "[x]",
}
