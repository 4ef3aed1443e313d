package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the station dashboard.
type Theme struct {
	Name string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// StatusColors keys are order statuses.
	StatusColors map[string]string
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),
		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),
	}
}

// Styles holds pre-built lipgloss styles derived from a Theme.
type Styles struct {
	Logo        lipgloss.Style
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
}

// themeByName resolves a preference string to a palette, falling back to
// the default for unknown names.
func themeByName(name string) Theme {
	for _, t := range []Theme{defaultTheme(), paperTheme()} {
		if t.Name == name {
			return t
		}
	}
	return defaultTheme()
}

// paperTheme is a high-contrast palette for bright venues.
func paperTheme() Theme {
	return Theme{
		Name:    "paper",
		Text:    "#fafafa",
		Muted:   "#b0b0b0",
		Accent:  "#ffd75f",
		Success: "#5fdf5f",
		Warning: "#ffaf00",
		Danger:  "#ff5f5f",
		StatusColors: map[string]string{
			"pending":     "#ffaf00",
			"in_progress": "#5fafff",
			"completed":   "#5fdf5f",
			"picked_up":   "#b0b0b0",
		},
	}
}

// defaultTheme is a dark palette tuned for dim cafe counters.
func defaultTheme() Theme {
	return Theme{
		Name:    "espresso",
		Text:    "#e6e1d3",
		Muted:   "#8a8577",
		Accent:  "#d4a056",
		Success: "#7fbf7f",
		Warning: "#e0b050",
		Danger:  "#d06c6c",
		StatusColors: map[string]string{
			"pending":     "#e0b050",
			"in_progress": "#6ca7d0",
			"completed":   "#7fbf7f",
			"picked_up":   "#8a8577",
		},
	}
}
