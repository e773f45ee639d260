package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the player's panels. Scene primitives keep their own colors
// unless Mono is set, in which case everything on the canvas is drawn in it.
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Playing lipgloss.Color
	Paused  lipgloss.Color
	Border  lipgloss.Color
	Mono    lipgloss.Color
}

// Ink maps a scene color to the one drawn under t.
func (t Theme) Ink(color string) string {
	if t.Mono != "" {
		return string(t.Mono)
	}
	return color
}

var (
	ThemeOneDark = Theme{
		Name:    "onedark",
		Title:   lipgloss.Color("#61afef"),
		Accent:  lipgloss.Color("#e5c07b"),
		Text:    lipgloss.Color("#abb2bf"),
		Muted:   lipgloss.Color("#5c6370"),
		Playing: lipgloss.Color("#98c379"),
		Paused:  lipgloss.Color("#d19a66"),
		Border:  lipgloss.Color("#3e4451"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Title:   lipgloss.Color("#00ff00"), // Green phosphor
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00cc00"),
		Muted:   lipgloss.Color("#005500"),
		Playing: lipgloss.Color("#88ff88"),
		Paused:  lipgloss.Color("#ffff00"),
		Border:  lipgloss.Color("#005500"),
		Mono:    lipgloss.Color("#00ff00"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Title:   lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#cccccc"),
		Muted:   lipgloss.Color("#888888"),
		Playing: lipgloss.Color("#00ff00"),
		Paused:  lipgloss.Color("#ffaa00"),
		Border:  lipgloss.Color("#444444"),
		Mono:    lipgloss.Color("#ffffff"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Title:   lipgloss.Color("#00a8cc"),
		Accent:  lipgloss.Color("#ffd700"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Playing: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffcc00"),
		Border:  lipgloss.Color("#0077be"),
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Title:   lipgloss.Color("#ff6b6b"), // Coral
		Accent:  lipgloss.Color("#feca57"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Playing: lipgloss.Color("#5fd068"),
		Paused:  lipgloss.Color("#ffc048"),
		Border:  lipgloss.Color("#ff9ff3"),
	}

	Themes = []Theme{
		ThemeOneDark,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeOcean,
		ThemeSunset,
	}
)

// themeIndex returns the position of name in Themes, or 0 when unknown.
func themeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}

// GetTheme returns a theme by name, falling back to onedark.
func GetTheme(name string) Theme {
	return Themes[themeIndex(name)]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
