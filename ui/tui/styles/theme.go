package styles

import "github.com/charmbracelet/lipgloss"

var (
	Subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	Highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	Special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	Danger    = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F5F"}

	BrandColor = lipgloss.Color("#f27b24")
	BaseColor  = lipgloss.Color("#444")

	TitleStyle = lipgloss.NewStyle().
			MarginLeft(1).
			MarginRight(5).
			Padding(0, 1).
			Italic(true).
			Foreground(lipgloss.Color("#FFF7DB"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(BrandColor).
			Align(lipgloss.Left).
			Padding(0, 2)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Highlight).
			Padding(0, 1)

	StatusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFF"))

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666")).
			PaddingLeft(1)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFF")).
			Background(Highlight)
)

// Swatch renders s in the scheme color hex. An empty hex renders plain.
func Swatch(hex, s string) string {
	if hex == "" {
		return s
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(s)
}

// Chip renders a legend chip with hex as its background.
func Chip(hex, s string) string {
	st := lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#111"))
	if hex != "" {
		st = st.Background(lipgloss.Color(hex))
	} else {
		st = st.Background(Subtle)
	}
	return st.Render(s)
}
