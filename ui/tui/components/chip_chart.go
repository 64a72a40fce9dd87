package components

import (
	"graphlens/internal/output"
	"graphlens/ui/tui/styles"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxBars caps the charted chips.
const maxBars = 8

// ChipChart draws label chip counts as bars in their scheme colors.
type ChipChart struct {
	Chart  barchart.Model
	Items  []output.Item
	Width  int
	Height int
}

func NewChipChart(width, height int) *ChipChart {
	return &ChipChart{
		Chart:  barchart.New(width, height),
		Width:  width,
		Height: height,
	}
}

func (c *ChipChart) Init() tea.Cmd {
	return nil
}

func (c *ChipChart) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return c, nil
}

// Set replaces the charted chips.
func (c *ChipChart) Set(items []output.Item) {
	c.Items = items
}

func (c *ChipChart) Resize(w, h int) {
	c.Width = w
	c.Height = h
	c.Chart.Resize(w, h)
}

func (c *ChipChart) View() string {
	c.Chart.Clear()
	items := c.Items
	if len(items) > maxBars {
		items = items[:maxBars]
	}
	data := make([]barchart.BarData, 0, len(items))
	for _, it := range items {
		color := it.Color
		if color == "" {
			color = "#D3D3D3"
		}
		data = append(data, barchart.BarData{
			Label: abbreviate(it.Label, 3),
			Values: []barchart.BarValue{{
				Name:  it.Label,
				Value: float64(it.Count),
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(color)),
			}},
		})
	}
	if len(data) > 0 {
		c.Chart.PushAll(data)
		c.Chart.Draw()
	}

	return styles.CardStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render("Nodes per label"),
			c.Chart.View(),
		),
	)
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
