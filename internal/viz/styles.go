package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusDone    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	statusFailed  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	sparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	sparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	sparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(1, 2)
)

// BracketBar renders the current bisection bracket as a bar: the filled
// span shows what remains of the initial interval.
func BracketBar(lower, upper, initialUpper float64, width int) string {
	if initialUpper <= 0 || width <= 0 {
		return ""
	}
	lo := int(lower / initialUpper * float64(width))
	hi := int(upper / initialUpper * float64(width))
	if hi > width {
		hi = width
	}
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	bar := strings.Repeat("░", lo) + strings.Repeat("█", hi-lo) + strings.Repeat("░", width-hi)

	frac := (upper - lower) / initialUpper
	switch {
	case frac < 0.01:
		return sparkHigh.Render(bar)
	case frac < 0.25:
		return sparkMid.Render(bar)
	default:
		return sparkLow.Render(bar)
	}
}

// Sparkline renders a mini chart of recent values, newest on the right.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	if len(values) > width {
		values = values[len(values)-width:]
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - min) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		b.WriteRune(chars[idx])
	}
	return b.String()
}
