package viz

import (
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

const (
	plotWidth  = 80
	plotHeight = 10
)

func series(rows []matching.Row, pick func(matching.Row) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = pick(r)
	}
	return out
}

func plot(data []float64, caption string) string {
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// PlotMatching charts the matching function mu over the worker type grid.
func PlotMatching(rows []matching.Row) string {
	return plot(series(rows, func(r matching.Row) float64 { return r.FirmProductivity }),
		"firm productivity mu(x)")
}

// PlotFirmSize charts the firm size schedule over the worker type grid.
func PlotFirmSize(rows []matching.Row) string {
	return plot(series(rows, func(r matching.Row) float64 { return r.FirmSize }),
		"firm size theta(x)")
}

// PlotWage charts the wage schedule over the worker type grid.
func PlotWage(rows []matching.Row) string {
	return plot(series(rows, func(r matching.Row) float64 { return r.Wage }),
		"wage w(x)")
}

// PlotProfit charts the profit schedule over the worker type grid.
func PlotProfit(rows []matching.Row) string {
	return plot(series(rows, func(r matching.Row) float64 { return r.Profit }),
		"profit pi(x)")
}

// RenderSolution stacks all four schedule charts for one solved run.
func RenderSolution(rows []matching.Row) string {
	var b strings.Builder
	for i, chart := range []string{
		PlotMatching(rows),
		PlotFirmSize(rows),
		PlotWage(rows),
		PlotProfit(rows),
	} {
		if chart == "" {
			continue
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(chart)
	}
	return b.String()
}
