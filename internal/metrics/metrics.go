// Package metrics computes scalar diagnostics over equilibrium solution
// tables: wage inequality, the labor share of output and the spread of firm
// sizes.
package metrics

import (
	"math"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// WageDispersion is the ratio of the highest to the lowest wage along the
// equilibrium, a crude inequality measure.
type WageDispersion struct {
	min, max float64
	samples  int
}

func NewWageDispersion() *WageDispersion {
	return &WageDispersion{min: math.Inf(1), max: math.Inf(-1)}
}

func (w *WageDispersion) Name() string { return "wage_dispersion" }

func (w *WageDispersion) Observe(r matching.Row) {
	w.min = math.Min(w.min, r.Wage)
	w.max = math.Max(w.max, r.Wage)
	w.samples++
}

func (w *WageDispersion) Value() float64 {
	if w.samples == 0 || w.min <= 0 {
		return 0
	}
	return w.max / w.min
}

func (w *WageDispersion) Reset() {
	w.min = math.Inf(1)
	w.max = math.Inf(-1)
	w.samples = 0
}

// LaborShare is the wage bill's share of total output. Per unit of firm
// resources, output splits into theta*wage for the workers and profit for
// the firm.
type LaborShare struct {
	wageBill float64
	output   float64
}

func NewLaborShare() *LaborShare { return &LaborShare{} }

func (l *LaborShare) Name() string { return "labor_share" }

func (l *LaborShare) Observe(r matching.Row) {
	bill := r.FirmSize * r.Wage
	l.wageBill += bill
	l.output += bill + r.Profit
}

func (l *LaborShare) Value() float64 {
	if l.output == 0 {
		return 0
	}
	return l.wageBill / l.output
}

func (l *LaborShare) Reset() {
	l.wageBill = 0
	l.output = 0
}

// FirmSizeRange is the spread between the largest and smallest firm size.
type FirmSizeRange struct {
	min, max float64
	samples  int
}

func NewFirmSizeRange() *FirmSizeRange {
	return &FirmSizeRange{min: math.Inf(1), max: math.Inf(-1)}
}

func (f *FirmSizeRange) Name() string { return "firm_size_range" }

func (f *FirmSizeRange) Observe(r matching.Row) {
	f.min = math.Min(f.min, r.FirmSize)
	f.max = math.Max(f.max, r.FirmSize)
	f.samples++
}

func (f *FirmSizeRange) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return f.max - f.min
}

func (f *FirmSizeRange) Reset() {
	f.min = math.Inf(1)
	f.max = math.Inf(-1)
	f.samples = 0
}

// Standard is the default metric set applied to every solve.
func Standard() []matching.Metric {
	return []matching.Metric{
		NewWageDispersion(),
		NewLaborShare(),
		NewFirmSizeRange(),
	}
}

// Apply feeds every row through the metrics and collects the values by name.
func Apply(ms []matching.Metric, rows []matching.Row) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for _, r := range rows {
		for _, m := range ms {
			m.Observe(r)
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
