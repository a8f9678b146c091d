package model

import (
	"math"

	gosymbol "github.com/njchilds90/gosymbol"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution describes one population's type distribution. The equilibrium
// derivation needs the density symbolically (it enters the matching ODE);
// the support bounds are cut numerically at quantiles.
type Distribution interface {
	Density(t gosymbol.Expr) gosymbol.Expr
	Quantile(p float64) float64
}

// LogNormal has location and scale on the log scale, so the median is
// exp(Location).
type LogNormal struct {
	Location float64
	Scale    float64
}

func (d LogNormal) Quantile(p float64) float64 {
	return distuv.LogNormal{Mu: d.Location, Sigma: d.Scale}.Quantile(p)
}

func (d LogNormal) Density(t gosymbol.Expr) gosymbol.Expr {
	norm := 1 / (d.Scale * math.Sqrt(2*math.Pi))
	return gosymbol.MulOf(
		gosymbol.NFloat(norm),
		gosymbol.PowOf(t, gosymbol.N(-1)),
		gosymbol.ExpOf(gosymbol.MulOf(
			gosymbol.NFloat(-1/(2*d.Scale*d.Scale)),
			gosymbol.PowOf(gosymbol.AddOf(gosymbol.LnOf(t), gosymbol.NFloat(-d.Location)), gosymbol.N(2)),
		)),
	)
}

type Uniform struct {
	Lower float64
	Upper float64
}

func (d Uniform) Quantile(p float64) float64 {
	return distuv.Uniform{Min: d.Lower, Max: d.Upper}.Quantile(p)
}

func (d Uniform) Density(t gosymbol.Expr) gosymbol.Expr {
	return gosymbol.NFloat(1 / (d.Upper - d.Lower))
}
