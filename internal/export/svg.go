// Package export renders solved schedules as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// Point is one vertex of a curve in data coordinates.
type Point struct {
	X, Y float64
}

// CurveToSVG renders a polyline through the points as a dark-themed SVG.
func CurveToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// Schedule names one plottable column of a solution.
type Schedule string

const (
	MatchingSchedule Schedule = "matching"
	FirmSizeSchedule Schedule = "firm_size"
	WageSchedule     Schedule = "wage"
	ProfitSchedule   Schedule = "profit"
)

// Schedules lists every plottable column.
func Schedules() []Schedule {
	return []Schedule{MatchingSchedule, FirmSizeSchedule, WageSchedule, ProfitSchedule}
}

func (s Schedule) pick(r matching.Row) float64 {
	switch s {
	case MatchingSchedule:
		return r.FirmProductivity
	case FirmSizeSchedule:
		return r.FirmSize
	case WageSchedule:
		return r.Wage
	default:
		return r.Profit
	}
}

func (s Schedule) color() string {
	switch s {
	case MatchingSchedule:
		return "#00ff88"
	case FirmSizeSchedule:
		return "#00ccff"
	case WageSchedule:
		return "#ffcc00"
	default:
		return "#ff00ff"
	}
}

// ScheduleToSVG renders one schedule of a solved run over worker type.
func ScheduleToSVG(rows []matching.Row, s Schedule, width, height int) string {
	points := make([]Point, len(rows))
	for i, r := range rows {
		points[i] = Point{X: r.X, Y: s.pick(r)}
	}
	return CurveToSVG(points, width, height, s.color())
}
