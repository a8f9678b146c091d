// Package viz renders solved equilibria in the terminal.
//
// Two surfaces are provided:
//
//   - Static ASCII charts of the matching function, firm size, wage and
//     profit schedules over worker type ([PlotMatching] and friends).
//   - A live Bubble Tea view of the bisection ([NewLiveModel]) that shows
//     the shrinking bracket and per-attempt outcomes while a solve runs.
//
// # Key Bindings (live view)
//
//	Q / Ctrl+C - Quit
//	? - Show help overlay
package viz
