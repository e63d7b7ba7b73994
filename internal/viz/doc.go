// Package viz renders simulation results in the terminal.
//
//   - [Summary] and [Detailed]: lipgloss tables of a result
//   - [Plot]: asciigraph line chart of one or more stocks
//   - [Sparkline]: compact single-line trend
//   - [LiveModel]: Bubble Tea program that steps a model in real time
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Rebuild the model and start over
//	Tab   - Select the charted stock
//	+/-   - Steps per frame
//	Q     - Quit
package viz
