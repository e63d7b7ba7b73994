// Package analysis derives statistics from recorded simulation results.
//
//   - [Summarize]: per-stock initial, final, extremes, mean and spread
//   - [SettlingTime]: when a series stays within a tolerance of its final value
//   - [ComputeSpectrum] and [DominantPeriod]: frequency content of a series
//   - [NewPhasePortrait]: one stock plotted against another
//
// # Oscillation
//
// The dominant period of an oscillating stock comes from its spectrum:
//
//	x, _ := result.Series("x")
//	period, ok := analysis.DominantPeriod(x, result.TimeStep)
package analysis
