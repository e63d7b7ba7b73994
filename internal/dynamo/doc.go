// Package dynamo provides the stock-and-flow simulation engine.
//
// A model is a set of stocks (quantities with optional bounds) connected by
// flows (rates that drain one stock and/or fill another):
//
//   - [Stock], [StockArray]: quantities and batches of quantities
//   - [Flow] with a [RateFunction]: [Constant] or [Linear] in one stock
//   - [SystemState]: current stock values plus simulation time
//   - [Model]: owns the state and flows and integrates them
//   - [Result]: time series recorded by one [Model.Simulate] call
//
// # Integration
//
// Each step takes a snapshot of every stock, evaluates all flows against that
// snapshot, applies value += net_rate * dt (explicit Euler), clamps each stock
// into its bounds and advances time by dt. Flow evaluation order never changes
// the outcome.
//
// # Example
//
//	m := dynamo.New("bathtub")
//	m.AddStock(dynamo.NewStock("water", "Water", 0, "l")).
//		AddFlow(dynamo.ConstantFlow("tap", "Tap", 2, "l/s").To("water")).
//		AddFlow(dynamo.ConstantFlow("drain", "Drain", 1, "l/s").From("water")).
//		SetTimeStep(1)
//	res, _ := m.Simulate(5)
//
// # Thread Safety
//
// Model instances are NOT thread-safe and never spawn goroutines.
package dynamo
