// Package step defines the data shapes every other stepviz component
// operates on.
//
//   - [Step]: one named point in an algorithm's execution
//   - [Sequence]: the ordered, immutable trace produced by one run
//   - [VisualAction]: a declarative visual effect tagged by type
//   - [Document]: the wire wrapper used for export and precompute
//
// A step's [State] is always a structural copy made by [Snapshot] when the
// step is added to a [Builder], so mutating the generator's working data
// after the fact never leaks into recorded steps.
//
// # Example
//
//	b := step.NewBuilder()
//	b.Add(step.Step{ID: "initialize", Title: "Start", Explanation: "...", State: step.State{"array": arr}})
//	b.Add(step.Step{ID: "complete", Title: "Done", Explanation: "...", IsTerminal: true})
//	seq := b.Sequence()
//	err := step.Validate(seq)
//
// # Thread Safety
//
// Sequences are immutable once built and safe to share. Builders are not
// safe for concurrent use.
package step
