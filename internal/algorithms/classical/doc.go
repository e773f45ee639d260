// Package classical implements step generators for searching, sorting and
// graph traversal.
//
// Every generator is a package-level generator.Definition. Step ids, state
// keys and visual action payloads are stable: renderers and the layout
// package key off them.
//
//	seq, err := runner.Run(classical.BinarySearch, generator.Inputs{"target": 7})
//
// Array generators accept at most 64 elements and graph generators at most 26
// nodes so a run always stays small enough to play back interactively.
package classical
