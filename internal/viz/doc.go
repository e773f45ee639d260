// Package viz plays step sequences in the terminal using the Bubble Tea
// framework:
//
//   - [Player]: one sequence, driven by a playback.Controller and eased by an
//     animation.Manager on a host-driven animation.Loop
//   - [Menu]: algorithm and preset picker that opens a Player
//   - [Canvas]: braille pixel canvas with per-cell colors
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	Space - Play/Pause
//	←/→   - Previous/next step (h/l)
//	g/G   - First/last step
//	R     - Reset to the first step
//	S     - Cycle playback speed
//	T     - Cycle color themes
//	V     - Toggle GIF recording
//	?     - Show help overlay
//
// # Recording
//
// V starts recording every distinct animation frame; pressing it again, or
// quitting, writes them as a GIF to Options.RecordPath.
package viz
