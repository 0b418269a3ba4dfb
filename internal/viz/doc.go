// Package viz renders simulation records in the terminal.
//
//   - [TrackingChart] and [CostChart]: asciigraph line charts
//   - [Report]: lipgloss summary of a run or a tuning session
//   - [Replay]: Bubble Tea viewer that plays a record back step by step
//   - [Canvas]: Braille pixel canvas used by the viewer
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	[ ]   - Step backward/forward
//	+ -   - Playback speed
//	Home  - Rewind
//	T     - Cycle color themes
//	Q     - Quit
package viz
