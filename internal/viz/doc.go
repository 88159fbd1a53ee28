// Package viz provides terminal rendering for the double pendulum.
//
//   - [Canvas]: braille sub-pixel canvas with lines, discs and GIF frames
//   - [Projector]: maps pendulum coordinates to canvas sub-pixels
//   - [DrawPendulum]: draws rods, bobs and the bob-2 trail
//   - [Model]: Bubble Tea live view
//
// # Key Bindings
//
//	Space        - Pause/Resume
//	N            - Single step while paused
//	R            - Reset to the initial configuration
//	T            - Cycle color themes
//	G            - Toggle GIF recording (written to pendsim.gif)
//	Q, Esc, ^C   - Quit
//
// Rendering only reads [pendulum.Snapshot] values; it never mutates the
// pendulum.
package viz
