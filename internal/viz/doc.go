// Package viz is the terminal host of the orrery.
//
// The package renders a running simulation with Bubble Tea:
//
//   - [App]: preset menu handing over to the live view
//   - [Model]: the live view, a braille canvas plus a status panel
//   - [TermRenderer]: the scene.Renderer that projects bodies, orbits,
//     trails and a starfield through the picking camera
//   - [OrbitControls]: damped orbit camera driven by keys and the wheel
//
// # Key Bindings
//
//	Space - Play/Pause
//	R     - Reset
//	+/-   - Global speed
//	1-7   - One orbit of the selected body per second..year
//	O L S - Orbits, labels, stars
//	P     - Trails
//	Z     - Realistic sizes
//	:     - Command prompt ("speed 2", "period mars day", ...)
//	?     - Help overlay
//
// Hovering a body with the mouse highlights it; clicking focuses the camera
// on it.
//
// # Recording
//
// G toggles GIF recording of the canvas. The file is written when
// recording stops or the view quits.
package viz
