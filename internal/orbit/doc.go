// Package orbit provides the kinematic primitives of the orrery.
//
// The package defines:
//
//   - [Body]: one planet on a fixed circular orbit, with its effect table
//   - [Registry]: the single owner of every body in a simulation
//   - [SpeedFor]: the time-based speed model ("one orbit per year")
//   - [Error]: wrapped configuration and validation failures
//
// # Motion
//
// Each tick advances a body's phase by
//
//	Speed * g * dt * OrbitPacing
//
// and its self rotation by RotationSpeed * g * dt * RotationPacing, where g
// is the global speed scale. Orbits are circles in the y=0 plane; no
// eccentricity is modelled.
//
// # Thread Safety
//
// Bodies and registries are NOT thread-safe. The simulation that owns a
// registry is its only writer.
package orbit
