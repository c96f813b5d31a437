// Package pipeline holds the live scene of a five-stage pipeline.
//
// The scene is a fixed linear chain:
//
//   - [Stage]: a rectangle whose thickness encodes a capacity
//   - [Connector]: a trapezoid bridging two adjacent stages
//   - [Overlay]: text faded in over the scene
//
// Animations mutate stage and connector properties directly. Geometry is
// never stored: [Pipeline.Snapshot] recomputes every rectangle and connector
// from the current stage state, so connectors always touch the edges of
// their neighbours.
//
// # Thread Safety
//
// A Pipeline is owned by a single director goroutine and is NOT safe for
// concurrent use. Frames returned by Snapshot are independent copies.
package pipeline
