// Package selection picks a winner from a candidate set and computes the wheel
// geometry needed to animate toward it.
//
// # Geometry
//
// With n candidates the wheel is cut into n equal segments. Segment i spans
// [i*360/n, (i+1)*360/n) degrees measured clockwise from the pointer at the
// top of the wheel. The winning angle is the segment midpoint.
//
// A rotation R (degrees, clockwise) brings wheel angle θ under the pointer when
// (θ + R) mod 360 == 0. TargetRotation therefore lands on (360 - θ) mod 360,
// after at least MinExtraTurns full turns past the previous rotation, so the
// cumulative rotation only ever grows and the wheel never snaps back.
//
// All geometry helpers are pure functions of their arguments; only Select
// consumes randomness.
package selection
