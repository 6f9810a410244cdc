/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geometry provides the basic 2D primitives used by the wire-net
// engine: points in scene units, line segments, tolerance-based coincidence
// tests, and grid snapping. Coordinates are float64; "near" comparisons use
// an explicit tolerance because schematic edits snap to a coarse grid and
// exact float equality is only meaningful for points produced by the same
// snap function.
package geometry

import "math"

// DefaultTolerance is the coincidence tolerance in scene units used when the
// caller does not configure one.
const DefaultTolerance = 1.0

// Point is a 2D point in scene units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// P is a convenience constructor.
func P(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the difference p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Near reports whether p and q coincide within tol. The comparison is
// strict: a distance of exactly tol does not coincide, so a point nudged by
// one full tolerance unit comes apart.
func (p Point) Near(q Point, tol float64) bool {
	return p.Distance(q) < tol
}

// Segment is a line segment between two points.
type Segment struct {
	A, B Point
}

// Length returns the segment length.
func (s Segment) Length() float64 { return s.A.Distance(s.B) }

// DistanceTo returns the distance from p to the closest point on the segment.
func (s Segment) DistanceTo(p Point) float64 {
	d := s.B.Sub(s.A)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return s.A.Distance(p)
	}
	// Project p onto the segment, clamped to [0,1].
	t := ((p.X-s.A.X)*d.X + (p.Y-s.A.Y)*d.Y) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Point{X: s.A.X + t*d.X, Y: s.A.Y + t*d.Y}
	return closest.Distance(p)
}

// ContainsPoint reports whether p lies on the segment within tol, with the
// same strict comparison as Point.Near.
func (s Segment) ContainsPoint(p Point, tol float64) bool {
	return s.DistanceTo(p) < tol
}

// Colinear reports whether b lies on the straight line through a and c,
// within tol. Used by wire simplification to drop redundant interior points.
func Colinear(a, b, c Point, tol float64) bool {
	// Twice the signed triangle area divided by the base length gives the
	// perpendicular distance of b from line a-c.
	base := a.Distance(c)
	if base == 0 {
		return a.Near(b, tol)
	}
	area := (c.X-a.X)*(b.Y-a.Y) - (c.Y-a.Y)*(b.X-a.X)
	return math.Abs(area)/base <= tol
}

// SnapToGrid snaps p to the nearest multiple of grid in both axes.
// A grid of zero or less returns p unchanged.
func SnapToGrid(p Point, grid float64) Point {
	if grid <= 0 {
		return p
	}
	return Point{
		X: math.Round(p.X/grid) * grid,
		Y: math.Round(p.Y/grid) * grid,
	}
}

// Snapper returns a snap function bound to a fixed grid size, suitable for
// handing to the wire-net engine as its snap collaborator.
func Snapper(grid float64) func(Point) Point {
	return func(p Point) Point { return SnapToGrid(p, grid) }
}
