// Package traffic holds everything that moves (or blocks) on a road network:
// kinematic vehicles, controller-driven vehicles, IDM traffic and static
// obstacles, together with the Road that acts, steps and collides them.
package traffic

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/merge-sim/merge-sim/sim/road"
)

// Kind distinguishes vehicles from static objects.
type Kind uint8

const (
	KindVehicle = Kind(iota + 1)
	KindObstacle
)

func (k Kind) String() string {
	switch k {
	case KindVehicle:
		return "vehicle"
	case KindObstacle:
		return "obstacle"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Object is the state shared by everything placed on a Road.
type Object struct {
	road *Road

	Kind        Kind
	Position    orb.Point
	Heading     float64
	Speed       float64
	TargetSpeed float64
	Length      float64
	Width       float64
	Collidable  bool
	Solid       bool
	Crashed     bool

	LaneIndex road.LaneIndex
	Lane      road.Lane
}

func newObject(r *Road, kind Kind, position orb.Point, heading, speed, length, width float64) Object {
	o := Object{
		road:        r,
		Kind:        kind,
		Position:    position,
		Heading:     heading,
		Speed:       speed,
		TargetSpeed: speed,
		Length:      length,
		Width:       width,
		Collidable:  true,
		Solid:       true,
	}
	if r != nil && r.Network != nil {
		o.LaneIndex = r.Network.ClosestLaneIndex(position, heading)
		o.Lane, _ = r.Network.Lane(o.LaneIndex)
	}
	return o
}

// Body returns the object itself; embedding types inherit it.
func (o *Object) Body() *Object { return o }

// Direction is the unit vector of the heading.
func (o *Object) Direction() orb.Point {
	return orb.Point{math.Cos(o.Heading), math.Sin(o.Heading)}
}

// Velocity is speed along the heading.
func (o *Object) Velocity() orb.Point {
	d := o.Direction()
	return orb.Point{o.Speed * d[0], o.Speed * d[1]}
}

// Diagonal is the length of the footprint diagonal.
func (o *Object) Diagonal() float64 {
	return math.Hypot(o.Length, o.Width)
}

// Polygon returns the footprint corners counter-clockwise as a closed ring.
func (o *Object) Polygon() orb.Ring {
	c, s := math.Cos(o.Heading), math.Sin(o.Heading)
	hl, hw := o.Length/2, o.Width/2
	local := [4][2]float64{{-hl, -hw}, {hl, -hw}, {hl, hw}, {-hl, hw}}
	ring := make(orb.Ring, 0, 5)
	for _, p := range local {
		ring = append(ring, orb.Point{
			o.Position[0] + c*p[0] - s*p[1],
			o.Position[1] + s*p[0] + c*p[1],
		})
	}
	return append(ring, ring[0])
}

// OnRoad reports whether the object is on its current lane.
func (o *Object) OnRoad() bool {
	if o.Lane == nil {
		return false
	}
	return road.OnLane(o.Lane, o.Position, 0)
}

// LaneDistanceTo is the longitudinal distance from o to other measured along
// lane (o's current lane when nil). It is NaN when other is nil.
func (o *Object) LaneDistanceTo(other *Object, lane road.Lane) float64 {
	if other == nil {
		return math.NaN()
	}
	if lane == nil {
		lane = o.Lane
	}
	if lane == nil {
		return math.NaN()
	}
	so, _ := lane.LocalCoordinates(other.Position)
	ss, _ := lane.LocalCoordinates(o.Position)
	return so - ss
}

// Obstacle is a static solid object.
type Obstacle struct {
	Object
	Hit bool
}

// NewObstacle places a 2x2 obstacle at position.
func NewObstacle(r *Road, position orb.Point) *Obstacle {
	obs := &Obstacle{Object: newObject(r, KindObstacle, position, 0, 0, 2, 2)}
	obs.TargetSpeed = 0
	return obs
}
