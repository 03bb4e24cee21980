// Package road provides lane geometry and the directed road network the
// merge scenario is built on. It holds pure geometry: vehicles live in
// sim/traffic.
package road

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	// DefaultWidth is the width of a lane when none is given.
	DefaultWidth = 4.0
	// VehicleLength is the nominal vehicle length used by lane bounds checks.
	VehicleLength = 5.0
)

// LineType is the marking drawn on one side of a lane.
type LineType int

const (
	LineNone LineType = iota
	LineStriped
	LineContinuous
	LineContinuousLine
)

var lineTypeNames = [...]string{"none", "striped", "continuous", "continuous_line"}

func (lt LineType) String() string {
	if lt < 0 || int(lt) >= len(lineTypeNames) {
		return fmt.Sprintf("LineType(%d)", int(lt))
	}
	return lineTypeNames[lt]
}

// Lane is a segment of road with a longitudinal/lateral frame.
//
// Longitudinal coordinate s runs from 0 at the lane start to Length() at its
// end; lateral coordinate r is positive to the right of the driving direction
// (the direction rotated by +90°).
type Lane interface {
	Position(longitudinal, lateral float64) orb.Point
	LocalCoordinates(p orb.Point) (longitudinal, lateral float64)
	HeadingAt(longitudinal float64) float64
	WidthAt(longitudinal float64) float64
	Length() float64
	LineTypes() [2]LineType
	Forbidden() bool
}

// StraightLane is a lane going in a straight line between two points.
type StraightLane struct {
	start     orb.Point
	end       orb.Point
	width     float64
	lineTypes [2]LineType
	forbidden bool

	length    float64
	heading   float64
	direction orb.Point
	lateral   orb.Point
}

// NewStraightLane creates a straight lane from start to end. A non-positive
// width falls back to DefaultWidth.
func NewStraightLane(start, end orb.Point, width float64, lineTypes [2]LineType, forbidden bool) *StraightLane {
	if width <= 0 {
		width = DefaultWidth
	}
	l := &StraightLane{
		start:     start,
		end:       end,
		width:     width,
		lineTypes: lineTypes,
		forbidden: forbidden,
		length:    planar.Distance(start, end),
		heading:   math.Atan2(end[1]-start[1], end[0]-start[0]),
	}
	if l.length > 0 {
		l.direction = orb.Point{(end[0] - start[0]) / l.length, (end[1] - start[1]) / l.length}
	} else {
		l.direction = orb.Point{1, 0}
	}
	l.lateral = orb.Point{-l.direction[1], l.direction[0]}
	return l
}

func (l *StraightLane) Position(longitudinal, lateral float64) orb.Point {
	return orb.Point{
		l.start[0] + longitudinal*l.direction[0] + lateral*l.lateral[0],
		l.start[1] + longitudinal*l.direction[1] + lateral*l.lateral[1],
	}
}

func (l *StraightLane) LocalCoordinates(p orb.Point) (float64, float64) {
	dx, dy := p[0]-l.start[0], p[1]-l.start[1]
	return dx*l.direction[0] + dy*l.direction[1], dx*l.lateral[0] + dy*l.lateral[1]
}

func (l *StraightLane) HeadingAt(float64) float64 { return l.heading }
func (l *StraightLane) WidthAt(float64) float64   { return l.width }
func (l *StraightLane) Length() float64           { return l.length }
func (l *StraightLane) LineTypes() [2]LineType    { return l.lineTypes }
func (l *StraightLane) Forbidden() bool           { return l.forbidden }

// Start returns the first point of the lane centre line.
func (l *StraightLane) Start() orb.Point { return l.start }

// End returns the last point of the lane centre line.
func (l *StraightLane) End() orb.Point { return l.end }

// SineLane is a straight lane whose centre line oscillates laterally.
type SineLane struct {
	*StraightLane
	Amplitude float64
	Pulsation float64
	Phase     float64
}

// NewSineLane creates a sinusoidal lane around the straight line start→end.
func NewSineLane(start, end orb.Point, amplitude, pulsation, phase, width float64, lineTypes [2]LineType, forbidden bool) *SineLane {
	return &SineLane{
		StraightLane: NewStraightLane(start, end, width, lineTypes, forbidden),
		Amplitude:    amplitude,
		Pulsation:    pulsation,
		Phase:        phase,
	}
}

func (l *SineLane) offset(longitudinal float64) float64 {
	return l.Amplitude * math.Sin(l.Pulsation*longitudinal+l.Phase)
}

func (l *SineLane) Position(longitudinal, lateral float64) orb.Point {
	return l.StraightLane.Position(longitudinal, lateral+l.offset(longitudinal))
}

func (l *SineLane) LocalCoordinates(p orb.Point) (float64, float64) {
	s, r := l.StraightLane.LocalCoordinates(p)
	return s, r - l.offset(s)
}

func (l *SineLane) HeadingAt(longitudinal float64) float64 {
	return l.StraightLane.HeadingAt(longitudinal) +
		math.Atan(l.Amplitude*l.Pulsation*math.Cos(l.Pulsation*longitudinal+l.Phase))
}

// OnLane reports whether p lies on the lane, widened laterally by margin.
func OnLane(l Lane, p orb.Point, margin float64) bool {
	s, r := l.LocalCoordinates(p)
	return math.Abs(r) <= l.WidthAt(s)/2+margin &&
		-VehicleLength <= s && s < l.Length()+VehicleLength
}

// IsReachableFrom reports whether a vehicle at p could steer onto the lane.
func IsReachableFrom(l Lane, p orb.Point) bool {
	s, r := l.LocalCoordinates(p)
	return math.Abs(r) <= 2*l.WidthAt(s) && 0 <= s && s < l.Length()+VehicleLength
}

// AfterEnd reports whether p has passed the end of the lane.
func AfterEnd(l Lane, p orb.Point) bool {
	s, _ := l.LocalCoordinates(p)
	return s > l.Length()-VehicleLength/2
}

// Distance is an L1 distance from p to the lane.
func Distance(l Lane, p orb.Point) float64 {
	s, r := l.LocalCoordinates(p)
	return math.Abs(r) + math.Max(s-l.Length(), 0) + math.Max(-s, 0)
}

// DistanceWithHeading adds the weighted heading mismatch to Distance.
func DistanceWithHeading(l Lane, p orb.Point, heading, headingWeight float64) float64 {
	s, r := l.LocalCoordinates(p)
	angle := math.Abs(WrapToPi(heading - l.HeadingAt(s)))
	return math.Abs(r) + math.Max(s-l.Length(), 0) + math.Max(-s, 0) + headingWeight*angle
}

// WrapToPi maps an angle into [-π, π).
func WrapToPi(x float64) float64 {
	return math.Mod(math.Mod(x+math.Pi, 2*math.Pi)+2*math.Pi, 2*math.Pi) - math.Pi
}
