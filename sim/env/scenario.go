package env

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/merge-sim/merge-sim/sim/road"
	"github.com/merge-sim/merge-sim/sim/traffic"
)

// Scenario geometry.
var (
	// SegmentLengths are the lengths of the highway before the merge, the
	// converging sine section, the merge section and after the merge.
	SegmentLengths = [4]float64{150, 80, 80, 150}
	// HighwayLanesY are the lateral positions of the three highway lanes.
	HighwayLanesY = [3]float64{-4, 0, 4}
)

const (
	// MergeLaneY is the lateral position of the straight part of the ramp.
	MergeLaneY = 6.5 + 2*road.DefaultWidth
	// MergeAmplitude is the amplitude of the sine part of the ramp.
	MergeAmplitude = 3.25
	// TerminationX is the longitudinal position past which an episode ends.
	TerminationX = 370.0
	// Destination is the node controlled traffic is routed to.
	Destination = "d"
)

// Lane indices vehicles are placed on.
var (
	EgoLaneIndex   = road.LaneIndex{From: "a", To: "b", ID: 2}
	MergeLaneIndex = road.LaneIndex{From: "j", To: "k", ID: 0}
	// MergingLaneIndex is the lane the altruistic reward term watches.
	MergingLaneIndex = road.LaneIndex{From: "b", To: "c", ID: 2}
)

const (
	egoOffset     = 30.0
	egoSpeed      = 30.0
	leadGap       = 50.0
	leadSpeed     = 30.0
	mergingOffset = 110.0
	mergingSpeed  = 20.0
	mergingTarget = 30.0
)

// MakeNetwork builds the merge road network: three highway lanes from "a"
// to "d" and a ramp "j"→"k"→"b" that continues as a fourth lane on "b"→"c"
// and ends against an obstacle.
func MakeNetwork() (*road.Network, orb.Point) {
	n := road.NewNetwork()
	ends := SegmentLengths
	c, s, none := road.LineContinuousLine, road.LineStriped, road.LineNone

	lineTypes := [3][2]road.LineType{{c, s}, {none, s}, {none, c}}
	mergeLineTypes := [3][2]road.LineType{{c, s}, {none, s}, {none, s}}
	xB := ends[0] + ends[1]
	xC := xB + ends[2]
	xD := xC + ends[3]
	for i, y := range HighwayLanesY {
		n.AddLane("a", "b", road.NewStraightLane(orb.Point{0, y}, orb.Point{xB, y}, road.DefaultWidth, lineTypes[i], false))
		n.AddLane("b", "c", road.NewStraightLane(orb.Point{xB, y}, orb.Point{xC, y}, road.DefaultWidth, mergeLineTypes[i], false))
		n.AddLane("c", "d", road.NewStraightLane(orb.Point{xC, y}, orb.Point{xD, y}, road.DefaultWidth, lineTypes[i], false))
	}

	ljk := road.NewStraightLane(orb.Point{0, MergeLaneY}, orb.Point{ends[0], MergeLaneY},
		road.DefaultWidth, [2]road.LineType{c, c}, true)
	lkb := road.NewSineLane(ljk.Position(ends[0], -MergeAmplitude), ljk.Position(xB, -MergeAmplitude),
		MergeAmplitude, 2*math.Pi/(2*ends[1]), math.Pi/2, road.DefaultWidth, [2]road.LineType{c, c}, true)
	start := lkb.Position(ends[1], 0)
	lbc := road.NewStraightLane(start, orb.Point{start[0] + ends[2], start[1]},
		road.DefaultWidth, [2]road.LineType{none, c}, true)
	n.AddLane("j", "k", ljk)
	n.AddLane("k", "b", lkb)
	n.AddLane("b", "c", lbc)

	return n, lbc.Position(ends[2], 0)
}

// MakeRoad builds the network, places the end-of-ramp obstacle and returns
// the empty road.
func MakeRoad(cfg Config, rng *rand.Rand) *traffic.Road {
	n, obstacleAt := MakeNetwork()
	r := traffic.NewRoad(n, rng, cfg.ShowTrajectories)
	r.DisableCollisionChecks = cfg.DisableCollisionChecks
	r.AddObstacle(traffic.NewObstacle(r, obstacleAt))
	return r
}

// MakeVehicles places the ego, lead and merging vehicles on r, in that
// order, and returns the ego. Controlled traffic is routed to Destination.
func MakeVehicles(r *traffic.Road, cfg Config) (*traffic.Vehicle, error) {
	for _, index := range []road.LaneIndex{EgoLaneIndex, MergeLaneIndex, MergingLaneIndex} {
		if err := r.Network.Validate(index); err != nil {
			return nil, fmt.Errorf("scenario lanes: %w", err)
		}
	}
	egoLane, err := r.Network.Lane(EgoLaneIndex)
	if err != nil {
		return nil, fmt.Errorf("placing ego vehicle: %w", err)
	}
	ego := traffic.NewVehicle(r, egoLane.Position(egoOffset, 0), egoLane.HeadingAt(egoOffset), egoSpeed)
	r.AddVehicle(ego)

	newOther, err := traffic.Lookup(cfg.OtherVehiclesType)
	if err != nil {
		return nil, fmt.Errorf("other_vehicles_type: %w", err)
	}
	leadS := ego.Position[0] + leadGap
	lead := newOther(r, egoLane.Position(leadS, 0), egoLane.HeadingAt(leadS), leadSpeed)
	if err := planRoute(lead); err != nil {
		return nil, fmt.Errorf("lead vehicle: %w", err)
	}
	r.AddVehicle(lead)

	mergeLane, err := r.Network.Lane(MergeLaneIndex)
	if err != nil {
		return nil, fmt.Errorf("placing merging vehicle: %w", err)
	}
	merging := newOther(r, mergeLane.Position(mergingOffset, 0), mergeLane.HeadingAt(mergingOffset), mergingSpeed)
	merging.Body().TargetSpeed = mergingTarget
	if err := planRoute(merging); err != nil {
		return nil, fmt.Errorf("merging vehicle: %w", err)
	}
	r.AddVehicle(merging)

	return ego, nil
}

func planRoute(a traffic.Actor) error {
	c, ok := a.(traffic.Controller)
	if !ok {
		return nil
	}
	return c.Controlled().PlanRouteTo(Destination)
}
