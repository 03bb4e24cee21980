package env

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merge-sim/merge-sim/sim/internal/testutil"
	"github.com/merge-sim/merge-sim/sim/road"
	"github.com/merge-sim/merge-sim/sim/traffic"
)

func TestMakeNetwork_Topology(t *testing.T) {
	n, _ := MakeNetwork()

	// THEN the edges are the highway chain followed by the ramp
	assert.Equal(t, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"j", "k"}, {"k", "b"}}, n.Edges())
	assert.Len(t, n.Lanes("a", "b"), 3)
	assert.Len(t, n.Lanes("b", "c"), 4)
	assert.Len(t, n.Lanes("c", "d"), 3)
	assert.Len(t, n.Lanes("j", "k"), 1)
	assert.Len(t, n.Lanes("k", "b"), 1)
	assert.Equal(t, []string{"b"}, n.Successors("k"))
	assert.Equal(t, 12, n.LaneCount())
}

func TestMakeNetwork_HighwayChainsSumTo460(t *testing.T) {
	n, _ := MakeNetwork()

	for id, y := range HighwayLanesY {
		total := 0.0
		for _, edge := range [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}} {
			lane := n.MustLane(road.LaneIndex{From: edge[0], To: edge[1], ID: id})
			total += lane.Length()
			_, r := lane.LocalCoordinates(orb.Point{lane.Length() / 2, y})
			assert.InDelta(t, 0, r, 1e-9, "lane %d of %s→%s is not at y=%v", id, edge[0], edge[1], y)
		}
		assert.InDelta(t, 460, total, 1e-9)
	}
	assert.InDelta(t, 460, SegmentLengths[0]+SegmentLengths[1]+SegmentLengths[2]+SegmentLengths[3], 1e-9)
}

func TestMakeNetwork_MergeRampGeometry(t *testing.T) {
	n, obstacleAt := MakeNetwork()

	ljk := n.MustLane(MergeLaneIndex)
	testutil.AssertPointNear(t, "j start", orb.Point{0, 14.5}, ljk.Position(0, 0), 1e-9)
	testutil.AssertPointNear(t, "j end", orb.Point{150, 14.5}, ljk.Position(150, 0), 1e-9)
	assert.True(t, ljk.Forbidden())

	lkb := n.MustLane(road.LaneIndex{From: "k", To: "b", ID: 0})
	testutil.AssertPointNear(t, "k", orb.Point{150, 14.5}, lkb.Position(0, 0), 1e-9)
	testutil.AssertPointNear(t, "b", orb.Point{230, 8}, lkb.Position(80, 0), 1e-9)
	assert.True(t, lkb.Forbidden())

	lbc := n.MustLane(road.LaneIndex{From: "b", To: "c", ID: 3})
	testutil.AssertPointNear(t, "merge start", orb.Point{230, 8}, lbc.Position(0, 0), 1e-9)
	assert.InDelta(t, 80, lbc.Length(), 1e-9)
	assert.Equal(t, [2]road.LineType{road.LineNone, road.LineContinuousLine}, lbc.LineTypes())
	testutil.AssertPointNear(t, "obstacle", orb.Point{310, 8}, obstacleAt, 1e-9)
}

func TestMakeNetwork_LineTypes(t *testing.T) {
	n, _ := MakeNetwork()
	c, s, none := road.LineContinuousLine, road.LineStriped, road.LineNone

	assert.Equal(t, [2]road.LineType{c, s}, n.MustLane(road.LaneIndex{From: "a", To: "b", ID: 0}).LineTypes())
	assert.Equal(t, [2]road.LineType{none, s}, n.MustLane(road.LaneIndex{From: "a", To: "b", ID: 1}).LineTypes())
	assert.Equal(t, [2]road.LineType{none, c}, n.MustLane(road.LaneIndex{From: "a", To: "b", ID: 2}).LineTypes())
	assert.Equal(t, [2]road.LineType{none, s}, n.MustLane(road.LaneIndex{From: "b", To: "c", ID: 2}).LineTypes())
	assert.Equal(t, [2]road.LineType{none, c}, n.MustLane(road.LaneIndex{From: "c", To: "d", ID: 2}).LineTypes())
}

func TestMakeRoad_PlacesObstacle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableCollisionChecks = true
	cfg.ShowTrajectories = true

	r := MakeRoad(cfg, rand.New(rand.NewSource(1)))

	require.Len(t, r.Obstacles, 1)
	testutil.AssertPointNear(t, "obstacle", orb.Point{310, 8}, r.Obstacles[0].Position, 1e-9)
	assert.Empty(t, r.Vehicles)
	assert.True(t, r.DisableCollisionChecks)
	assert.True(t, r.RecordHistory)
}

func TestMakeVehicles_Placement(t *testing.T) {
	// GIVEN the default road
	cfg := DefaultConfig()
	r := MakeRoad(cfg, rand.New(rand.NewSource(1)))

	// WHEN the vehicles are created
	ego, err := MakeVehicles(r, cfg)
	require.NoError(t, err)

	// THEN ego, lead and merging vehicles are present in that order
	require.Len(t, r.Vehicles, 3)
	assert.Same(t, ego, r.Vehicles[0].Kinematics())

	testutil.AssertPointNear(t, "ego", orb.Point{30, 4}, ego.Position, 1e-9)
	assert.Equal(t, EgoLaneIndex, ego.LaneIndex)
	assert.Equal(t, 30.0, ego.Speed)
	_, egoControlled := r.Vehicles[0].(traffic.Controller)
	assert.False(t, egoControlled)

	lead := r.Vehicles[1].Body()
	testutil.AssertPointNear(t, "lead", orb.Point{80, 4}, lead.Position, 1e-9)
	assert.Equal(t, EgoLaneIndex, lead.LaneIndex)
	assert.Equal(t, 30.0, lead.Speed)
	_, isIDM := r.Vehicles[1].(*traffic.IDMVehicle)
	assert.True(t, isIDM)

	merging := r.Vehicles[2].Body()
	testutil.AssertPointNear(t, "merging", orb.Point{110, 14.5}, merging.Position, 1e-9)
	assert.Equal(t, MergeLaneIndex, merging.LaneIndex)
	assert.Equal(t, 20.0, merging.Speed)
	assert.Equal(t, 30.0, merging.TargetSpeed)
}

func TestMakeVehicles_UnknownType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OtherVehiclesType = "LinearVehicle"
	r := MakeRoad(cfg, rand.New(rand.NewSource(1)))

	_, err := MakeVehicles(r, cfg)

	assert.ErrorIs(t, err, traffic.ErrUnknownVehicleType)
}

func TestMakeVehicles_RoutesTrafficToDestination(t *testing.T) {
	r, _ := newScenarioRoad(t)

	lead := r.Vehicles[1].(traffic.Controller).Controlled()
	merging := r.Vehicles[2].(traffic.Controller).Controlled()

	assert.Equal(t, []string{"b", "c", "d"}, lead.Route)
	assert.Equal(t, []string{"k", "b", "c", "d"}, merging.Route)
}

func TestMakeVehicles_KinematicTrafficIsNotRouted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OtherVehiclesType = "Vehicle"
	r := MakeRoad(cfg, rand.New(rand.NewSource(1)))

	_, err := MakeVehicles(r, cfg)

	require.NoError(t, err)
	_, controlled := r.Vehicles[2].(traffic.Controller)
	assert.False(t, controlled)
}

func TestMakeVehicles_MissingScenarioLane(t *testing.T) {
	// GIVEN a network with the highway but without the ramp
	n := road.NewNetwork()
	for _, y := range HighwayLanesY {
		n.AddLane("a", "b", road.NewStraightLane(orb.Point{0, y}, orb.Point{230, y}, road.DefaultWidth, [2]road.LineType{}, false))
	}
	r := traffic.NewRoad(n, rand.New(rand.NewSource(1)), false)

	// WHEN the vehicles are placed
	_, err := MakeVehicles(r, DefaultConfig())

	// THEN placement fails before any vehicle is added
	assert.ErrorIs(t, err, road.ErrUnknownLane)
	assert.Empty(t, r.Vehicles)
}
