package env

import (
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/merge-sim/merge-sim/sim/traffic"
)

// Reward component names, as reported in Info.Rewards.
const (
	CollisionComponent    = "collision_reward"
	RightLaneComponent    = "right_lane_reward"
	HighSpeedComponent    = "high_speed_reward"
	LaneChangeComponent   = "lane_change_reward"
	MergingSpeedComponent = "merging_speed_reward"
)

// reward is the weighted sum of speed, acceleration, forward progress and
// collision. Each term is added with its configured sign.
func reward(cfg *Config, ego *traffic.Vehicle, action []float64) float64 {
	return cfg.SpeedReward*ego.Speed +
		cfg.AccelPenalty*math.Abs(actionAt(action, 0)) +
		cfg.ForwardReward*ego.Position[0] +
		cfg.CollisionReward*boolToFloat(ego.Crashed)
}

// rewards returns the unweighted reward components. They are not folded
// into reward.
func rewards(cfg *Config, r *traffic.Road, ego *traffic.Vehicle, action []float64) map[string]float64 {
	return map[string]float64{
		CollisionComponent:    boolToFloat(ego.Crashed),
		RightLaneComponent:    float64(ego.LaneIndex.ID) / 1,
		HighSpeedComponent:    lmap(ego.Speed, rangeOf(cfg.RewardSpeedRange), [2]float64{0, 1}),
		LaneChangeComponent:   -math.Abs(actionAt(action, 1)),
		MergingSpeedComponent: mergingSpeedDeficit(r),
	}
}

// mergingSpeedDeficit sums the relative speed deficit of controlled vehicles
// on the merging lane. Vehicles with a zero target speed are skipped.
func mergingSpeedDeficit(r *traffic.Road) float64 {
	merging := lo.Filter(r.Vehicles, func(a traffic.Actor, _ int) bool {
		_, controlled := a.(traffic.Controller)
		return controlled && a.Body().LaneIndex == MergingLaneIndex
	})
	return lo.SumBy(merging, func(a traffic.Actor) float64 {
		v := a.Body()
		if v.TargetSpeed == 0 {
			logrus.Warnf("skipping merging speed term for vehicle at %v: zero target speed", v.Position)
			return 0
		}
		return (v.TargetSpeed - v.Speed) / v.TargetSpeed
	})
}

func actionAt(action []float64, i int) float64 {
	if i < len(action) {
		return action[i]
	}
	return 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
