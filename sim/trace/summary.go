package trace

// EpisodeSummary aggregates statistics from an EpisodeTrace.
type EpisodeSummary struct {
	Steps           int                `json:"steps"`
	TotalReward     float64            `json:"total_reward"`
	MeanReward      float64            `json:"mean_reward"`
	MeanSpeed       float64            `json:"mean_speed"`
	MaxX            float64            `json:"max_x"`
	Crashed         bool               `json:"crashed"`
	OffRoad         bool               `json:"off_road"`
	PassedMerge     bool               `json:"passed_merge"`
	Terminated      bool               `json:"terminated"`
	ComponentTotals map[string]float64 `json:"component_totals"` // component name → sum over steps
}

// Summarize computes aggregate statistics from an EpisodeTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(et *EpisodeTrace) *EpisodeSummary {
	summary := &EpisodeSummary{
		ComponentTotals: make(map[string]float64),
	}
	if et == nil || len(et.Steps) == 0 {
		return summary
	}

	totalSpeed := 0.0
	summary.MaxX = et.Steps[0].Ego.X
	for _, s := range et.Steps {
		summary.TotalReward += s.Reward
		totalSpeed += s.Ego.Speed
		if s.Ego.X > summary.MaxX {
			summary.MaxX = s.Ego.X
		}
		summary.Crashed = summary.Crashed || s.Ego.Crashed
		summary.OffRoad = summary.OffRoad || !s.Ego.OnRoad
		summary.Terminated = summary.Terminated || s.Terminated
		for name, v := range s.Components {
			summary.ComponentTotals[name] += v
		}
	}

	summary.Steps = len(et.Steps)
	summary.MeanReward = summary.TotalReward / float64(summary.Steps)
	summary.MeanSpeed = totalSpeed / float64(summary.Steps)
	summary.PassedMerge = et.Config.MergeEndX > 0 && summary.MaxX > et.Config.MergeEndX

	return summary
}
