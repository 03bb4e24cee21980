package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/merge-sim/merge-sim/sim"
	"github.com/merge-sim/merge-sim/sim/agent"
	"github.com/merge-sim/merge-sim/sim/env"
	"github.com/merge-sim/merge-sim/sim/trace"
)

// episodeOptions are the run command settings beyond the scenario config.
type episodeOptions struct {
	Seed       int64
	Policy     string
	MaxSteps   int
	TraceLevel string
	TraceOut   string
}

func (o episodeOptions) validate() error {
	if !agent.ValidPolicies[o.Policy] {
		return fmt.Errorf("unknown policy %q; valid options: idle, random", o.Policy)
	}
	if o.MaxSteps <= 0 {
		return fmt.Errorf("--max-steps must be positive, got %d", o.MaxSteps)
	}
	if !trace.IsValidTraceLevel(o.TraceLevel) {
		return fmt.Errorf("unknown trace level %q; valid options: none, steps", o.TraceLevel)
	}
	return nil
}

// runReset resets a fresh environment and prints the observation and info.
func runReset(w io.Writer, cfg env.Config, seed int64) error {
	e, err := env.New(cfg)
	if err != nil {
		return err
	}
	obs, info, err := e.Reset(seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "observation:\n%v\n", mat.Formatted(obs, mat.Squeeze()))
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding info: %w", err)
	}
	fmt.Fprintf(w, "info:\n%s\n", data)
	return nil
}

// runEpisode drives one episode with a scripted policy until it terminates,
// is truncated or reaches MaxSteps, then prints the summary as JSON.
func runEpisode(w io.Writer, cfg env.Config, opts episodeOptions) (*trace.EpisodeSummary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	e, err := env.New(cfg)
	if err != nil {
		return nil, err
	}
	obs, _, err := e.Reset(opts.Seed)
	if err != nil {
		return nil, err
	}
	policy, err := agent.NewPolicy(opts.Policy, e.ActionDim(), e.RNG().ForSubsystem(sim.SubsystemPolicy))
	if err != nil {
		return nil, err
	}

	// Steps are always recorded for the summary; the level only gates export.
	et := trace.NewEpisodeTrace(trace.TraceConfig{
		Level:     trace.TraceLevelSteps,
		Seed:      opts.Seed,
		MergeEndX: env.SegmentLengths[0] + env.SegmentLengths[1] + env.SegmentLengths[2],
	})
	for step := 1; step <= opts.MaxSteps; step++ {
		action := policy.Act(obs)
		res, err := e.Step(action)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		obs = res.Observation
		et.RecordStep(stepRecord(e, action, res))
		if res.Terminated || res.Truncated {
			logrus.Infof("episode ended at step %d (terminated=%v, truncated=%v)", step, res.Terminated, res.Truncated)
			break
		}
	}

	summary := trace.Summarize(et)
	if opts.TraceOut != "" {
		if trace.TraceLevel(opts.TraceLevel) == trace.TraceLevelSteps {
			if err := writeTrace(opts.TraceOut, et); err != nil {
				return nil, err
			}
			logrus.Infof("wrote %d step records to %s", len(et.Steps), opts.TraceOut)
		} else {
			logrus.Warnf("--trace-out %s ignored: --trace is %q", opts.TraceOut, opts.TraceLevel)
		}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}
	fmt.Fprintf(w, "=== Episode Summary ===\n%s\n", data)
	return summary, nil
}

func stepRecord(e *env.Env, action []float64, res env.StepResult) trace.StepRecord {
	ego := e.Vehicle()
	return trace.StepRecord{
		Step:       e.Steps(),
		Time:       e.Time(),
		Action:     action,
		Reward:     res.Reward,
		Components: res.Info.Rewards,
		Ego: trace.EgoState{
			X:       ego.Position[0],
			Y:       ego.Position[1],
			Heading: ego.Heading,
			Speed:   ego.Speed,
			Lane:    ego.LaneIndex.String(),
			OnRoad:  ego.OnRoad(),
			Crashed: ego.Crashed,
		},
		Terminated: res.Terminated,
		Truncated:  res.Truncated,
	}
}

func writeTrace(path string, et *trace.EpisodeTrace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := trace.WriteMsgpack(f, et); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
