package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merge-sim/merge-sim/sim/env"
	"github.com/merge-sim/merge-sim/sim/trace"
)

func TestLoadScenarioConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := loadScenarioConfig(env.MergeEnvID, "")
	require.NoError(t, err)
	assert.Equal(t, env.DefaultConfig(), cfg)
}

func TestLoadScenarioConfig_UnknownEnvironment(t *testing.T) {
	_, err := loadScenarioConfig("merge-v0", "")
	assert.ErrorContains(t, err, "unknown environment")
}

func TestLoadScenarioConfig_Preset(t *testing.T) {
	cfg, err := loadScenarioConfig(env.MergeEnvID, "../configs/merge.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Observation.VehiclesCount)
	assert.Equal(t, "highway_env.vehicle.behavior.IDMVehicle", cfg.OtherVehiclesType)
}

func TestLoadScenarioConfig_InvalidOverlay(t *testing.T) {
	// GIVEN an overlay that parses but fails validation
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy_frequency: 0\n"), 0o644))

	// WHEN loaded
	_, err := loadScenarioConfig(env.MergeEnvID, path)

	// THEN validation rejects it
	assert.ErrorContains(t, err, "must be positive")
}

func TestWriteDefaults_ParsesBackToDefaults(t *testing.T) {
	// GIVEN the defaults printed as YAML
	var buf bytes.Buffer
	require.NoError(t, writeDefaults(&buf))

	// WHEN parsed back strictly onto an empty config
	cfg, err := env.ParseConfig(buf.Bytes(), env.Config{})

	// THEN every key is known and the values survive
	require.NoError(t, err)
	assert.Equal(t, env.DefaultConfig(), cfg)
}

func TestRunReset_PrintsObservationAndInfo(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, runReset(&buf, env.DefaultConfig(), 42))

	output := buf.String()
	assert.Contains(t, output, "observation:")
	assert.Contains(t, output, `"speed": 30`)
	assert.Contains(t, output, `"merging_speed_reward"`)
}

func TestRunEpisode_IdlePolicyTerminates(t *testing.T) {
	// GIVEN the default scenario and the idle policy
	var buf bytes.Buffer
	opts := episodeOptions{Seed: 1, Policy: "idle", MaxSteps: 40, TraceLevel: "none"}

	// WHEN an episode is run
	summary, err := runEpisode(&buf, env.DefaultConfig(), opts)

	// THEN it ends well before the step budget with a printed summary
	require.NoError(t, err)
	assert.True(t, summary.Terminated)
	assert.LessOrEqual(t, summary.Steps, 12)
	assert.Contains(t, buf.String(), "Episode Summary")
	assert.Contains(t, summary.ComponentTotals, env.HighSpeedComponent)
}

func TestRunEpisode_MaxStepsBoundsEpisode(t *testing.T) {
	var buf bytes.Buffer
	opts := episodeOptions{Seed: 1, Policy: "random", MaxSteps: 2, TraceLevel: "none"}

	summary, err := runEpisode(&buf, env.DefaultConfig(), opts)

	require.NoError(t, err)
	assert.LessOrEqual(t, summary.Steps, 2)
}

func TestRunEpisode_WritesTrace(t *testing.T) {
	// GIVEN step tracing to a file
	path := filepath.Join(t.TempDir(), "episode.msgpack")
	opts := episodeOptions{Seed: 9, Policy: "idle", MaxSteps: 3, TraceLevel: "steps", TraceOut: path}

	// WHEN an episode is run
	summary, err := runEpisode(&bytes.Buffer{}, env.DefaultConfig(), opts)
	require.NoError(t, err)

	// THEN the trace file decodes to the same summary
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	et, err := trace.ReadMsgpack(f)
	require.NoError(t, err)
	assert.Equal(t, int64(9), et.Config.Seed)
	assert.Len(t, et.Steps, summary.Steps)
	assert.Equal(t, summary, trace.Summarize(et))
}

func TestRunEpisode_TraceOutIgnoredAtLevelNone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episode.msgpack")
	opts := episodeOptions{Seed: 9, Policy: "idle", MaxSteps: 1, TraceLevel: "none", TraceOut: path}

	_, err := runEpisode(&bytes.Buffer{}, env.DefaultConfig(), opts)

	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEpisodeOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts episodeOptions
	}{
		{"unknown policy", episodeOptions{Policy: "greedy", MaxSteps: 1}},
		{"zero steps", episodeOptions{Policy: "idle", MaxSteps: 0}},
		{"unknown trace level", episodeOptions{Policy: "idle", MaxSteps: 1, TraceLevel: "decisions"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.opts.validate())
		})
	}
}
