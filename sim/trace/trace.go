package trace

// TraceLevel controls the verbosity of episode tracing.
type TraceLevel string

const (
	// TraceLevelNone keeps no step records; RecordStep is a no-op.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSteps captures one record per policy step.
	TraceLevelSteps TraceLevel = "steps"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelSteps: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level     TraceLevel `msgpack:"level"`
	Seed      int64      `msgpack:"seed"`
	MergeEndX float64    `msgpack:"merge_end_x"` // longitudinal end of the merge section; 0 disables PassedMerge
}

// EpisodeTrace collects step records during one episode.
type EpisodeTrace struct {
	Config TraceConfig  `msgpack:"config"`
	Steps  []StepRecord `msgpack:"steps"`
}

// NewEpisodeTrace creates an EpisodeTrace ready for recording.
func NewEpisodeTrace(config TraceConfig) *EpisodeTrace {
	return &EpisodeTrace{
		Config: config,
		Steps:  make([]StepRecord, 0),
	}
}

// Enabled reports whether records are kept.
func (et *EpisodeTrace) Enabled() bool {
	return et != nil && et.Config.Level == TraceLevelSteps
}

// RecordStep appends a step record. It is a no-op when tracing is disabled.
func (et *EpisodeTrace) RecordStep(record StepRecord) {
	if !et.Enabled() {
		return
	}
	et.Steps = append(et.Steps, record)
}
