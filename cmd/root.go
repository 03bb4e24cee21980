package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/merge-sim/merge-sim/sim/env"
)

var (
	// CLI flags shared by reset and run
	envID      string // Environment identifier
	configPath string // YAML overlay onto the scenario defaults
	seed       int64  // Episode seed
	logLevel   string // Log verbosity level

	// CLI flags for run
	policyName string // Scripted policy driving the ego
	maxSteps   int    // Upper bound on policy steps
	traceLevel string // Trace verbosity
	traceOut   string // Msgpack trace output path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "merge-sim",
	Short: "Highway merge driving scenario",
}

// setupLogging parses --log and applies it to the package-level logger.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resetCmd builds the scenario and prints the first observation and info
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the scenario and print the observation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg, err := loadScenarioConfig(envID, configPath)
		if err != nil {
			logrus.Fatalf("unable to load scenario config; %v", err)
		}
		logrus.Infof("Resetting %s with seed=%d", envID, seed)
		if err := runReset(os.Stdout, cfg, seed); err != nil {
			logrus.Fatalf("reset failed; %v", err)
		}
	},
}

// runCmd drives one episode with a scripted policy
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one episode with a scripted policy",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg, err := loadScenarioConfig(envID, configPath)
		if err != nil {
			logrus.Fatalf("unable to load scenario config; %v", err)
		}
		logrus.Infof("Starting episode with policy=%s, seed=%d, max-steps=%d, frames/step=%d",
			policyName, seed, maxSteps, cfg.SimulationFrequency/cfg.PolicyFrequency)
		opts := episodeOptions{
			Seed:       seed,
			Policy:     policyName,
			MaxSteps:   maxSteps,
			TraceLevel: traceLevel,
			TraceOut:   traceOut,
		}
		if _, err := runEpisode(os.Stdout, cfg, opts); err != nil {
			logrus.Fatalf("episode failed; %v", err)
		}
		logrus.Info("Episode complete.")
	},
}

// defaultsCmd prints the default scenario configuration
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default scenario configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDefaults(os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{resetCmd, runCmd} {
		c.Flags().StringVar(&envID, "env", env.MergeEnvID, "Environment identifier")
		c.Flags().StringVar(&configPath, "config", "", "YAML config overlay (e.g. configs/merge.yaml)")
		c.Flags().Int64Var(&seed, "seed", 42, "Episode seed")
		c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}

	runCmd.Flags().StringVar(&policyName, "policy", "idle", "Scripted policy (idle, random)")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 40, "Maximum number of policy steps")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, steps)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the step trace as msgpack to this file (requires --trace steps)")

	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
