package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/doomsat/internal/config"
	"github.com/ppiankov/doomsat/internal/scenario"
)

var (
	runConfig      string
	runScenario    string
	runEvery       int
	runJSONL       string
	runFramePath   string
	runSteps       int
	runTickRepeat  int
	runAutoRestart bool
	runPolicy      string
	runRunID       string
	runEpisodeID   string
	runAlgoID      string
)

func init() {
	rootCmd.AddCommand(runCmd)
	f := runCmd.Flags()
	f.StringVar(&runConfig, "config", "", "Path to config YAML (default ./doomsat.yaml)")
	f.StringVar(&runScenario, "scenario", "", "Scripted episode file driving the engine (required)")
	f.IntVar(&runEvery, "every", 0, "Record every N steps (0 disables recording)")
	f.StringVar(&runJSONL, "t0-jsonl", "", "Tier-0 JSON-lines log path")
	f.StringVar(&runFramePath, "fprime-frames", "", "Binary frame stream path")
	f.IntVar(&runSteps, "steps", 0, "Stop after N steps (0 = until episodes end)")
	f.IntVar(&runTickRepeat, "tick-repeat", 1, "Engine tics per action")
	f.BoolVar(&runAutoRestart, "auto-restart", false, "Start a new episode when one ends")
	f.StringVar(&runPolicy, "policy", "", "Action policy (idle|sweep|script)")
	f.StringVar(&runRunID, "run-id", "", "Override session run_id")
	f.StringVar(&runEpisodeID, "episode-id", "", "Override session episode_id")
	f.StringVar(&runAlgoID, "algo-id", "", "Override session algo_id")
	runCmd.MarkFlagRequired("scenario")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a recording session",
	Long: "Loads configuration (file, then DOOMSAT_* environment, then flags), drives\n" +
		"the scripted engine and records telemetry. Prints each episode summary\n" +
		"as JSON. Exits 1 if a sink failed during the session.",
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfig)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.Default()
	if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("log-format") {
		if l, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err == nil {
			logger = l
		}
	}

	s, err := scenario.Load(runScenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := scenario.Execute(ctx, s, cfg, logger)
	if err != nil {
		return err
	}

	for _, sum := range out.Result.Summaries {
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	logger.Info("session done", "steps", out.Result.Steps, "records", out.Stats.Records,
		"frames", out.Stats.Frames, "interrupted", out.Result.Interrupted)

	if out.SinkErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAILED: sink error: %v\n", out.SinkErr)
		return errFailed
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("every") {
		cfg.Recording.Every = runEvery
	}
	if f.Changed("t0-jsonl") {
		cfg.Recording.JSONL = runJSONL
	}
	if f.Changed("fprime-frames") {
		cfg.Recording.Frames = runFramePath
	}
	if f.Changed("steps") {
		cfg.Run.Steps = runSteps
	}
	if f.Changed("tick-repeat") {
		cfg.Run.TickRepeat = runTickRepeat
	}
	if f.Changed("auto-restart") {
		cfg.Run.AutoRestart = runAutoRestart
	}
	if f.Changed("policy") {
		cfg.Run.Policy = runPolicy
	}
	if runRunID != "" {
		cfg.Session.RunID = runRunID
	}
	if runEpisodeID != "" {
		cfg.Session.EpisodeID = runEpisodeID
	}
	if runAlgoID != "" {
		cfg.Session.AlgoID = runAlgoID
	}
}
