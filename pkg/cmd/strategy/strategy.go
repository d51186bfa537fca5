package strategy

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/ingest"
	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing"
	"github.com/apexcoach/telemetry-coach/pkg/utils"
)

var (
	targetLaps   int
	tankCapacity float64
)

func NewStrategyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy <session-file>",
		Short: "plan fuel and pit stops for a race distance from practice data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrategy(args[0])
		},
	}
	cmd.Flags().IntVar(&targetLaps, "laps", 0, "race distance in laps (required)")
	cmd.Flags().Float64Var(&tankCapacity, "tank", 0, "tank capacity in liters (required)")
	//nolint:errcheck // flags exist, just registered above
	cmd.MarkFlagRequired("laps")
	//nolint:errcheck // flags exist, just registered above
	cmd.MarkFlagRequired("tank")
	return cmd
}

func runStrategy(path string) error {
	logger := setupLogger()
	defer logger.Sync()
	params, err := loadParams()
	if err != nil {
		return err
	}

	session, err := ingest.NewReader(ingest.WithLogger(logger.Named("ingest"))).ReadFile(path)
	if err != nil {
		return err
	}
	fingerprint, err := utils.SessionFingerprint(path)
	if err != nil {
		return err
	}
	proc := processing.NewSessionProcessor(
		processing.WithParams(params),
		processing.WithLogger(logger))
	res := proc.Process(session, fingerprint)

	plan, err := proc.Strategy(res, targetLaps, tankCapacity)
	if err != nil {
		return err
	}
	renderPlan(plan)
	for i := range plan.Alternatives {
		renderPlan(&plan.Alternatives[i])
	}
	return nil
}

func renderPlan(plan *model.StrategyPlan) {
	fmt.Printf("plan: %s\n", plan.Name)
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Target laps", plan.TargetLaps})
	t.AppendRow(table.Row{"Fuel per lap", fmt.Sprintf("%.2f l (incl. margin)", plan.FuelPerLap)})
	t.AppendRow(table.Row{"Laps per tank", plan.LapsPerTank})
	t.AppendRow(table.Row{"Fuel needed", fmt.Sprintf("%.1f l", plan.FuelNeeded)})
	t.AppendRow(table.Row{"Pit stops", len(plan.PitWindows)})
	t.AppendRow(table.Row{"Pit laps", fmt.Sprintf("%v", plan.PitWindows)})
	t.AppendRow(table.Row{"Simulated race time", fmt.Sprintf("%.1fs", plan.TotalTime)})
	t.Render()
}

func setupLogger() *log.Logger {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New("json", parseLogLevel(config.LogLevel, log.InfoLevel))
	default:
		logger = log.DevLogger(config.LogFilter, parseLogLevel(config.LogLevel, log.InfoLevel))
	}
	log.InitDefault(logger)
	return logger
}

func parseLogLevel(arg string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(arg)
	if err != nil {
		return defaultVal
	}
	return level
}

func loadParams() (*config.AnalysisParams, error) {
	if config.ParamsFile == "" {
		return config.DefaultAnalysisParams(), nil
	}
	return config.LoadAnalysisParams(config.ParamsFile)
}
