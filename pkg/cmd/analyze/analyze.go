package analyze

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/ingest"
	"github.com/apexcoach/telemetry-coach/pkg/processing"
	"github.com/apexcoach/telemetry-coach/pkg/service"
	"github.com/apexcoach/telemetry-coach/pkg/utils"
)

var jsonOutput bool

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <session-file>",
		Short: "analyze one session export and print scores, setup advice and insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(args[0])
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the full result as JSON")
	return cmd
}

func runAnalyze(path string) error {
	logger := setupLogger()
	defer logger.Sync()
	params, err := loadParams()
	if err != nil {
		return err
	}

	res, err := processFile(path, params, logger)
	if err != nil {
		return err
	}

	if jsonOutput {
		fmt.Println(oj.JSON(service.BuildDashboard(res), 2))
		return nil
	}
	renderSession(res)
	renderLaps(res)
	renderSetup(res)
	renderInsights(res)
	return nil
}

func processFile(
	path string,
	params *config.AnalysisParams,
	logger *log.Logger,
) (*processing.Result, error) {
	session, err := ingest.NewReader(ingest.WithLogger(logger.Named("ingest"))).ReadFile(path)
	if err != nil {
		return nil, err
	}
	fingerprint, err := utils.SessionFingerprint(path)
	if err != nil {
		return nil, err
	}
	proc := processing.NewSessionProcessor(
		processing.WithParams(params),
		processing.WithLogger(logger))
	return proc.Process(session, fingerprint), nil
}

func renderSession(res *processing.Result) {
	info := res.Session.Info
	fmt.Printf("%s / %s / %s\n", info.Track, info.Car, info.Driver)
	if res.SessionScore == nil {
		fmt.Println("no session score available")
		renderUnavailable(res)
		return
	}
	s := res.SessionScore
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Overall", fmt.Sprintf("%.1f / 10", s.Overall)})
	t.AppendRow(table.Row{"Best lap", fmt.Sprintf("%.3fs (lap %d)", s.BestLapTime, s.BestLapNum)})
	t.AppendRow(table.Row{"Theoretical best", fmt.Sprintf("%.3fs", s.TheoreticalBest)})
	if _, off := res.Unavailable[processing.CapConsistency]; off {
		t.AppendRow(table.Row{"Consistency", "n/a"})
	} else {
		t.AppendRow(table.Row{"Consistency", fmt.Sprintf("%.1f / 10 (%s)", s.ConsistencyRating, s.Trend)})
	}
	t.AppendRow(table.Row{"Braking efficiency", fmt.Sprintf("%.0f%%", s.BrakingEfficiency*100)})
	t.Render()
	renderUnavailable(res)
}

func renderLaps(res *processing.Result) {
	if len(res.LapScores) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Lap", "Time", "Rating", "Trend", "Corners", "Zones"})
	// scores skip untimed laps, so look classification up by lap number
	lapIdx := make(map[int]int, len(res.Laps))
	for i, lap := range res.Laps {
		lapIdx[lap.Num] = i
	}
	for _, ps := range res.LapScores {
		corners, zones := "-", "-"
		if i, ok := lapIdx[ps.LapNum]; ok && res.Corners[i] != nil {
			corners = fmt.Sprintf("%d", len(res.Corners[i]))
			zones = fmt.Sprintf("%d", len(res.Zones[i]))
		}
		t.AppendRow(table.Row{
			ps.LapNum,
			fmt.Sprintf("%.3f", ps.LapTime),
			fmt.Sprintf("%.1f", ps.ConsistencyRating),
			string(ps.Trend),
			corners,
			zones,
		})
	}
	t.Render()
}

func renderSetup(res *processing.Result) {
	if len(res.Setup) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Parameter", "Suggestion", "Confidence", "Expected effect"})
	for _, rec := range res.Setup {
		t.AppendRow(table.Row{
			rec.Parameter,
			rec.SuggestedChange,
			fmt.Sprintf("%.0f%%", rec.Confidence*100),
			rec.ExpectedEffect,
		})
	}
	t.Render()
}

func renderInsights(res *processing.Result) {
	for _, ins := range service.CoachingInsights(res) {
		fmt.Printf("[%s] %s (%s=%.3f)\n", ins.Category, ins.Message, ins.Metric, ins.Value)
	}
}

func renderUnavailable(res *processing.Result) {
	for c, reason := range res.Unavailable {
		fmt.Printf("unavailable: %s (%s)\n", c, reason)
	}
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
