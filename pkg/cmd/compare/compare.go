package compare

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

func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <reference-file> <other-file>",
		Short: "compare best laps of two sessions on a shared distance grid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(args[0], args[1])
		},
	}
	return cmd
}

func runCompare(refPath, otherPath string) error {
	logger := setupLogger()
	defer logger.Sync()
	params, err := loadParams()
	if err != nil {
		return err
	}
	proc := processing.NewSessionProcessor(
		processing.WithParams(params),
		processing.WithLogger(logger))

	ref, err := processFile(proc, refPath, logger)
	if err != nil {
		return err
	}
	other, err := processFile(proc, otherPath, logger)
	if err != nil {
		return err
	}

	cmp, err := proc.Compare(ref, other)
	if err != nil {
		return err
	}
	renderComparison(ref, other, cmp)
	return nil
}

func processFile(
	proc *processing.SessionProcessor,
	path string,
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
	return proc.Process(session, fingerprint), nil
}

func renderComparison(ref, other *processing.Result, cmp *model.ComparisonResult) {
	fmt.Printf("%s: %s (lap %d) vs %s (lap %d)\n",
		ref.Session.Info.Track,
		ref.Session.Info.Driver, ref.SessionScore.BestLapNum,
		other.Session.Info.Driver, other.SessionScore.BestLapNum)

	finalDelta := cmp.TimeDelta[len(cmp.TimeDelta)-1]
	maxGain, maxLoss, gainAt, lossAt := 0.0, 0.0, 0.0, 0.0
	for i := 1; i < len(cmp.TimeDelta); i++ {
		d := cmp.TimeDelta[i] - cmp.TimeDelta[i-1]
		if d > maxGain {
			maxGain, gainAt = d, cmp.DistanceGrid[i]
		}
		if d < maxLoss {
			maxLoss, lossAt = d, cmp.DistanceGrid[i]
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Final delta", fmt.Sprintf("%+.3fs", finalDelta)})
	t.AppendRow(table.Row{"Biggest gain", fmt.Sprintf("%+.3fs at %.0f%% lap distance", maxGain, gainAt*100)})
	t.AppendRow(table.Row{"Biggest loss", fmt.Sprintf("%+.3fs at %.0f%% lap distance", maxLoss, lossAt*100)})
	t.AppendRow(table.Row{"Grid points", len(cmp.DistanceGrid)})
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
