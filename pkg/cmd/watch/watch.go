package watch

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/ingest"
	"github.com/apexcoach/telemetry-coach/pkg/processing"
	"github.com/apexcoach/telemetry-coach/pkg/service"
	"github.com/apexcoach/telemetry-coach/pkg/utils"
	"github.com/apexcoach/telemetry-coach/pkg/utils/broadcast"
	"github.com/apexcoach/telemetry-coach/pkg/utils/cache/loadercache"
	"github.com/apexcoach/telemetry-coach/pkg/watch"
)

func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "monitor a telemetry folder and analyze new session exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch()
		},
	}
	cmd.Flags().StringVar(&config.TelemetryDir, "dir",
		".",
		"folder containing decoded telemetry exports")
	cmd.Flags().StringVar(&config.SettleDelay, "settle-delay",
		"2s",
		"duration to wait after a file change before ingesting")
	return cmd
}

//nolint:funlen // wiring the watch loop reads best in one place
func runWatch() error {
	logger := setupLogger()
	defer logger.Sync()
	params, err := loadParams()
	if err != nil {
		return err
	}
	settle, err := time.ParseDuration(config.SettleDelay)
	if err != nil {
		logger.Warn("invalid settle-delay, using 2s", log.ErrorField(err))
		settle = 2 * time.Second
	}

	proc := processing.NewSessionProcessor(
		processing.WithParams(params),
		processing.WithLogger(logger))
	reader := ingest.NewReader(ingest.WithLogger(logger.Named("ingest")))
	registry := service.NewRegistry()

	// results are cached per file path; a change event invalidates the
	// entry so the settled handler recomputes with the fresh fingerprint
	results := loadercache.New(
		loadercache.WithLogger[string, processing.Result](logger.Named("cache")),
		loadercache.WithLoader[string, processing.Result](
			func(path string) (*processing.Result, error) {
				session, lerr := reader.ReadFile(path)
				if lerr != nil {
					return nil, lerr
				}
				fingerprint, lerr := utils.SessionFingerprint(path)
				if lerr != nil {
					return nil, lerr
				}
				return proc.Process(session, fingerprint), nil
			}))

	// fan processed results out to the registry and the console summary;
	// neither consumer can stall the watch loop
	source := make(chan *processing.Result)
	server := broadcast.NewBroadcastServer("results", source,
		broadcast.WithLogger[*processing.Result](logger.Named("broadcast")))
	defer server.Close()
	summaryCh := server.Subscribe()
	dashboardCh := server.Subscribe()
	go func() {
		for res := range summaryCh {
			printSummary(res, registry)
		}
	}()
	go func() {
		for res := range dashboardCh {
			if logger.DebugEnabled() {
				logger.Debug("dashboard",
					log.String("json", oj.JSON(service.BuildDashboard(res))))
			}
		}
	}()

	handler := func(ctx context.Context, path string) {
		results.Invalidate(ctx, path)
		res, herr := results.Get(ctx, path)
		if herr != nil {
			logger.Error("could not process session export",
				log.String("file", path), log.ErrorField(herr))
			return
		}
		registry.Register(res)
		source <- res
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.AddToContext(ctx, logger)

	monitor := watch.NewMonitor(config.TelemetryDir, handler,
		watch.WithSettleDelay(settle),
		watch.WithLogger(logger.Named("watch")))
	return monitor.Run(ctx)
}

func printSummary(res *processing.Result, registry *service.Registry) {
	info := res.Session.Info
	if res.SessionScore != nil {
		fmt.Printf("%s / %s: best %.3fs, overall %.1f/10, %d laps\n",
			info.Track, info.Car,
			res.SessionScore.BestLapTime, res.SessionScore.Overall, len(res.Laps))
	} else {
		fmt.Printf("%s / %s: no scorable laps\n", info.Track, info.Car)
	}
	for _, ins := range service.CoachingInsights(res) {
		fmt.Printf("  [%s] %s\n", ins.Category, ins.Message)
	}
	stats := service.ComputeStatistics(registry.All())
	if stats.BestLap != nil {
		fmt.Printf("  session %d, all-time best %.3fs (%s, %s)\n",
			stats.SessionCount, stats.BestLap.Time, stats.BestLap.Track, stats.BestLap.Car)
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
