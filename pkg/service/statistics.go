package service

import (
	"github.com/samber/lo"

	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing"
)

// ComputeStatistics aggregates the registered sessions. BestLap is nil
// until at least one session produced a timed lap; an all-time best of
// zero would read as impossible rather than unknown.
func ComputeStatistics(results []*processing.Result) *model.Statistics {
	stats := &model.Statistics{
		SessionCount: len(results),
		Tracks: lo.Uniq(lo.Map(results, func(r *processing.Result, _ int) string {
			return r.Session.Info.Track
		})),
		Cars: lo.Uniq(lo.Map(results, func(r *processing.Result, _ int) string {
			return r.Session.Info.Car
		})),
	}
	for _, r := range results {
		if r.SessionScore == nil || r.SessionScore.BestLapTime <= 0 {
			continue
		}
		if stats.BestLap == nil || r.SessionScore.BestLapTime < stats.BestLap.Time {
			stats.BestLap = &model.BestLap{
				Time:  r.SessionScore.BestLapTime,
				Track: r.Session.Info.Track,
				Car:   r.Session.Info.Car,
			}
		}
	}
	return stats
}
