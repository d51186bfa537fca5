package service

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing"
	"github.com/apexcoach/telemetry-coach/pkg/processing/features"
)

// AdvancedMetrics computes the per-lap G-force and technique aggregates.
// Laps whose features or classification are unavailable are skipped.
func AdvancedMetrics(res *processing.Result) []model.AdvancedLapMetrics {
	ret := make([]model.AdvancedLapMetrics, 0, len(res.Laps))
	for i, lap := range res.Laps {
		lf := res.Features[i]
		if lf == nil {
			continue
		}
		m := model.AdvancedLapMetrics{
			LapNum:           lap.Num,
			MaxCombinedG:     lf.Aggregates.MaxCombinedG,
			CornerCount:      len(res.Corners[i]),
			BrakingZoneCount: len(res.Zones[i]),
			TrailBrakingTime: lf.Aggregates.ThrottleBrakeOverlap,
		}
		var combSum float64
		for j := range lf.Combined {
			m.MaxLatG = math.Max(m.MaxLatG, math.Abs(lf.LatG[j]))
			m.MaxLonG = math.Max(m.MaxLonG, math.Abs(lf.LonG[j]))
			combSum += lf.Combined[j]
		}
		m.AvgCombinedG = combSum / float64(len(lf.Combined))
		m.CorneringEfficiency = corneringEfficiency(res.Corners[i])
		m.BrakingConsistency = brakingConsistency(res.Zones[i])
		ret = append(ret, m)
	}
	return ret
}

// corneringEfficiency scores speed maintenance through the apex plus the
// acceleration out of it, averaged over the lap's corners, 0-100.
func corneringEfficiency(corners []model.CornerSegment) float64 {
	if len(corners) == 0 {
		return 0
	}
	var sum float64
	for _, c := range corners {
		if c.EntrySpeed <= 0 || c.MinSpeed <= 0 {
			continue
		}
		maintenance := c.MinSpeed / c.EntrySpeed
		exitAccel := c.ExitSpeed / c.MinSpeed
		sum += math.Min(100, maintenance*50+exitAccel*30)
	}
	return sum / float64(len(corners))
}

// brakingConsistency scores how repeatable the peak decelerations are
// across the lap's zones, 0-100. Fewer than two zones score perfect,
// there is nothing to be inconsistent against.
func brakingConsistency(zones []model.BrakingZone) float64 {
	if len(zones) < 2 {
		return 100
	}
	peaks := make([]float64, len(zones))
	for i := range zones {
		peaks[i] = zones[i].PeakDecel
	}
	mean, std := stat.MeanStdDev(peaks, nil)
	if mean <= 0 {
		return 0
	}
	return math.Max(0, 100-(std/mean)*100)
}

// TheoreticalBestSectors exposes the sector decomposition behind the
// session's theoretical best for display. Returns nil when corner counts
// differ across laps and no decomposition exists.
func TheoreticalBestSectors(res *processing.Result) []float64 {
	if res.SessionScore == nil || len(res.Laps) == 0 {
		return nil
	}
	var ref []model.CornerSegment
	for i := range res.Corners {
		if res.Features[i] == nil {
			return nil
		}
		if ref == nil {
			ref = res.Corners[i]
		} else if len(res.Corners[i]) != len(ref) {
			return nil
		}
	}
	if len(ref) == 0 {
		return nil
	}
	best := make([]float64, len(ref)+1)
	for s := range best {
		best[s] = math.Inf(1)
	}
	for i := range res.Corners {
		lf := res.Features[i]
		times := sectorTimes(lf, res.Corners[i])
		for s, t := range times {
			if t < best[s] {
				best[s] = t
			}
		}
	}
	return best
}

// sectorTimes splits a lap at its corner entry points.
func sectorTimes(lf *features.LapFeatures, corners []model.CornerSegment) []float64 {
	bounds := make([]int, 0, len(corners)+2)
	bounds = append(bounds, 0)
	for _, c := range corners {
		bounds = append(bounds, c.EntryIdx)
	}
	bounds = append(bounds, len(lf.T)-1)
	times := make([]float64, 0, len(bounds)-1)
	for i := 1; i < len(bounds); i++ {
		times = append(times, lf.T[bounds[i]]-lf.T[bounds[i-1]])
	}
	return times
}
