package service

import (
	"fmt"
	"sort"

	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing"
)

// Trigger levels for coaching insights. Each insight stays traceable to
// the metric and value that produced it.
const (
	consistencyWeak    = 6.0  // 0-10 rating below this triggers a consistency insight
	brakingWeak        = 0.55 // avg/peak decel ratio below this reads as spike-and-release
	gapToTheoretical   = 0.5  // seconds left on the table before it is worth a message
	cornerLossFracHigh = 0.35 // entry speed fraction given up in tight corners
)

// CoachingInsights derives ranked, human-readable findings from one
// processed session. Insights are ordered by severity, highest first.
func CoachingInsights(res *processing.Result) []model.Insight {
	insights := make([]model.Insight, 0)
	if res.SessionScore == nil {
		return insights
	}
	score := res.SessionScore

	if _, off := res.Unavailable[processing.CapConsistency]; !off &&
		score.ConsistencyRating < consistencyWeak {

		insights = append(insights, model.Insight{
			Category: model.InsightConsistency,
			Message: fmt.Sprintf(
				"Lap times vary noticeably (consistency %.1f/10); focus on repeatable reference points before chasing pace",
				score.ConsistencyRating),
			Metric:   "consistencyRating",
			Value:    score.ConsistencyRating,
			Severity: (consistencyWeak - score.ConsistencyRating) / consistencyWeak,
		})
	}

	if score.BrakingEfficiency > 0 && score.BrakingEfficiency < brakingWeak {
		insights = append(insights, model.Insight{
			Category: model.InsightBraking,
			Message: fmt.Sprintf(
				"Brake applications peak and release early (avg/peak ratio %.2f); hold pressure deeper into the zone",
				score.BrakingEfficiency),
			Metric:   "brakingEfficiency",
			Value:    score.BrakingEfficiency,
			Severity: (brakingWeak - score.BrakingEfficiency) / brakingWeak,
		})
	}

	if gap := score.BestLapTime - score.TheoreticalBest; score.TheoreticalBest > 0 &&
		gap > gapToTheoretical {

		insights = append(insights, model.Insight{
			Category: model.InsightPerformance,
			Message: fmt.Sprintf(
				"Best lap leaves %.3fs against your combined best sectors; the pace is already there in pieces",
				gap),
			Metric:   "theoreticalBestGap",
			Value:    gap,
			Severity: gap / score.BestLapTime,
		})
	}

	insights = append(insights, corneringInsights(res)...)

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Severity > insights[j].Severity
	})
	return insights
}

func corneringInsights(res *processing.Result) []model.Insight {
	var lossSum float64
	var n int
	for li := range res.Corners {
		for _, c := range res.Corners[li] {
			if c.Class != model.CornerTight || c.EntrySpeed <= 0 {
				continue
			}
			lossSum += c.SpeedLoss() / c.EntrySpeed
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avgLoss := lossSum / float64(n)
	if avgLoss <= cornerLossFracHigh {
		return nil
	}
	return []model.Insight{{
		Category: model.InsightCornering,
		Message: fmt.Sprintf(
			"Tight corners give up %.0f%% of entry speed on average; try a later apex to straighten the exit",
			avgLoss*100),
		Metric:   "tightCornerSpeedLoss",
		Value:    avgLoss,
		Severity: avgLoss - cornerLossFracHigh,
	}}
}
