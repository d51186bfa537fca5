package service

import (
	"github.com/samber/lo"

	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing"
)

type (
	// LapPoint is one element of the dashboard lap-time series.
	LapPoint struct {
		LapNum  int     `json:"lapNum"`
		LapTime float64 `json:"lapTime"`
		Rating  float64 `json:"rating"`
		Trend   string  `json:"trend"`
		Best    bool    `json:"best"`
	}
	// Dashboard is the per-session summary a frontend renders directly.
	Dashboard struct {
		Track       string             `json:"track"`
		Car         string             `json:"car"`
		Driver      string             `json:"driver"`
		Laps        []LapPoint         `json:"laps"`
		Session     model.SessionScore `json:"session"`
		Unavailable map[string]string  `json:"unavailable,omitempty"`
	}
)

// BuildDashboard flattens one processed session into the dashboard shape.
func BuildDashboard(res *processing.Result) *Dashboard {
	d := &Dashboard{
		Track:  res.Session.Info.Track,
		Car:    res.Session.Info.Car,
		Driver: res.Session.Info.Driver,
	}
	if len(res.Unavailable) > 0 {
		d.Unavailable = make(map[string]string, len(res.Unavailable))
		for c, reason := range res.Unavailable {
			d.Unavailable[string(c)] = reason
		}
	}
	if res.SessionScore == nil {
		return d
	}
	d.Session = *res.SessionScore
	d.Laps = lo.Map(res.LapScores, func(ps model.PerformanceScore, _ int) LapPoint {
		return LapPoint{
			LapNum:  ps.LapNum,
			LapTime: ps.LapTime,
			Rating:  ps.ConsistencyRating,
			Trend:   string(ps.Trend),
			Best:    ps.LapNum == res.SessionScore.BestLapNum,
		}
	})
	return d
}
