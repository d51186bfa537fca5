package classify

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing/features"
)

type (
	// Thresholds are the apex-speed cutoffs for corner classification,
	// derived from the session's own speed distribution so the classifier
	// adapts across cars and tracks.
	Thresholds struct {
		Tight float64 // apex speed below this: tight
		Fast  float64 // apex speed above this: fast
	}
	Result struct {
		Corners []model.CornerSegment
		Zones   []model.BrakingZone
	}
	Classifier struct {
		params *config.AnalysisParams
		l      *log.Logger
	}
	Option func(*Classifier)
)

func WithParams(p *config.AnalysisParams) Option {
	return func(c *Classifier) {
		c.params = p
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(c *Classifier) {
		c.l = arg
	}
}

func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		params: config.DefaultAnalysisParams(),
		l:      log.Default().Named("classify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SpeedThresholds computes the percentile-based classification cutoffs
// over the whole session speed distribution.
func SpeedThresholds(s *model.Session, p *config.AnalysisParams) Thresholds {
	speeds := make([]float64, 0, len(s.Samples))
	for i := range s.Samples {
		speeds = append(speeds, s.Samples[i].Speed)
	}
	slices.Sort(speeds)
	if len(speeds) == 0 {
		return Thresholds{}
	}
	return Thresholds{
		Tight: stat.Quantile(p.TightPct, stat.Empirical, speeds, nil),
		Fast:  stat.Quantile(p.FastPct, stat.Empirical, speeds, nil),
	}
}

// ClassifyLap detects braking zones and corners within one lap.
// A lap with no braking events yields zero corners; that is not an error.
// The brake channel is required, classification without it would have to
// fabricate zones.
func (c *Classifier) ClassifyLap(
	s *model.Session,
	lf *features.LapFeatures,
	th Thresholds,
) (*Result, error) {
	if !s.HasChannel(model.ChannelBrake) {
		return nil, &model.MissingChannelError{Channel: model.ChannelBrake}
	}
	ret := &Result{}
	ret.Zones = c.detectZones(lf)
	ret.Corners = c.detectCorners(lf, ret.Zones, th)
	c.l.Debug("classified lap", log.Int("lap", lf.Lap.Num),
		log.Int("zones", len(ret.Zones)), log.Int("corners", len(ret.Corners)))
	return ret, nil
}

// detectZones opens a zone when brake crosses above the threshold and
// closes it once brake stays below the threshold for the dwell time.
// The dwell debounce keeps noisy brake traces from fragmenting a zone.
func (c *Classifier) detectZones(lf *features.LapFeatures) []model.BrakingZone {
	p := c.params
	zones := make([]model.BrakingZone, 0)
	inZone := false
	start := 0
	belowIdx := -1 // first index below threshold within an open zone

	closeZone := func(end int) {
		if lf.T[end]-lf.T[start] >= p.MinZoneTime {
			zones = append(zones, c.zoneMetrics(lf, start, end))
		}
	}

	for i := range lf.Brake {
		braking := lf.Brake[i] >= p.BrakeThreshold
		switch {
		case !inZone && braking:
			inZone = true
			start = i
			belowIdx = -1
		case inZone && !braking:
			if belowIdx < 0 {
				belowIdx = i
			} else if lf.T[i]-lf.T[belowIdx] >= p.BrakeDwell {
				closeZone(belowIdx)
				inZone = false
			}
		case inZone && braking:
			belowIdx = -1
		}
	}
	if inZone {
		end := len(lf.Brake) - 1
		if belowIdx >= 0 {
			end = belowIdx
		}
		closeZone(end)
	}
	return zones
}

func (c *Classifier) zoneMetrics(lf *features.LapFeatures, start, end int) model.BrakingZone {
	z := model.BrakingZone{
		StartIdx:   start,
		EndIdx:     end,
		EntrySpeed: lf.Speed[start],
		ExitSpeed:  lf.Speed[end],
	}
	var decelSum float64
	var decelCnt int
	for i := start; i <= end; i++ {
		decel := -lf.LonG[i] * features.Gravity
		if decel > z.PeakDecel {
			z.PeakDecel = decel
		}
		if decel > 0 {
			decelSum += decel
			decelCnt++
		}
		if i > start {
			z.DistanceCovered += lf.Speed[i] * lf.Dt(i)
		}
	}
	if decelCnt > 0 {
		z.AvgDecel = decelSum / float64(decelCnt)
	}
	return z
}

// detectCorners finds, per braking zone, the local speed minimum bounded by
// the deceleration on entry and a throttle-rising acceleration phase on exit.
func (c *Classifier) detectCorners(
	lf *features.LapFeatures,
	zones []model.BrakingZone,
	th Thresholds,
) []model.CornerSegment {
	p := c.params
	corners := make([]model.CornerSegment, 0, len(zones))
	for zi := range zones {
		entry := zones[zi].StartIdx
		windowEnd := len(lf.Speed) - 1
		if zi+1 < len(zones) {
			windowEnd = zones[zi+1].StartIdx - 1
		}
		if windowEnd <= entry {
			continue
		}
		apex := entry
		for i := entry; i <= windowEnd; i++ {
			if lf.Speed[i] < lf.Speed[apex] {
				apex = i
			}
		}
		exit := -1
		for i := apex + 1; i <= windowEnd; i++ {
			if lf.Throttle[i] >= p.ExitThrottle && lf.Speed[i] > lf.Speed[apex] {
				exit = i
				break
			}
		}
		if exit < 0 {
			// no acceleration phase: braking without a corner (or data ends)
			continue
		}
		corners = append(corners, c.cornerMetrics(lf, entry, apex, exit, th))
	}
	return corners
}

func (c *Classifier) cornerMetrics(
	lf *features.LapFeatures,
	entry, apex, exit int,
	th Thresholds,
) model.CornerSegment {
	seg := model.CornerSegment{
		EntryIdx:   entry,
		ApexIdx:    apex,
		ExitIdx:    exit,
		MinSpeed:   lf.Speed[apex],
		EntrySpeed: lf.Speed[entry],
		ExitSpeed:  lf.Speed[exit],
	}
	var latSum float64
	for i := entry; i <= exit; i++ {
		latAbs := math.Abs(lf.LatG[i])
		latSum += latAbs * features.Gravity
		if latAbs > seg.MaxLatG {
			seg.MaxLatG = latAbs
		}
	}
	seg.AvgLatAccel = latSum / float64(exit-entry+1)

	switch {
	case seg.MinSpeed < th.Tight:
		seg.Class = model.CornerTight
	case seg.MinSpeed > th.Fast:
		seg.Class = model.CornerFast
	default:
		seg.Class = model.CornerMedium
	}
	return seg
}
