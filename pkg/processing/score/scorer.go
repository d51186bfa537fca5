package score

import (
	"math"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing/features"
)

type (
	// Input carries all per-lap derivations of one session. Slices are
	// aligned with Laps; entries may be nil/empty for laps where an
	// upstream stage degraded.
	Input struct {
		Session  *model.Session
		Laps     []model.Lap
		Features []*features.LapFeatures
		Corners  [][]model.CornerSegment
		Zones    [][]model.BrakingZone
	}
	Output struct {
		LapScores []model.PerformanceScore
		Session   *model.SessionScore
		// ConsistencyOK is false when fewer than 2 non-partial laps were
		// available; consistency and trend are then not meaningful and
		// must be reported unavailable, not as zero.
		ConsistencyOK bool
	}
	Scorer struct {
		params *config.AnalysisParams
		l      *log.Logger
	}
	Option func(*Scorer)
)

func WithParams(p *config.AnalysisParams) Option {
	return func(sc *Scorer) {
		sc.params = p
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(sc *Scorer) {
		sc.l = arg
	}
}

func NewScorer(opts ...Option) *Scorer {
	sc := &Scorer{
		params: config.DefaultAnalysisParams(),
		l:      log.Default().Named("score"),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

//nolint:funlen // sequential metric assembly
func (sc *Scorer) Score(in *Input) (*Output, error) {
	times := sc.lapTimes(in)
	timed := lo.Filter(times, func(t float64, _ int) bool { return t > 0 })
	if len(timed) == 0 {
		return nil, &model.InsufficientDataError{
			What: "performance scoring", Needed: 1, Got: 0,
		}
	}

	// consistency over non-partial laps only; in/out laps would skew the cv
	var racingTimes []float64
	for i, lap := range in.Laps {
		if !lap.Partial && times[i] > 0 {
			racingTimes = append(racingTimes, times[i])
		}
	}
	out := &Output{ConsistencyOK: len(racingTimes) >= 2}

	mean := stat.Mean(racingTimes, nil)
	cv := 0.0
	if out.ConsistencyOK {
		cv = stat.StdDev(racingTimes, nil) / mean
	}
	sessionRating := clamp10(10 * math.Exp(-sc.params.ConsistencyK*cv))

	bestIdx := -1
	for i := range in.Laps {
		if times[i] > 0 && (bestIdx < 0 || times[i] < times[bestIdx]) {
			bestIdx = i
		}
	}

	theoretical := sc.theoreticalBest(in, times)
	brakingEff := sc.brakingEfficiency(flatten(in.Zones))

	for i, lap := range in.Laps {
		if times[i] <= 0 {
			continue
		}
		ps := model.PerformanceScore{
			LapNum:  lap.Num,
			LapTime: times[i],
			Trend:   sc.trendAt(times, i),
		}
		if out.ConsistencyOK {
			// per-lap rating: deviation of this lap from the session mean
			dev := math.Abs(times[i]-mean) / mean
			ps.ConsistencyRating = clamp10(10 * math.Exp(-sc.params.ConsistencyK*dev))
		}
		ps.Components = model.ComponentScores{
			Pace:      clamp10(10 * times[bestIdx] / times[i]),
			Braking:   clamp10(10 * sc.brakingEfficiency(in.Zones[i])),
			Cornering: clamp10(corneringEfficiency(in.Features[i], in.Corners[i]) / 10),
		}
		out.LapScores = append(out.LapScores, ps)
	}

	agg := &model.SessionScore{
		BestLapTime:       times[bestIdx],
		BestLapNum:        in.Laps[bestIdx].Num,
		TheoreticalBest:   theoretical,
		BrakingEfficiency: brakingEff,
		Trend:             sc.trendAt(times, len(times)-1),
	}
	if out.ConsistencyOK {
		agg.ConsistencyRating = sessionRating
	}
	paceScore := 10.0
	if agg.BestLapTime > 0 && theoretical > 0 {
		paceScore = clamp10(10 * theoretical / agg.BestLapTime)
	}
	if out.ConsistencyOK {
		agg.Overall = clamp10(0.4*agg.ConsistencyRating + 0.3*paceScore + 0.3*brakingEff*10)
	} else {
		// consistency unavailable: renormalize the weights over the
		// remaining components instead of blending in a zero
		agg.Overall = clamp10(0.5*paceScore + 0.5*brakingEff*10)
	}
	out.Session = agg

	sc.l.Debug("scored session",
		log.Int("laps", len(out.LapScores)),
		log.Float64("best", agg.BestLapTime),
		log.Float64("overall", agg.Overall))
	return out, nil
}

func (sc *Scorer) lapTimes(in *Input) []float64 {
	times := make([]float64, len(in.Laps))
	for i, lap := range in.Laps {
		if in.Features[i] != nil {
			times[i] = in.Features[i].Aggregates.LapTime
		} else {
			times[i] = lap.Time(in.Session)
		}
	}
	return times
}

// trendAt classifies the lap-time development of the trailing window
// ending at index i. Sessions shorter than the configured window fall
// back to the laps that exist; a single lap has no trend. The slope
// deadband (relative to the session median) avoids flapping between
// improving/declining on noise.
func (sc *Scorer) trendAt(times []float64, i int) model.Trend {
	w := sc.params.TrendWindow
	if i+1 < w {
		w = i + 1
	}
	if w < 2 {
		return model.TrendStable
	}
	window := times[i+1-w : i+1]
	if slices.Contains(window, 0) {
		return model.TrendStable
	}
	xs := make([]float64, len(window))
	for k := range xs {
		xs[k] = float64(k)
	}
	_, slope := stat.LinearRegression(xs, window, nil, false)

	sorted := slices.Clone(times)
	slices.Sort(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	deadband := sc.params.TrendDeadband * median
	switch {
	case slope < -deadband:
		return model.TrendImproving
	case slope > deadband:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// theoreticalBest sums the best observed segment time across laps, with
// segments bounded by corner entries. When corner counts differ between
// laps the segments cannot be matched and the best lap time is used.
func (sc *Scorer) theoreticalBest(in *Input, times []float64) float64 {
	best := math.Inf(1)
	for _, t := range times {
		if t > 0 && t < best {
			best = t
		}
	}

	segCount := -1
	for i := range in.Laps {
		if in.Features[i] == nil || in.Laps[i].Partial {
			continue
		}
		n := len(in.Corners[i])
		if segCount < 0 {
			segCount = n
		} else if segCount != n {
			return best
		}
	}
	if segCount <= 0 {
		return best
	}

	sums := make([]float64, segCount+1)
	for k := range sums {
		sums[k] = math.Inf(1)
	}
	matched := false
	for i := range in.Laps {
		lf := in.Features[i]
		if lf == nil || in.Laps[i].Partial {
			continue
		}
		matched = true
		prev := 0
		for k, seg := range in.Corners[i] {
			sums[k] = math.Min(sums[k], lf.T[seg.EntryIdx]-lf.T[prev])
			prev = seg.EntryIdx
		}
		sums[segCount] = math.Min(sums[segCount], lf.T[len(lf.T)-1]-lf.T[prev])
	}
	if !matched {
		return best
	}
	total := 0.0
	for _, s := range sums {
		total += s
	}
	return math.Min(total, best)
}

// brakingEfficiency is the mean avg/peak decel ratio over the zones,
// a proxy for how close to threshold braking is sustained.
func (sc *Scorer) brakingEfficiency(zones []model.BrakingZone) float64 {
	if len(zones) == 0 {
		return 0
	}
	ratios := lo.Map(zones, func(z model.BrakingZone, _ int) float64 {
		if z.PeakDecel <= 0 {
			return 0
		}
		return z.AvgDecel / z.PeakDecel
	})
	return stat.Mean(ratios, nil)
}

// corneringEfficiency scores speed maintenance through corners on a
// 0-100 scale: how much apex speed is kept relative to entry and how
// strongly the exit accelerates away from the apex.
func corneringEfficiency(lf *features.LapFeatures, corners []model.CornerSegment) float64 {
	if lf == nil || len(corners) == 0 {
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

func flatten(zones [][]model.BrakingZone) []model.BrakingZone {
	return lo.Flatten(zones)
}

func clamp10(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}
