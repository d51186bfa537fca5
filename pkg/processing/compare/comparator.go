package compare

import (
	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing/features"
)

const defaultGridSize = 200

type (
	Comparator struct {
		params   *config.AnalysisParams
		gridSize int
		l        *log.Logger
	}
	Option func(*Comparator)

	// trace is one lap resampled prep: strictly increasing distance with
	// relative time and the compared feature channels.
	trace struct {
		dist     []float64
		relTime  []float64
		speed    []float64
		throttle []float64
		brake    []float64
	}
)

func WithParams(p *config.AnalysisParams) Option {
	return func(c *Comparator) {
		c.params = p
	}
}

func WithGridSize(n int) Option {
	return func(c *Comparator) {
		c.gridSize = n
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(c *Comparator) {
		c.l = arg
	}
}

func NewComparator(opts ...Option) *Comparator {
	c := &Comparator{
		params:   config.DefaultAnalysisParams(),
		gridSize: defaultGridSize,
		l:        log.Default().Named("compare"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompareLaps resamples both laps onto a shared normalized-distance grid
// and computes the cumulative time delta plus per-feature deltas.
// Positive time delta: the reference lap (a) is ahead at that point.
// Mismatched track layouts fail fast; a partial comparison would be
// misleading.
func (c *Comparator) CompareLaps(
	infoA, infoB model.SessionInfo,
	a, b *features.LapFeatures,
) (*model.ComparisonResult, error) {
	if infoA.Track != infoB.Track {
		return nil, &model.IncompatibleSessionsError{
			Reason: "different tracks: " + infoA.Track + " vs " + infoB.Track,
		}
	}
	ta, err := buildTrace(a)
	if err != nil {
		return nil, err
	}
	tb, err := buildTrace(b)
	if err != nil {
		return nil, err
	}

	// common distance coverage of both laps
	lo := max(ta.dist[0], tb.dist[0])
	hi := min(ta.dist[len(ta.dist)-1], tb.dist[len(tb.dist)-1])
	if hi <= lo {
		return nil, &model.IncompatibleSessionsError{
			Reason: "lap distance domains do not overlap",
		}
	}

	ret := &model.ComparisonResult{
		DistanceGrid: make([]float64, c.gridSize),
		TimeDelta:    make([]float64, c.gridSize),
		FeatureDeltas: map[string][]float64{
			"speed":    make([]float64, c.gridSize),
			"throttle": make([]float64, c.gridSize),
			"brake":    make([]float64, c.gridSize),
		},
	}
	step := (hi - lo) / float64(c.gridSize-1)
	baseA := interp(ta.dist, ta.relTime, lo)
	baseB := interp(tb.dist, tb.relTime, lo)
	for i := 0; i < c.gridSize; i++ {
		d := lo + float64(i)*step
		ret.DistanceGrid[i] = d
		elapsedA := interp(ta.dist, ta.relTime, d) - baseA
		elapsedB := interp(tb.dist, tb.relTime, d) - baseB
		ret.TimeDelta[i] = elapsedB - elapsedA
		ret.FeatureDeltas["speed"][i] = interp(ta.dist, ta.speed, d) - interp(tb.dist, tb.speed, d)
		ret.FeatureDeltas["throttle"][i] = interp(ta.dist, ta.throttle, d) - interp(tb.dist, tb.throttle, d)
		ret.FeatureDeltas["brake"][i] = interp(ta.dist, ta.brake, d) - interp(tb.dist, tb.brake, d)
	}
	c.l.Debug("compared laps",
		log.Int("grid", c.gridSize),
		log.Float64("from", lo), log.Float64("to", hi),
		log.Float64("finalDelta", ret.TimeDelta[c.gridSize-1]))
	return ret, nil
}

// buildTrace keeps only strictly increasing distance points; raw traces
// may hold stationary repeats at identical lap distance.
func buildTrace(lf *features.LapFeatures) (*trace, error) {
	if lf == nil || len(lf.Dist) < 2 {
		got := 0
		if lf != nil {
			got = len(lf.Dist)
		}
		return nil, &model.InsufficientDataError{
			What: "lap comparison", Needed: 2, Got: got,
		}
	}
	t := &trace{}
	t0 := lf.T[0]
	lastDist := -1.0
	for i := range lf.Dist {
		if lf.Dist[i] <= lastDist {
			continue
		}
		lastDist = lf.Dist[i]
		t.dist = append(t.dist, lf.Dist[i])
		t.relTime = append(t.relTime, lf.T[i]-t0)
		t.speed = append(t.speed, lf.Speed[i])
		t.throttle = append(t.throttle, lf.Throttle[i])
		t.brake = append(t.brake, lf.Brake[i])
	}
	if len(t.dist) < 2 {
		return nil, &model.InsufficientDataError{
			What: "lap comparison", Needed: 2, Got: len(t.dist),
		}
	}
	return t, nil
}

// interp linearly interpolates ys over the sorted xs at x, clamping at
// the edges.
func interp(xs, ys []float64, x float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	// binary search for the upper bound
	loIdx, hiIdx := 0, len(xs)-1
	for hiIdx-loIdx > 1 {
		mid := (loIdx + hiIdx) / 2
		if xs[mid] <= x {
			loIdx = mid
		} else {
			hiIdx = mid
		}
	}
	frac := (x - xs[loIdx]) / (xs[hiIdx] - xs[loIdx])
	return ys[loIdx] + frac*(ys[hiIdx]-ys[loIdx])
}
