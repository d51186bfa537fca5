package features

import (
	"math"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
)

// Gravity converts between acceleration in m/s^2 and G units.
const Gravity = 9.81

type (
	// LapFeatures holds the derived per-sample channels of one lap.
	// All slices are aligned; index 0 corresponds to the lap start sample.
	// Samples with non-positive time deltas are dropped during extraction,
	// so the slices may be shorter than the raw lap range.
	LapFeatures struct {
		Lap      model.Lap
		T        []float64
		Dist     []float64 // lap distance pct
		Speed    []float64
		Throttle []float64
		Brake    []float64
		LatG     []float64
		LonG     []float64
		Combined []float64
		YawRate  []float64 // nil when the steering channel is absent

		Dropped    int // samples discarded for duplicate/backward timestamps
		Aggregates LapAggregates
	}
	LapAggregates struct {
		LapTime      float64
		MaxSpeed     float64
		AvgSpeed     float64
		MaxCombinedG float64
		// ThrottleBrakeOverlap is the time both pedals are applied;
		// a rough proxy for trail-braking.
		ThrottleBrakeOverlap float64
		// FuelProxy and TireProxy are estimates, not physical measurements:
		// fuel from the throttle-time integral, tire from cumulative
		// lateral-G load. Usable for relative per-lap comparison only.
		FuelProxy float64
		TireProxy float64
	}
	Extractor struct {
		params *config.AnalysisParams
		l      *log.Logger
	}
	Option func(*Extractor)
)

func WithParams(p *config.AnalysisParams) Option {
	return func(ex *Extractor) {
		ex.params = p
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(ex *Extractor) {
		ex.l = arg
	}
}

func NewExtractor(opts ...Option) *Extractor {
	ex := &Extractor{
		params: config.DefaultAnalysisParams(),
		l:      log.Default().Named("features"),
	}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// ExtractLap derives the per-sample channels and lap aggregates for one lap.
func (ex *Extractor) ExtractLap(s *model.Session, lap model.Lap) (*LapFeatures, error) {
	raw := lap.Samples(s)
	if len(raw) < 2 {
		return nil, &model.InsufficientDataError{
			What: "feature extraction", Needed: 2, Got: len(raw),
		}
	}
	hasSteer := s.HasChannel(model.ChannelSteerAngle)

	lf := &LapFeatures{Lap: lap}
	n := len(raw)
	lf.T = make([]float64, 0, n)
	lf.Dist = make([]float64, 0, n)
	lf.Speed = make([]float64, 0, n)
	lf.Throttle = make([]float64, 0, n)
	lf.Brake = make([]float64, 0, n)
	lf.LatG = make([]float64, 0, n)
	lf.LonG = make([]float64, 0, n)
	lf.Combined = make([]float64, 0, n)
	if hasSteer {
		lf.YawRate = make([]float64, 0, n)
	}

	prevT := math.Inf(-1)
	prevSteer, prevSteerT := 0.0, 0.0
	for i := range raw {
		smp := &raw[i]
		if i > 0 && smp.T <= prevT {
			// duplicate or backward timestamp, drop the sample
			lf.Dropped++
			continue
		}
		latG := smp.LatAccel / Gravity
		lonG := smp.LonAccel / Gravity
		lf.T = append(lf.T, smp.T)
		lf.Dist = append(lf.Dist, smp.LapDistPct)
		lf.Speed = append(lf.Speed, smp.Speed)
		lf.Throttle = append(lf.Throttle, smp.Throttle)
		lf.Brake = append(lf.Brake, smp.Brake)
		lf.LatG = append(lf.LatG, latG)
		lf.LonG = append(lf.LonG, lonG)
		lf.Combined = append(lf.Combined, math.Hypot(latG, lonG))
		if hasSteer {
			yaw := 0.0
			if len(lf.YawRate) > 0 {
				yaw = (smp.SteerAngle - prevSteer) / (smp.T - prevSteerT)
			}
			lf.YawRate = append(lf.YawRate, yaw)
			prevSteer, prevSteerT = smp.SteerAngle, smp.T
		}
		prevT = smp.T
	}
	if lf.Dropped > 0 {
		ex.l.Warn("dropped samples with non-increasing timestamps",
			log.Int("lap", lap.Num), log.Int("dropped", lf.Dropped))
	}
	if len(lf.T) < 2 {
		return nil, &model.InsufficientDataError{
			What: "feature extraction", Needed: 2, Got: len(lf.T),
		}
	}

	ex.aggregate(lf)
	return lf, nil
}

func (ex *Extractor) aggregate(lf *LapFeatures) {
	agg := &lf.Aggregates
	agg.LapTime = lf.T[len(lf.T)-1] - lf.T[0]

	var speedSum float64
	for i := range lf.T {
		speedSum += lf.Speed[i]
		agg.MaxSpeed = math.Max(agg.MaxSpeed, lf.Speed[i])
		agg.MaxCombinedG = math.Max(agg.MaxCombinedG, lf.Combined[i])
		if i == 0 {
			continue
		}
		dt := lf.T[i] - lf.T[i-1]
		if lf.Throttle[i] > 0 && lf.Brake[i] > 0 {
			agg.ThrottleBrakeOverlap += dt
		}
		agg.FuelProxy += lf.Throttle[i] * dt
		agg.TireProxy += math.Abs(lf.LatG[i]) * dt
	}
	agg.AvgSpeed = speedSum / float64(len(lf.T))
}

// Dt returns the time step ending at index i.
func (lf *LapFeatures) Dt(i int) float64 {
	if i <= 0 {
		return 0
	}
	return lf.T[i] - lf.T[i-1]
}
