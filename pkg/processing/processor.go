package processing

import (
	"github.com/google/uuid"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing/classify"
	"github.com/apexcoach/telemetry-coach/pkg/processing/compare"
	"github.com/apexcoach/telemetry-coach/pkg/processing/features"
	"github.com/apexcoach/telemetry-coach/pkg/processing/score"
	"github.com/apexcoach/telemetry-coach/pkg/processing/segment"
	"github.com/apexcoach/telemetry-coach/pkg/processing/setup"
	"github.com/apexcoach/telemetry-coach/pkg/processing/strategy"
)

// Capability identifies one output of the pipeline for availability
// tracking. Errors are scoped to the smallest affected capability; an
// unavailable output must never be reported as a zero value.
type Capability string

const (
	CapLaps        Capability = "laps"
	CapCorners     Capability = "corners"
	CapScores      Capability = "scores"
	CapConsistency Capability = "consistency"
	CapSetup       Capability = "setup"
	CapStrategy    Capability = "strategy"
)

type (
	// Result holds every derived entity of one session run. It is a pure
	// function of the immutable Session; recomputation is deterministic,
	// which makes it cacheable by session fingerprint.
	Result struct {
		RunID       uuid.UUID
		Fingerprint string
		Session     *model.Session

		Laps     []model.Lap
		Features []*features.LapFeatures
		Corners  [][]model.CornerSegment
		Zones    [][]model.BrakingZone

		LapScores    []model.PerformanceScore
		SessionScore *model.SessionScore
		Setup        []model.SetupRecommendation

		// Unavailable maps capabilities that could not be computed to the
		// reason, per the degradation policy.
		Unavailable map[Capability]string
	}
	SessionProcessor struct {
		params     *config.AnalysisParams
		l          *log.Logger
		segmenter  *segment.Segmenter
		extractor  *features.Extractor
		classifier *classify.Classifier
		scorer     *score.Scorer
		optimizer  *setup.Optimizer
		strategist *strategy.Strategist
		comparator *compare.Comparator
	}
	Option func(*SessionProcessor)
)

func WithParams(p *config.AnalysisParams) Option {
	return func(sp *SessionProcessor) {
		sp.params = p
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(sp *SessionProcessor) {
		sp.l = arg
	}
}

func NewSessionProcessor(opts ...Option) *SessionProcessor {
	sp := &SessionProcessor{
		params: config.DefaultAnalysisParams(),
		l:      log.Default().Named("processing"),
	}
	for _, opt := range opts {
		opt(sp)
	}
	sp.segmenter = segment.NewSegmenter(
		segment.WithParams(sp.params), segment.WithLogger(sp.l.Named("segment")))
	sp.extractor = features.NewExtractor(
		features.WithParams(sp.params), features.WithLogger(sp.l.Named("features")))
	sp.classifier = classify.NewClassifier(
		classify.WithParams(sp.params), classify.WithLogger(sp.l.Named("classify")))
	sp.scorer = score.NewScorer(
		score.WithParams(sp.params), score.WithLogger(sp.l.Named("score")))
	sp.optimizer = setup.NewOptimizer(
		setup.WithParams(sp.params), setup.WithLogger(sp.l.Named("setup")))
	sp.strategist = strategy.NewStrategist(
		strategy.WithParams(sp.params), strategy.WithLogger(sp.l.Named("strategy")))
	sp.comparator = compare.NewComparator(
		compare.WithParams(sp.params), compare.WithLogger(sp.l.Named("compare")))
	return sp
}

// Process runs the full analysis chain on one session. The stages form a
// strict dependency chain; a failing stage degrades its capability and
// everything downstream of it, never the siblings. Distinct sessions may
// be processed concurrently, each run only reads its own session.
//
//nolint:funlen // the dependency chain reads best in one place
func (sp *SessionProcessor) Process(session *model.Session, fingerprint string) *Result {
	res := &Result{
		RunID:       uuid.New(),
		Fingerprint: fingerprint,
		Session:     session,
		Unavailable: make(map[Capability]string),
	}

	laps, err := sp.segmenter.Segment(session)
	if err != nil {
		sp.l.Warn("no lap data", log.ErrorField(err))
		res.Unavailable[CapLaps] = err.Error()
		sp.degradeDownstream(res, err.Error())
		return res
	}
	res.Laps = laps

	res.Features = make([]*features.LapFeatures, len(laps))
	res.Corners = make([][]model.CornerSegment, len(laps))
	res.Zones = make([][]model.BrakingZone, len(laps))
	th := classify.SpeedThresholds(session, sp.params)
	cornersOK := true
	for i, lap := range laps {
		lf, ferr := sp.extractor.ExtractLap(session, lap)
		if ferr != nil {
			sp.l.Warn("lap features unavailable",
				log.Int("lap", lap.Num), log.ErrorField(ferr))
			continue
		}
		res.Features[i] = lf
		cls, cerr := sp.classifier.ClassifyLap(session, lf, th)
		if cerr != nil {
			res.Unavailable[CapCorners] = cerr.Error()
			cornersOK = false
			continue
		}
		res.Corners[i] = cls.Corners
		res.Zones[i] = cls.Zones
	}

	scored, err := sp.scorer.Score(&score.Input{
		Session:  session,
		Laps:     res.Laps,
		Features: res.Features,
		Corners:  res.Corners,
		Zones:    res.Zones,
	})
	if err != nil {
		res.Unavailable[CapScores] = err.Error()
		res.Unavailable[CapConsistency] = err.Error()
		res.Unavailable[CapSetup] = "no performance scores"
		return res
	}
	res.LapScores = scored.LapScores
	res.SessionScore = scored.Session
	if !scored.ConsistencyOK {
		res.Unavailable[CapConsistency] = "fewer than 2 complete laps"
	}

	if cornersOK {
		sig := setup.BuildSignature(
			res.Features, res.Corners, res.Zones, res.SessionScore, scored.ConsistencyOK)
		res.Setup = sp.optimizer.Recommend(sig)
	} else {
		res.Unavailable[CapSetup] = "corner classification unavailable"
	}

	sp.l.Info("session processed",
		log.String("runId", res.RunID.String()),
		log.String("track", session.Info.Track),
		log.Int("laps", len(res.Laps)),
		log.Int("unavailable", len(res.Unavailable)))
	return res
}

func (sp *SessionProcessor) degradeDownstream(res *Result, reason string) {
	for _, c := range []Capability{CapCorners, CapScores, CapConsistency, CapSetup, CapStrategy} {
		res.Unavailable[c] = reason
	}
}

// Strategy simulates a race plan from the session's fuel proxies. Kept
// separate from Process since it needs request parameters (race length,
// tank size) that are not part of the session.
func (sp *SessionProcessor) Strategy(
	res *Result, targetLaps int, tankCapacity float64,
) (*model.StrategyPlan, error) {
	if res.SessionScore == nil {
		return nil, &model.InsufficientDataError{What: "race strategy", Needed: 1, Got: 0}
	}
	fuelPerLap, err := strategy.EstimateFuelPerLap(res.Features, sp.params.Strategy)
	if err != nil {
		return nil, err
	}
	return sp.strategist.Plan(&strategy.PlanParams{
		TargetLaps:   targetLaps,
		TankCapacity: tankCapacity,
		FuelPerLap:   fuelPerLap,
		AvgLap:       sp.avgLapTime(res),
		Assumptions:  sp.params.Strategy,
	})
}

// Compare aligns the best laps of two processed sessions.
func (sp *SessionProcessor) Compare(a, b *Result) (*model.ComparisonResult, error) {
	bestA, err := sp.bestLapFeatures(a)
	if err != nil {
		return nil, err
	}
	bestB, err := sp.bestLapFeatures(b)
	if err != nil {
		return nil, err
	}
	return sp.comparator.CompareLaps(a.Session.Info, b.Session.Info, bestA, bestB)
}

func (sp *SessionProcessor) bestLapFeatures(res *Result) (*features.LapFeatures, error) {
	if res.SessionScore == nil {
		return nil, &model.InsufficientDataError{What: "comparison", Needed: 1, Got: 0}
	}
	for i, lap := range res.Laps {
		if lap.Num == res.SessionScore.BestLapNum && res.Features[i] != nil {
			return res.Features[i], nil
		}
	}
	return nil, &model.InsufficientDataError{What: "comparison", Needed: 1, Got: 0}
}

func (sp *SessionProcessor) avgLapTime(res *Result) float64 {
	var sum float64
	var n int
	for i, lap := range res.Laps {
		if lap.Partial || res.Features[i] == nil {
			continue
		}
		sum += res.Features[i].Aggregates.LapTime
		n++
	}
	if n == 0 {
		// fall back to the best lap when only partial laps exist
		return res.SessionScore.BestLapTime
	}
	return sum / float64(n)
}
