package setup

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing/features"
)

type (
	// Signature aggregates the handling characteristics of a session.
	// It is the sole input of the advice rules, so each rule stays a pure
	// function that can be evaluated independently.
	Signature struct {
		LapCount          int
		CornerCount       map[model.CornerClass]int
		AvgSpeedLossFrac  map[model.CornerClass]float64 // (entry-apex)/entry
		AvgEntryLatG      map[model.CornerClass]float64
		ApexSpeedCV       map[model.CornerClass]float64
		ConsistencyOK     bool
		ConsistencyRating float64
		BrakingZoneCount  int
		BrakingEfficiency float64
		PeakDecelCV       float64
		AvgTrailBraking   float64 // seconds of throttle/brake overlap per lap
		FastShare         float64 // fraction of corners classified fast
	}
	// Rule maps an observed signature to at most one candidate
	// recommendation. Returning nil means the rule does not fire.
	Rule struct {
		Name     string
		Evaluate func(sig *Signature) *model.SetupRecommendation
	}
	Optimizer struct {
		params *config.AnalysisParams
		rules  []Rule
		l      *log.Logger
	}
	Option func(*Optimizer)
)

func WithParams(p *config.AnalysisParams) Option {
	return func(o *Optimizer) {
		o.params = p
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(o *Optimizer) {
		o.l = arg
	}
}

// WithRules replaces the default rule registry.
func WithRules(rules []Rule) Option {
	return func(o *Optimizer) {
		o.rules = rules
	}
}

func NewOptimizer(opts ...Option) *Optimizer {
	o := &Optimizer{
		params: config.DefaultAnalysisParams(),
		rules:  DefaultRules(),
		l:      log.Default().Named("setup"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Recommend evaluates every rule against the signature and returns the
// ranked, deduplicated advice list.
func (o *Optimizer) Recommend(sig *Signature) []model.SetupRecommendation {
	candidates := make([]model.SetupRecommendation, 0, len(o.rules))
	for _, rule := range o.rules {
		if rec := rule.Evaluate(sig); rec != nil {
			o.l.Debug("rule fired", log.String("rule", rule.Name),
				log.Float64("confidence", rec.Confidence))
			candidates = append(candidates, *rec)
		}
	}
	return Rank(candidates)
}

// Rank orders candidates by confidence and keeps the strongest
// recommendation per parameter. Kept separate from rule evaluation so it
// is testable on its own.
func Rank(recs []model.SetupRecommendation) []model.SetupRecommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Confidence > recs[j].Confidence
	})
	seen := make(map[string]struct{}, len(recs))
	ret := make([]model.SetupRecommendation, 0, len(recs))
	for _, r := range recs {
		if _, ok := seen[r.Parameter]; ok {
			continue
		}
		seen[r.Parameter] = struct{}{}
		ret = append(ret, r)
	}
	return ret
}

// BuildSignature aggregates per-lap classifier and scorer output into the
// rule input.
//
//nolint:funlen,gocognit // plain aggregation
func BuildSignature(
	lapFeatures []*features.LapFeatures,
	corners [][]model.CornerSegment,
	zones [][]model.BrakingZone,
	sessionScore *model.SessionScore,
	consistencyOK bool,
) *Signature {
	sig := &Signature{
		CornerCount:      make(map[model.CornerClass]int),
		AvgSpeedLossFrac: make(map[model.CornerClass]float64),
		AvgEntryLatG:     make(map[model.CornerClass]float64),
		ApexSpeedCV:      make(map[model.CornerClass]float64),
		ConsistencyOK:    consistencyOK,
	}
	if sessionScore != nil {
		sig.ConsistencyRating = sessionScore.ConsistencyRating
		sig.BrakingEfficiency = sessionScore.BrakingEfficiency
	}

	apexByClass := make(map[model.CornerClass][]float64)
	lossByClass := make(map[model.CornerClass][]float64)
	latByClass := make(map[model.CornerClass][]float64)
	var peaks []float64
	var overlap float64
	totalCorners := 0

	for i := range lapFeatures {
		if lapFeatures[i] == nil {
			continue
		}
		sig.LapCount++
		overlap += lapFeatures[i].Aggregates.ThrottleBrakeOverlap
		for _, c := range corners[i] {
			totalCorners++
			sig.CornerCount[c.Class]++
			apexByClass[c.Class] = append(apexByClass[c.Class], c.MinSpeed)
			if c.EntrySpeed > 0 {
				lossByClass[c.Class] = append(lossByClass[c.Class],
					c.SpeedLoss()/c.EntrySpeed)
			}
			latByClass[c.Class] = append(latByClass[c.Class], c.MaxLatG)
			if c.Class == model.CornerFast {
				sig.FastShare++
			}
		}
		for _, z := range zones[i] {
			sig.BrakingZoneCount++
			peaks = append(peaks, z.PeakDecel)
		}
	}
	if totalCorners > 0 {
		sig.FastShare /= float64(totalCorners)
	}
	if sig.LapCount > 0 {
		sig.AvgTrailBraking = overlap / float64(sig.LapCount)
	}
	for class, apexes := range apexByClass {
		if m := stat.Mean(apexes, nil); m > 0 && len(apexes) >= 2 {
			sig.ApexSpeedCV[class] = stat.StdDev(apexes, nil) / m
		}
		sig.AvgSpeedLossFrac[class] = stat.Mean(lossByClass[class], nil)
		sig.AvgEntryLatG[class] = stat.Mean(latByClass[class], nil)
	}
	if m := stat.Mean(peaks, nil); len(peaks) >= 2 && m > 0 {
		sig.PeakDecelCV = stat.StdDev(peaks, nil) / m
	}
	return sig
}

// confidence scales signal strength by how much data backs it up.
func confidence(strength float64, samples, enough int) float64 {
	backing := math.Min(1, float64(samples)/float64(enough))
	return math.Max(0, math.Min(1, strength*backing))
}
