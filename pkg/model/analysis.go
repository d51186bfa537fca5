package model

type CornerClass string

const (
	CornerTight  CornerClass = "tight"
	CornerMedium CornerClass = "medium"
	CornerFast   CornerClass = "fast"
)

// CornerSegment references sample indices relative to the lap start.
type CornerSegment struct {
	EntryIdx    int         `json:"entryIdx"`
	ApexIdx     int         `json:"apexIdx"`
	ExitIdx     int         `json:"exitIdx"`
	Class       CornerClass `json:"classification"`
	MinSpeed    float64     `json:"minSpeed"`
	AvgLatAccel float64     `json:"avgLatAccel"`
	EntrySpeed  float64     `json:"entrySpeed"`
	ExitSpeed   float64     `json:"exitSpeed"`
	MaxLatG     float64     `json:"maxLatG"`
}

// SpeedLoss is the speed given up between corner entry and apex.
func (c CornerSegment) SpeedLoss() float64 {
	return c.EntrySpeed - c.MinSpeed
}

type BrakingZone struct {
	StartIdx        int     `json:"startIdx"`
	EndIdx          int     `json:"endIdx"`
	PeakDecel       float64 `json:"peakDecel"` // m/s^2
	AvgDecel        float64 `json:"avgDecel"`  // m/s^2
	DistanceCovered float64 `json:"distanceCovered"`
	EntrySpeed      float64 `json:"entrySpeed"`
	ExitSpeed       float64 `json:"exitSpeed"`
}

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// ComponentScores are the 0-10 sub-scores feeding a PerformanceScore.
type ComponentScores struct {
	Pace      float64 `json:"pace"`
	Braking   float64 `json:"braking"`
	Cornering float64 `json:"cornering"`
}

type PerformanceScore struct {
	LapNum            int             `json:"lapNum"`
	LapTime           float64         `json:"lapTime"`
	ConsistencyRating float64         `json:"consistencyRating"`
	Trend             Trend           `json:"trend"`
	Components        ComponentScores `json:"componentScores"`
}

// SessionScore is the session-level aggregate.
type SessionScore struct {
	Overall           float64 `json:"overall"` // 0-10
	ConsistencyRating float64 `json:"consistencyRating"`
	Trend             Trend   `json:"trend"`
	BestLapTime       float64 `json:"bestLapTime"`
	BestLapNum        int     `json:"bestLapNum"`
	TheoreticalBest   float64 `json:"theoreticalBest"`
	BrakingEfficiency float64 `json:"brakingEfficiency"` // avg/peak decel ratio, 0-1
}

type SetupRecommendation struct {
	Parameter       string  `json:"parameter"`
	CurrentBias     string  `json:"currentBias"`
	SuggestedChange string  `json:"suggestedChange"`
	Confidence      float64 `json:"confidence"` // 0-1
	ExpectedEffect  string  `json:"expectedEffect"`
}

// StrategyPlan is a fuel/tire aware pit schedule for a target race distance.
type StrategyPlan struct {
	Name        string  `json:"name"`
	TargetLaps  int     `json:"targetLaps"`
	FuelPerLap  float64 `json:"fuelPerLapEstimate"` // incl. safety margin
	LapsPerTank int     `json:"lapsPerTank"`
	PitWindows  []int   `json:"pitWindows"` // lap numbers, ascending
	TotalTime   float64 `json:"totalTime"`  // simulated race time incl. pit loss
	FuelNeeded  float64 `json:"fuelNeeded"`

	Alternatives []StrategyPlan `json:"alternativePlans,omitempty"`
}

// ComparisonResult holds two laps resampled onto a shared distance grid.
// Positive TimeDelta means the reference lap is ahead at that point.
type ComparisonResult struct {
	DistanceGrid  []float64            `json:"alignedDistanceGrid"`
	TimeDelta     []float64            `json:"timeDeltaTrace"`
	FeatureDeltas map[string][]float64 `json:"featureDeltaTraces"`
}

type InsightCategory string

const (
	InsightPerformance InsightCategory = "performance"
	InsightCornering   InsightCategory = "cornering"
	InsightBraking     InsightCategory = "braking"
	InsightConsistency InsightCategory = "consistency"
)

// Insight is a textual coaching item traceable to its numeric trigger.
type Insight struct {
	Category InsightCategory `json:"category"`
	Message  string          `json:"message"`
	Metric   string          `json:"metric"`
	Value    float64         `json:"value"`
	Severity float64         `json:"severity"` // used for ranking
}

type BestLap struct {
	Time  float64 `json:"time"`
	Track string  `json:"track"`
	Car   string  `json:"car"`
}

type Statistics struct {
	SessionCount int      `json:"sessionCount"`
	Tracks       []string `json:"tracks"`
	Cars         []string `json:"cars"`
	BestLap      *BestLap `json:"bestLap,omitempty"`
}

// AdvancedLapMetrics are the per-lap G-force and technique aggregates.
type AdvancedLapMetrics struct {
	LapNum              int     `json:"lapNum"`
	MaxLatG             float64 `json:"maxLatG"`
	MaxLonG             float64 `json:"maxLonG"`
	MaxCombinedG        float64 `json:"maxCombinedG"`
	AvgCombinedG        float64 `json:"avgCombinedG"`
	CornerCount         int     `json:"cornerCount"`
	BrakingZoneCount    int     `json:"brakingZoneCount"`
	CorneringEfficiency float64 `json:"corneringEfficiency"` // 0-100
	BrakingConsistency  float64 `json:"brakingConsistency"`  // 0-100
	TrailBrakingTime    float64 `json:"trailBrakingTime"`    // seconds of throttle/brake overlap
}
