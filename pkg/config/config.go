package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// this holds the resolved configuration values from CLI
var (
	LogLevel     string // sets the log level (zap log level values)
	LogFormat    string // text vs json
	LogFilter    string // zapfilter rules for per-component debug output
	ParamsFile   string // path to analysis parameter file (yaml)
	TelemetryDir string // folder containing decoded telemetry exports
	SettleDelay  string // duration to wait after a file change before ingesting
)

// AnalysisParams holds the tunable parameters of the analysis pipeline.
// None of these are measured facts; they are track/car-dependent estimates
// and must stay configurable.
type AnalysisParams struct {
	// lap segmentation
	WrapDropFrom float64 `yaml:"wrapDropFrom"` // lap distance above this ...
	WrapDropTo   float64 `yaml:"wrapDropTo"`   // ... dropping below this counts as a wrap

	// braking zone detection
	BrakeThreshold float64 `yaml:"brakeThreshold"` // normalized brake input opening a zone
	BrakeDwell     float64 `yaml:"brakeDwell"`     // seconds below threshold before a zone closes
	MinZoneTime    float64 `yaml:"minZoneTime"`    // zones shorter than this are discarded

	// corner detection and classification
	ExitThrottle float64 `yaml:"exitThrottle"` // throttle level marking corner exit
	TightPct     float64 `yaml:"tightPct"`     // apex speed below this session percentile: tight
	FastPct      float64 `yaml:"fastPct"`      // apex speed above this session percentile: fast

	// scoring
	ConsistencyK  float64 `yaml:"consistencyK"`  // decay factor in 10*exp(-k*cv)
	TrendWindow   int     `yaml:"trendWindow"`   // trailing laps used for the trend slope
	TrendDeadband float64 `yaml:"trendDeadband"` // slope fraction of median below which trend is stable

	Strategy StrategyParams `yaml:"strategy"`
}

// StrategyParams are the race simulation assumptions.
type StrategyParams struct {
	FuelSafetyMargin float64 `yaml:"fuelSafetyMargin"` // fraction added to measured fuel per lap
	FuelReserve      float64 `yaml:"fuelReserve"`      // fraction of tank kept as reserve
	PitTimeSec       float64 `yaml:"pitTimeSec"`       // full pit stop time loss
	TireLifeLaps     int     `yaml:"tireLifeLaps"`     // laps before significant degradation
	DegradationCurve string  `yaml:"degradationCurve"` // linear | exponential
	PaceFalloff      float64 `yaml:"paceFalloff"`      // seconds lost per lap of tire age
	// FuelPerThrottleSec converts the throttle-time fuel proxy into liters
	// when no fuel channel exists. A rough per-car estimate, not physics.
	FuelPerThrottleSec float64 `yaml:"fuelPerThrottleSec"`
}

func DefaultAnalysisParams() *AnalysisParams {
	return &AnalysisParams{
		WrapDropFrom:   0.9,
		WrapDropTo:     0.1,
		BrakeThreshold: 0.15,
		BrakeDwell:     0.3,
		MinZoneTime:    0.2,
		ExitThrottle:   0.4,
		TightPct:       0.10,
		FastPct:        0.25,
		ConsistencyK:   10.0,
		TrendWindow:    3,
		TrendDeadband:  0.002,
		Strategy: StrategyParams{
			FuelSafetyMargin:   0.05,
			FuelReserve:        0.03,
			PitTimeSec:         45.0,
			TireLifeLaps:       30,
			DegradationCurve:   "linear",
			PaceFalloff:        0.05,
			FuelPerThrottleSec: 0.08,
		},
	}
}

// LoadAnalysisParams reads params from a yaml file, applying them on top
// of the defaults. An empty path returns the defaults.
func LoadAnalysisParams(path string) (*AnalysisParams, error) {
	ret := DefaultAnalysisParams()
	if path == "" {
		return ret, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading params file: %w", err)
	}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("parsing params file %s: %w", path, err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *AnalysisParams) Validate() error {
	if p.WrapDropFrom <= p.WrapDropTo {
		return fmt.Errorf("wrapDropFrom (%.2f) must be above wrapDropTo (%.2f)",
			p.WrapDropFrom, p.WrapDropTo)
	}
	if p.BrakeThreshold <= 0 || p.BrakeThreshold >= 1 {
		return fmt.Errorf("brakeThreshold must be in (0,1), got %.2f", p.BrakeThreshold)
	}
	if p.TightPct >= p.FastPct {
		return fmt.Errorf("tightPct (%.2f) must be below fastPct (%.2f)",
			p.TightPct, p.FastPct)
	}
	if p.TrendWindow < 2 {
		return fmt.Errorf("trendWindow must be at least 2, got %d", p.TrendWindow)
	}
	switch p.Strategy.DegradationCurve {
	case "linear", "exponential":
	default:
		return fmt.Errorf("unknown degradation curve %q", p.Strategy.DegradationCurve)
	}
	return nil
}
