package strategy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing/features"
)

type (
	// PlanParams is the input of one race simulation. FuelPerLap and
	// AvgLap come from session telemetry, the rest from the request and
	// the configured assumptions.
	PlanParams struct {
		TargetLaps   int
		TankCapacity float64 // liters
		FuelPerLap   float64 // liters, measured estimate without margin
		AvgLap       float64 // seconds
		Assumptions  config.StrategyParams
	}
	CalcPlan interface {
		Calc() (*model.StrategyPlan, error)
	}
	fuelPlanCalc struct {
		param *PlanParams
	}
	Strategist struct {
		params *config.AnalysisParams
		l      *log.Logger
	}
	Option func(*Strategist)
)

func WithParams(p *config.AnalysisParams) Option {
	return func(st *Strategist) {
		st.params = p
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(st *Strategist) {
		st.l = arg
	}
}

func NewStrategist(opts ...Option) *Strategist {
	st := &Strategist{
		params: config.DefaultAnalysisParams(),
		l:      log.Default().Named("strategy"),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// EstimateFuelPerLap converts the throttle-time fuel proxy of the timed
// laps into a liters-per-lap estimate. An approximation: without a fuel
// channel the proxy only scales with throttle usage, the configured
// conversion factor carries the car dependence.
func EstimateFuelPerLap(lapFeatures []*features.LapFeatures, assumptions config.StrategyParams) (float64, error) {
	var proxies []float64
	for _, lf := range lapFeatures {
		if lf != nil && lf.Aggregates.FuelProxy > 0 {
			proxies = append(proxies, lf.Aggregates.FuelProxy)
		}
	}
	if len(proxies) == 0 {
		return 0, &model.InsufficientDataError{
			What: "fuel estimation", Needed: 1, Got: 0,
		}
	}
	return stat.Mean(proxies, nil) * assumptions.FuelPerThrottleSec, nil
}

// Plan runs the primary simulation plus the alternative layouts.
func (st *Strategist) Plan(p *PlanParams) (*model.StrategyPlan, error) {
	plan, err := NewFuelPlanCalc(p).Calc()
	if err != nil {
		return nil, err
	}
	st.l.Debug("strategy planned",
		log.Int("targetLaps", p.TargetLaps),
		log.Int("stops", len(plan.PitWindows)),
		log.Int("alternatives", len(plan.Alternatives)))
	return plan, nil
}

func NewFuelPlanCalc(param *PlanParams) CalcPlan {
	return &fuelPlanCalc{param: param}
}

func (c *fuelPlanCalc) Calc() (*model.StrategyPlan, error) {
	p := c.param
	if p.TargetLaps < 1 || p.TankCapacity <= 0 || p.FuelPerLap <= 0 || p.AvgLap <= 0 {
		return nil, fmt.Errorf("invalid plan parameters: %+v", p)
	}
	effPerLap := p.FuelPerLap * (1 + p.Assumptions.FuelSafetyMargin)
	usable := p.TankCapacity * (1 - p.Assumptions.FuelReserve)
	lapsPerTank := int(usable / effPerLap)
	if lapsPerTank < 1 {
		return nil, fmt.Errorf("tank of %.1fl does not cover a single lap at %.2fl/lap",
			p.TankCapacity, effPerLap)
	}

	primary := c.buildPlan("primary", fuelLimitedWindows(p.TargetLaps, lapsPerTank), effPerLap, lapsPerTank)
	if alt := c.alternative("extra-stop", len(primary.PitWindows)+1, effPerLap, lapsPerTank); alt != nil {
		primary.Alternatives = append(primary.Alternatives, *alt)
	}
	if stops := len(primary.PitWindows); stops > 0 {
		if alt := c.alternative("even-stints", stops, effPerLap, lapsPerTank); alt != nil {
			primary.Alternatives = append(primary.Alternatives, *alt)
		}
	}
	return &primary, nil
}

// fuelLimitedWindows are the latest laps at which the car must pit before
// running into the fuel reserve.
func fuelLimitedWindows(targetLaps, lapsPerTank int) []int {
	var windows []int
	for lap := lapsPerTank; lap < targetLaps; lap += lapsPerTank {
		windows = append(windows, lap)
	}
	return windows
}

// evenWindows spreads the given stop count evenly over the race.
func evenWindows(targetLaps, stops int) []int {
	windows := make([]int, 0, stops)
	for i := 1; i <= stops; i++ {
		windows = append(windows, i*targetLaps/(stops+1))
	}
	return windows
}

// alternative builds an evenly spaced layout with the given stop count,
// or nil when a stint would not fit the tank.
func (c *fuelPlanCalc) alternative(name string, stops int, effPerLap float64, lapsPerTank int) *model.StrategyPlan {
	windows := evenWindows(c.param.TargetLaps, stops)
	prev := 0
	for _, w := range append(windows, c.param.TargetLaps) {
		if w-prev > lapsPerTank || w <= prev {
			return nil
		}
		prev = w
	}
	plan := c.buildPlan(name, windows, effPerLap, lapsPerTank)
	return &plan
}

// buildPlan simulates the race over the pit layout: fuel burn per lap and
// a stint pace falloff from the tire degradation curve.
func (c *fuelPlanCalc) buildPlan(name string, windows []int, effPerLap float64, lapsPerTank int) model.StrategyPlan {
	p := c.param
	plan := model.StrategyPlan{
		Name:        name,
		TargetLaps:  p.TargetLaps,
		FuelPerLap:  effPerLap,
		LapsPerTank: lapsPerTank,
		PitWindows:  windows,
		FuelNeeded:  effPerLap * float64(p.TargetLaps),
	}
	nextStop := 0
	stintAge := 0
	for lap := 1; lap <= p.TargetLaps; lap++ {
		plan.TotalTime += p.AvgLap + degradation(stintAge, p.Assumptions)
		stintAge++
		if nextStop < len(windows) && lap == windows[nextStop] {
			plan.TotalTime += p.Assumptions.PitTimeSec
			nextStop++
			stintAge = 0
		}
	}
	return plan
}

// degradation is the synthetic stint pace falloff in seconds at the given
// tire age. Both curves share the per-lap falloff parameter; the
// exponential one compounds as the tire passes its life estimate.
func degradation(age int, assumptions config.StrategyParams) float64 {
	if age <= 0 {
		return 0
	}
	life := float64(assumptions.TireLifeLaps)
	switch assumptions.DegradationCurve {
	case "exponential":
		return assumptions.PaceFalloff * life * (math.Exp(float64(age)/life) - 1)
	default:
		return assumptions.PaceFalloff * float64(age)
	}
}
