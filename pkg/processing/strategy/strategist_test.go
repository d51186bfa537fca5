package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/pkg/processing/features"
)

func planParams(targetLaps int) *PlanParams {
	return &PlanParams{
		TargetLaps:   targetLaps,
		TankCapacity: 60,
		FuelPerLap:   2.5,
		AvgLap:       90,
		Assumptions:  config.DefaultAnalysisParams().Strategy,
	}
}

func TestFuelPlanCalc_Calc(t *testing.T) {
	tests := []struct {
		name    string
		param   *PlanParams
		wantErr bool
	}{
		{name: "sprint without stop", param: planParams(10), wantErr: false},
		{name: "race with stops", param: planParams(30), wantErr: false},
		{
			name: "zero target laps",
			param: &PlanParams{
				TankCapacity: 60, FuelPerLap: 2.5, AvgLap: 90,
				Assumptions: config.DefaultAnalysisParams().Strategy,
			},
			wantErr: true,
		},
		{
			name: "missing fuel estimate",
			param: &PlanParams{
				TargetLaps: 10, TankCapacity: 60, AvgLap: 90,
				Assumptions: config.DefaultAnalysisParams().Strategy,
			},
			wantErr: true,
		},
		{
			name: "tank below one lap",
			param: &PlanParams{
				TargetLaps: 10, TankCapacity: 2, FuelPerLap: 2.5, AvgLap: 90,
				Assumptions: config.DefaultAnalysisParams().Strategy,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFuelPlanCalc(tt.param).Calc()
			if (err != nil) != tt.wantErr {
				t.Errorf("Calc() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// checkStints verifies no stint exceeds the tank range and windows ascend.
func checkStints(t *testing.T, plan *model.StrategyPlan) {
	t.Helper()
	prev := 0
	for _, w := range append(append([]int{}, plan.PitWindows...), plan.TargetLaps) {
		if w <= prev {
			t.Errorf("%s: pit windows not ascending: %v", plan.Name, plan.PitWindows)
		}
		if w-prev > plan.LapsPerTank {
			t.Errorf("%s: stint %d..%d exceeds tank range of %d laps",
				plan.Name, prev, w, plan.LapsPerTank)
		}
		prev = w
	}
}

func TestFuelPlanCalc_RaceWithStops(t *testing.T) {
	p := planParams(30)
	plan, err := NewFuelPlanCalc(p).Calc()
	if err != nil {
		t.Fatalf("Calc() error = %v", err)
	}

	effPerLap := p.FuelPerLap * (1 + p.Assumptions.FuelSafetyMargin)
	if math.Abs(plan.FuelNeeded-effPerLap*float64(p.TargetLaps)) > 1e-9 {
		t.Errorf("FuelNeeded = %.3f, want %.3f", plan.FuelNeeded, effPerLap*30)
	}
	wantPerTank := int(p.TankCapacity * (1 - p.Assumptions.FuelReserve) / effPerLap)
	if plan.LapsPerTank != wantPerTank {
		t.Errorf("LapsPerTank = %d, want %d", plan.LapsPerTank, wantPerTank)
	}
	if len(plan.PitWindows) == 0 {
		t.Fatal("expected at least one pit stop over a full-tank distance")
	}
	checkStints(t, plan)

	// every stop costs pit time, every lap on worn tires costs falloff
	floor := float64(p.TargetLaps)*p.AvgLap +
		float64(len(plan.PitWindows))*p.Assumptions.PitTimeSec
	if plan.TotalTime <= floor {
		t.Errorf("TotalTime = %.1f, want above %.1f", plan.TotalTime, floor)
	}

	wantAlts := map[string]int{"extra-stop": len(plan.PitWindows) + 1, "even-stints": len(plan.PitWindows)}
	for _, alt := range plan.Alternatives {
		stops, ok := wantAlts[alt.Name]
		if !ok {
			t.Errorf("unexpected alternative %q", alt.Name)
			continue
		}
		if len(alt.PitWindows) != stops {
			t.Errorf("%s: stops = %d, want %d", alt.Name, len(alt.PitWindows), stops)
		}
		checkStints(t, &alt)
		if alt.FuelNeeded != plan.FuelNeeded {
			t.Errorf("%s: FuelNeeded = %.3f, want %.3f", alt.Name, alt.FuelNeeded, plan.FuelNeeded)
		}
	}
}

func TestFuelPlanCalc_SprintWithoutStop(t *testing.T) {
	plan, err := NewFuelPlanCalc(planParams(10)).Calc()
	if err != nil {
		t.Fatalf("Calc() error = %v", err)
	}
	if len(plan.PitWindows) != 0 {
		t.Errorf("PitWindows = %v, want none for a sprint", plan.PitWindows)
	}
	// an extra stop is still offered for comparison, even stints are not
	if len(plan.Alternatives) != 1 || plan.Alternatives[0].Name != "extra-stop" {
		t.Fatalf("alternatives = %+v, want a single extra-stop plan", plan.Alternatives)
	}
	if plan.TotalTime >= plan.Alternatives[0].TotalTime {
		t.Errorf("no-stop time %.1f not below extra-stop time %.1f",
			plan.TotalTime, plan.Alternatives[0].TotalTime)
	}
}

func TestDegradation(t *testing.T) {
	linear := config.DefaultAnalysisParams().Strategy
	expo := linear
	expo.DegradationCurve = "exponential"

	if got := degradation(0, linear); got != 0 {
		t.Errorf("fresh tire degradation = %.3f, want 0", got)
	}
	if degradation(5, linear) >= degradation(10, linear) {
		t.Error("linear degradation not increasing with age")
	}
	// past tire life the exponential curve must outrun the linear one
	age := linear.TireLifeLaps * 2
	if degradation(age, expo) <= degradation(age, linear) {
		t.Error("exponential curve below linear past tire life")
	}
}

func TestEstimateFuelPerLap(t *testing.T) {
	assumptions := config.DefaultAnalysisParams().Strategy
	lf := func(proxy float64) *features.LapFeatures {
		return &features.LapFeatures{
			Aggregates: features.LapAggregates{FuelProxy: proxy},
		}
	}

	got, err := EstimateFuelPerLap([]*features.LapFeatures{lf(20), nil, lf(30)}, assumptions)
	if err != nil {
		t.Fatalf("EstimateFuelPerLap() error = %v", err)
	}
	want := 25 * assumptions.FuelPerThrottleSec
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("EstimateFuelPerLap() = %.4f, want %.4f", got, want)
	}

	_, err = EstimateFuelPerLap([]*features.LapFeatures{nil}, assumptions)
	var insufficient *model.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Errorf("EstimateFuelPerLap() error = %v, want InsufficientDataError", err)
	}
}
