package processing

import (
	"math"
	"testing"

	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/testsupport/basedata"
)

func TestSessionProcessor_Process(t *testing.T) {
	session := basedata.SampleSession(
		basedata.WithLapCount(3),
		basedata.WithPaceFactors([]float64{0.98, 1.0, 1.01}))
	res := NewSessionProcessor().Process(session, "fp-1")

	if res.Fingerprint != "fp-1" {
		t.Errorf("fingerprint = %q, want fp-1", res.Fingerprint)
	}
	if len(res.Unavailable) != 0 {
		t.Fatalf("unavailable = %v, want none on a complete session", res.Unavailable)
	}
	if len(res.Laps) != 3 {
		t.Fatalf("laps = %d, want 3", len(res.Laps))
	}
	for i := range res.Laps {
		if res.Features[i] == nil {
			t.Errorf("lap %d features missing", res.Laps[i].Num)
		}
		if len(res.Corners[i]) == 0 {
			t.Errorf("lap %d has no corners", res.Laps[i].Num)
		}
	}
	if res.SessionScore == nil || res.SessionScore.BestLapNum != 3 {
		t.Errorf("session score = %+v, want best lap 3", res.SessionScore)
	}
	if len(res.LapScores) != 3 {
		t.Errorf("lap scores = %d, want 3", len(res.LapScores))
	}
}

func TestSessionProcessor_MissingBrakeChannelDegradesCorners(t *testing.T) {
	session := basedata.SampleSession(
		basedata.WithChannels([]model.Channel{
			model.ChannelTime, model.ChannelSpeed, model.ChannelThrottle,
			model.ChannelLapDistPct, model.ChannelLapNumber,
		}))
	res := NewSessionProcessor().Process(session, "fp-2")

	if _, ok := res.Unavailable[CapCorners]; !ok {
		t.Error("corners not marked unavailable without a brake channel")
	}
	if _, ok := res.Unavailable[CapSetup]; !ok {
		t.Error("setup advice not degraded with corners unavailable")
	}
	// scoring only needs lap times; it must survive the missing channel
	if _, ok := res.Unavailable[CapScores]; ok {
		t.Errorf("scores degraded: %v", res.Unavailable[CapScores])
	}
	if res.SessionScore == nil || res.SessionScore.BestLapTime <= 0 {
		t.Errorf("session score = %+v, want timed best lap", res.SessionScore)
	}
}

func TestSessionProcessor_EmptySessionDegradesEverything(t *testing.T) {
	session := model.NewSession(basedata.SampleInfo(), nil, nil)
	res := NewSessionProcessor().Process(session, "fp-3")

	for _, c := range []Capability{
		CapLaps, CapCorners, CapScores, CapConsistency, CapSetup, CapStrategy,
	} {
		if _, ok := res.Unavailable[c]; !ok {
			t.Errorf("capability %s not marked unavailable", c)
		}
	}
	if res.SessionScore != nil {
		t.Errorf("session score = %+v, want nil", res.SessionScore)
	}
}

func TestSessionProcessor_SingleLapConsistencyUnavailable(t *testing.T) {
	session := basedata.SampleSession(basedata.WithLapCount(1))
	res := NewSessionProcessor().Process(session, "fp-4")

	if _, ok := res.Unavailable[CapConsistency]; !ok {
		t.Error("consistency not marked unavailable for a single lap")
	}
	if _, ok := res.Unavailable[CapScores]; ok {
		t.Error("scores degraded for a single lap, want available")
	}
}

func TestSessionProcessor_Strategy(t *testing.T) {
	sp := NewSessionProcessor()
	res := sp.Process(basedata.SampleSession(), "fp-5")

	plan, err := sp.Strategy(res, 20, 60)
	if err != nil {
		t.Fatalf("Strategy() error = %v", err)
	}
	if plan.TargetLaps != 20 {
		t.Errorf("target laps = %d, want 20", plan.TargetLaps)
	}
	if plan.FuelNeeded <= 0 || plan.TotalTime <= 0 {
		t.Errorf("plan = %+v, want positive fuel and time", plan)
	}

	empty := sp.Process(model.NewSession(basedata.SampleInfo(), nil, nil), "fp-6")
	if _, err := sp.Strategy(empty, 20, 60); err == nil {
		t.Error("Strategy() on degraded session succeeded, want error")
	}
}

func TestSessionProcessor_Compare(t *testing.T) {
	sp := NewSessionProcessor()
	a := sp.Process(basedata.SampleSession(basedata.WithLapCount(2)), "fp-a")
	b := sp.Process(basedata.SampleSession(
		basedata.WithLapCount(2),
		basedata.WithPaceFactors([]float64{0.95, 0.95})), "fp-b")

	res, err := sp.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	final := res.TimeDelta[len(res.TimeDelta)-1]
	if final <= 0 {
		t.Errorf("final delta = %.3f, want > 0 against the slower session", final)
	}

	self, err := sp.Compare(a, a)
	if err != nil {
		t.Fatalf("Compare() self error = %v", err)
	}
	for _, d := range self.TimeDelta {
		if math.Abs(d) > 1e-9 {
			t.Fatalf("self comparison delta = %g, want 0", d)
		}
	}
}
