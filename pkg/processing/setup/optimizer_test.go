package setup

import (
	"testing"

	"github.com/apexcoach/telemetry-coach/pkg/model"
)

func baseSignature() *Signature {
	return &Signature{
		LapCount: 5,
		CornerCount: map[model.CornerClass]int{
			model.CornerTight: 6, model.CornerMedium: 6, model.CornerFast: 6,
		},
		AvgSpeedLossFrac:  map[model.CornerClass]float64{},
		AvgEntryLatG:      map[model.CornerClass]float64{},
		ApexSpeedCV:       map[model.CornerClass]float64{},
		ConsistencyOK:     true,
		ConsistencyRating: 8.5,
		BrakingZoneCount:  12,
		BrakingEfficiency: 0.8,
		PeakDecelCV:       0.03,
	}
}

func TestRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(sig *Signature)
		rule    string
		want    bool
		wantArg string // expected Parameter when the rule fires
	}{
		{
			name: "understeer signature fires front-grip",
			mutate: func(sig *Signature) {
				sig.AvgSpeedLossFrac[model.CornerTight] = 0.7
				sig.AvgEntryLatG[model.CornerTight] = 1.2
				sig.ApexSpeedCV[model.CornerTight] = 0.02
			},
			rule: "front-grip", want: true, wantArg: "front suspension",
		},
		{
			name: "inconsistent driver suppresses front-grip",
			mutate: func(sig *Signature) {
				sig.AvgSpeedLossFrac[model.CornerTight] = 0.7
				sig.AvgEntryLatG[model.CornerTight] = 1.2
				sig.ApexSpeedCV[model.CornerTight] = 0.12
			},
			rule: "front-grip", want: false,
		},
		{
			name: "apex scatter fires driver-consistency",
			mutate: func(sig *Signature) {
				sig.ApexSpeedCV[model.CornerMedium] = 0.11
			},
			rule: "driver-consistency", want: true, wantArg: "driver",
		},
		{
			name: "low rating fires suspension-compliance",
			mutate: func(sig *Signature) {
				sig.ConsistencyRating = 4.0
			},
			rule: "suspension-compliance", want: true, wantArg: "suspension stiffness",
		},
		{
			name: "unavailable consistency suppresses suspension-compliance",
			mutate: func(sig *Signature) {
				sig.ConsistencyOK = false
				sig.ConsistencyRating = 0
			},
			rule: "suspension-compliance", want: false,
		},
		{
			name: "unsustained decel fires brake-bias",
			mutate: func(sig *Signature) {
				sig.BrakingEfficiency = 0.4
			},
			rule: "brake-bias", want: true, wantArg: "brake bias",
		},
		{
			name: "scattered peaks suppress brake-bias",
			mutate: func(sig *Signature) {
				sig.BrakingEfficiency = 0.4
				sig.PeakDecelCV = 0.3
			},
			rule: "brake-bias", want: false,
		},
		{
			name: "scattered peaks fire braking-technique",
			mutate: func(sig *Signature) {
				sig.PeakDecelCV = 0.3
			},
			rule: "braking-technique", want: true, wantArg: "driver",
		},
		{
			name: "fast layout with low loss fires downforce-trim",
			mutate: func(sig *Signature) {
				sig.FastShare = 0.6
				sig.AvgSpeedLossFrac[model.CornerFast] = 0.08
			},
			rule: "downforce-trim", want: true, wantArg: "rear wing",
		},
		{
			name:   "neutral signature fires nothing",
			mutate: func(sig *Signature) {},
			rule:   "front-grip", want: false,
		},
	}
	rules := map[string]Rule{}
	for _, r := range DefaultRules() {
		rules[r.Name] = r
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := baseSignature()
			tt.mutate(sig)
			rec := rules[tt.rule].Evaluate(sig)
			if (rec != nil) != tt.want {
				t.Fatalf("rule %s fired = %v, want %v", tt.rule, rec != nil, tt.want)
			}
			if rec == nil {
				return
			}
			if rec.Parameter != tt.wantArg {
				t.Errorf("parameter = %q, want %q", rec.Parameter, tt.wantArg)
			}
			if rec.Confidence <= 0 || rec.Confidence > 1 {
				t.Errorf("confidence = %.3f, want in (0,1]", rec.Confidence)
			}
		})
	}
}

func TestRank(t *testing.T) {
	recs := []model.SetupRecommendation{
		{Parameter: "driver", Confidence: 0.4},
		{Parameter: "brake bias", Confidence: 0.9},
		{Parameter: "driver", Confidence: 0.7},
	}
	got := Rank(recs)
	if len(got) != 2 {
		t.Fatalf("ranked = %d entries, want 2 after dedupe", len(got))
	}
	if got[0].Parameter != "brake bias" {
		t.Errorf("top recommendation = %s, want brake bias", got[0].Parameter)
	}
	if got[1].Parameter != "driver" || got[1].Confidence != 0.7 {
		t.Errorf("kept %s/%.1f, want the stronger driver entry",
			got[1].Parameter, got[1].Confidence)
	}
}

func TestOptimizer_Recommend(t *testing.T) {
	sig := baseSignature()
	sig.AvgSpeedLossFrac[model.CornerTight] = 0.7
	sig.AvgEntryLatG[model.CornerTight] = 1.2
	sig.ApexSpeedCV[model.CornerTight] = 0.02
	sig.ConsistencyRating = 4.0

	recs := NewOptimizer().Recommend(sig)
	if len(recs) != 2 {
		t.Fatalf("recommendations = %d, want 2", len(recs))
	}
	params := map[string]bool{}
	for _, r := range recs {
		params[r.Parameter] = true
	}
	if !params["front suspension"] || !params["suspension stiffness"] {
		t.Errorf("unexpected parameters %v", params)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Confidence > recs[i-1].Confidence {
			t.Errorf("recommendations not sorted by confidence at %d", i)
		}
	}
}
