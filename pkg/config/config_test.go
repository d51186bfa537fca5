package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAnalysisParams(t *testing.T) {
	got, err := LoadAnalysisParams("")
	if err != nil {
		t.Fatalf("LoadAnalysisParams() error = %v", err)
	}
	if got.BrakeThreshold != DefaultAnalysisParams().BrakeThreshold {
		t.Errorf("empty path did not yield defaults: %+v", got)
	}

	path := filepath.Join(t.TempDir(), "params.yml")
	data := []byte("brakeThreshold: 0.25\nstrategy:\n  pitTimeSec: 60\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = LoadAnalysisParams(path)
	if err != nil {
		t.Fatalf("LoadAnalysisParams() error = %v", err)
	}
	if got.BrakeThreshold != 0.25 {
		t.Errorf("brakeThreshold = %v, want the file value 0.25", got.BrakeThreshold)
	}
	if got.Strategy.PitTimeSec != 60 {
		t.Errorf("pitTimeSec = %v, want the file value 60", got.Strategy.PitTimeSec)
	}
	// untouched values keep their defaults
	if got.ConsistencyK != DefaultAnalysisParams().ConsistencyK {
		t.Errorf("consistencyK = %v, want default", got.ConsistencyK)
	}

	if _, err := LoadAnalysisParams(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("LoadAnalysisParams() on missing file succeeded, want error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(bad, []byte("tightPct: 0.8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAnalysisParams(bad); err == nil {
		t.Error("LoadAnalysisParams() accepted tightPct above fastPct")
	}
}

func TestAnalysisParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *AnalysisParams)
		wantErr bool
	}{
		{name: "defaults", mutate: func(p *AnalysisParams) {}, wantErr: false},
		{
			name:    "wrap bounds inverted",
			mutate:  func(p *AnalysisParams) { p.WrapDropFrom = 0.1; p.WrapDropTo = 0.9 },
			wantErr: true,
		},
		{
			name:    "brake threshold out of range",
			mutate:  func(p *AnalysisParams) { p.BrakeThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "class percentiles inverted",
			mutate:  func(p *AnalysisParams) { p.TightPct = 0.5; p.FastPct = 0.2 },
			wantErr: true,
		},
		{
			name:    "trend window too small",
			mutate:  func(p *AnalysisParams) { p.TrendWindow = 1 },
			wantErr: true,
		},
		{
			name:    "unknown degradation curve",
			mutate:  func(p *AnalysisParams) { p.Strategy.DegradationCurve = "quadratic" },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultAnalysisParams()
			tt.mutate(p)
			if err := p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
