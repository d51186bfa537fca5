package segment

import (
	"errors"
	"slices"
	"testing"

	"github.com/apexcoach/telemetry-coach/pkg/model"
	"github.com/apexcoach/telemetry-coach/testsupport/basedata"
)

func TestSegmenter_Segment_PartitionExact(t *testing.T) {
	session := basedata.SampleSession(basedata.WithLapCount(4))
	laps, err := NewSegmenter().Segment(session)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(laps) != 4 {
		t.Fatalf("Segment() laps = %d, want 4", len(laps))
	}
	// every sample belongs to exactly one lap, no gaps or overlaps
	if laps[0].Start != 0 {
		t.Errorf("first lap starts at %d, want 0", laps[0].Start)
	}
	for i := 1; i < len(laps); i++ {
		if laps[i].Start != laps[i-1].End {
			t.Errorf("gap/overlap between lap %d and %d: end=%d start=%d",
				i-1, i, laps[i-1].End, laps[i].Start)
		}
	}
	if laps[len(laps)-1].End != len(session.Samples) {
		t.Errorf("last lap ends at %d, want %d",
			laps[len(laps)-1].End, len(session.Samples))
	}
}

func TestSegmenter_Segment_WrapWithoutLapChannel(t *testing.T) {
	channels := []model.Channel{
		model.ChannelTime, model.ChannelSpeed, model.ChannelThrottle,
		model.ChannelBrake, model.ChannelLatAccel, model.ChannelLonAccel,
		model.ChannelLapDistPct,
	}
	session := basedata.SampleSession(
		basedata.WithLapCount(3),
		basedata.WithChannels(channels))
	laps, err := NewSegmenter().Segment(session)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(laps) != 3 {
		t.Errorf("Segment() laps = %d, want 3 from distance wrap detection", len(laps))
	}
}

func TestSegmenter_Segment_FrozenLapCounter(t *testing.T) {
	session := basedata.SampleSession(basedata.WithLapCount(3))
	samples := slices.Clone(session.Samples)
	for i := range samples {
		samples[i].Lap = 1
	}
	frozen := model.NewSession(session.Info, samples, session.Channels())
	laps, err := NewSegmenter().Segment(frozen)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(laps) != 3 {
		t.Fatalf("Segment() laps = %d, want 3 from distance wrap with a stuck counter",
			len(laps))
	}
	for i, lap := range laps {
		if lap.Num != i+1 {
			t.Errorf("lap at index %d numbered %d, want %d", i, lap.Num, i+1)
		}
	}
}

func TestSegmenter_Segment_PartialFlags(t *testing.T) {
	session := basedata.SampleSession(basedata.WithLapCount(3))
	// cut the session mid-lap on both ends
	cut := model.NewSession(session.Info,
		session.Samples[80:len(session.Samples)-80], session.Channels())
	laps, err := NewSegmenter().Segment(cut)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if !laps[0].Partial {
		t.Errorf("first lap not flagged partial, starts at pct %.3f",
			cut.Samples[laps[0].Start].LapDistPct)
	}
	if !laps[len(laps)-1].Partial {
		t.Errorf("last lap not flagged partial, ends at pct %.3f",
			cut.Samples[laps[len(laps)-1].End-1].LapDistPct)
	}
}

func TestSegmenter_Segment_InsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		samples []model.Sample
	}{
		{name: "empty", samples: nil},
		{name: "single sample", samples: []model.Sample{{T: 1, Lap: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := model.NewSession(basedata.SampleInfo(), tt.samples,
				[]model.Channel{model.ChannelTime, model.ChannelLapNumber})
			_, err := NewSegmenter().Segment(session)
			var insufficientErr *model.InsufficientDataError
			if !errors.As(err, &insufficientErr) {
				t.Errorf("Segment() error = %v, want InsufficientDataError", err)
			}
		})
	}
}
