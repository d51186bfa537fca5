package segment

import (
	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/config"
	"github.com/apexcoach/telemetry-coach/pkg/model"
)

type (
	Segmenter struct {
		params *config.AnalysisParams
		l      *log.Logger
	}
	Option func(*Segmenter)
)

func WithParams(p *config.AnalysisParams) Option {
	return func(sg *Segmenter) {
		sg.params = p
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(sg *Segmenter) {
		sg.l = arg
	}
}

func NewSegmenter(opts ...Option) *Segmenter {
	sg := &Segmenter{
		params: config.DefaultAnalysisParams(),
		l:      log.Default().Named("segment"),
	}
	for _, opt := range opts {
		opt(sg)
	}
	return sg
}

// Segment partitions the session sample sequence into laps. A new lap is
// opened when the lap number changes or, lacking a lap-number change, when
// the lap distance wraps from above WrapDropFrom to below WrapDropTo.
// The returned lap ranges cover the full sample range with no overlaps.
func (sg *Segmenter) Segment(s *model.Session) ([]model.Lap, error) {
	if len(s.Samples) < 2 {
		return nil, &model.InsufficientDataError{
			What: "lap segmentation", Needed: 2, Got: len(s.Samples),
		}
	}
	hasLapNum := s.HasChannel(model.ChannelLapNumber)

	laps := make([]model.Lap, 0)
	cur := model.Lap{Num: s.Samples[0].Lap, Start: 0}
	for i := 1; i < len(s.Samples); i++ {
		prev, smp := s.Samples[i-1], s.Samples[i]
		boundary := false
		switch {
		case hasLapNum && smp.Lap != prev.Lap:
			boundary = true
		case prev.LapDistPct > sg.params.WrapDropFrom &&
			smp.LapDistPct < sg.params.WrapDropTo:
			// a distance wrap counts even when the lap counter froze
			boundary = true
		}
		if boundary {
			cur.End = i
			laps = append(laps, cur)
			num := cur.Num + 1
			if hasLapNum && smp.Lap != prev.Lap {
				num = smp.Lap
			}
			cur = model.Lap{Num: num, Start: i}
		}
	}
	cur.End = len(s.Samples)
	laps = append(laps, cur)

	sg.flagPartials(s, laps)
	sg.l.Debug("segmented session",
		log.Int("samples", len(s.Samples)), log.Int("laps", len(laps)))
	return laps, nil
}

// flagPartials marks the first/last lap partial when they do not
// start/end near the start line.
func (sg *Segmenter) flagPartials(s *model.Session, laps []model.Lap) {
	if len(laps) == 0 {
		return
	}
	first := &laps[0]
	if s.Samples[first.Start].LapDistPct > sg.params.WrapDropTo {
		first.Partial = true
	}
	last := &laps[len(laps)-1]
	if s.Samples[last.End-1].LapDistPct < sg.params.WrapDropFrom {
		last.Partial = true
	}
}
