package ingest

import (
	"fmt"
	"os"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/apexcoach/telemetry-coach/log"
	"github.com/apexcoach/telemetry-coach/pkg/model"
)

type (
	// sessionFile is the wire shape of a decoded telemetry export.
	// Samples come as flat objects keyed by channel name; the optional
	// channels list declares which channels the decoder actually emitted.
	sessionFile struct {
		Session  model.SessionInfo `json:"session"`
		Channels []string          `json:"channels"`
		Samples  []model.Sample    `json:"samples"`
	}
	Reader struct {
		l *log.Logger
	}
	Option func(*Reader)
)

func WithLogger(arg *log.Logger) Option {
	return func(r *Reader) {
		r.l = arg
	}
}

func NewReader(opts ...Option) *Reader {
	r := &Reader{l: log.Default().Named("ingest")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFile loads one decoded session export from disk.
func (r *Reader) ReadFile(path string) (*model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := r.Read(data)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}
	if s.Info.Source == "" {
		s.Info.Source = path
	}
	return s, nil
}

// Read parses a decoded session export. When the file carries no channels
// list the presence set is derived from the keys of the first sample
// object, so a sparse decoder still yields correct availability.
func (r *Reader) Read(data []byte) (*model.Session, error) {
	var sf sessionFile
	if err := oj.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("malformed session export: %w", err)
	}
	if len(sf.Samples) == 0 {
		return nil, &model.InsufficientDataError{What: "session samples", Needed: 1, Got: 0}
	}

	channels := make([]model.Channel, 0, len(sf.Channels))
	for _, c := range sf.Channels {
		channels = append(channels, model.Channel(c))
	}
	if len(channels) == 0 {
		var err error
		if channels, err = deriveChannels(data); err != nil {
			return nil, err
		}
		r.l.Debug("channels derived from first sample", log.Int("count", len(channels)))
	}
	r.validate(&sf, channels)
	return model.NewSession(sf.Session, sf.Samples, channels), nil
}

// deriveChannels inspects the keys of the first sample object.
func deriveChannels(data []byte) ([]model.Channel, error) {
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	res := jp.C("samples").N(0).Get(obj)
	if len(res) == 0 {
		return nil, fmt.Errorf("no sample object to derive channels from")
	}
	first, ok := res[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("sample is not an object")
	}
	channels := make([]model.Channel, 0, len(first))
	for k := range first {
		channels = append(channels, model.Channel(k))
	}
	return channels, nil
}

// validate logs data quality findings. Findings never fail the read, the
// pipeline handles gaps per channel.
func (r *Reader) validate(sf *sessionFile, channels []model.Channel) {
	present := make(map[model.Channel]struct{}, len(channels))
	for _, c := range channels {
		present[c] = struct{}{}
	}
	if _, ok := present[model.ChannelTime]; !ok {
		r.l.Warn("time channel not declared", log.String("channel", string(model.ChannelTime)))
	}
	for _, c := range []model.Channel{model.ChannelSpeed, model.ChannelThrottle, model.ChannelBrake} {
		if _, ok := present[c]; !ok {
			r.l.Warn("channel missing, dependent analyses will degrade",
				log.String("channel", string(c)))
		}
	}
	nonMono := 0
	for i := 1; i < len(sf.Samples); i++ {
		if sf.Samples[i].T <= sf.Samples[i-1].T {
			nonMono++
		}
	}
	if nonMono > 0 {
		r.l.Warn("non-monotonic timestamps in export",
			log.Int("count", nonMono), log.Int("samples", len(sf.Samples)))
	}
}
