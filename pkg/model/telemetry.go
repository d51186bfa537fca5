package model

import "time"

// Channel identifies a telemetry channel of the decoded sample stream.
// The decoder does not guarantee presence of every channel; presence is
// tracked on the Session, never inferred from zero values.
type Channel string

const (
	ChannelTime       Channel = "sessionTime"
	ChannelSpeed      Channel = "speed"
	ChannelThrottle   Channel = "throttle"
	ChannelBrake      Channel = "brake"
	ChannelSteerAngle Channel = "steerAngle"
	ChannelLatAccel   Channel = "latAccel"
	ChannelLonAccel   Channel = "lonAccel"
	ChannelLapDistPct Channel = "lapDistPct"
	ChannelLapNumber  Channel = "lap"
)

// Sample is a single time-stamped observation. Throttle and Brake are
// normalized to [0,1], LapDistPct to [0,1) wrapping at the start line,
// accelerations are m/s^2, SteerAngle is radians, Speed is m/s.
type Sample struct {
	T          float64 `json:"sessionTime"`
	Speed      float64 `json:"speed"`
	Throttle   float64 `json:"throttle"`
	Brake      float64 `json:"brake"`
	SteerAngle float64 `json:"steerAngle"`
	LatAccel   float64 `json:"latAccel"`
	LonAccel   float64 `json:"lonAccel"`
	LapDistPct float64 `json:"lapDistPct"`
	Lap        int     `json:"lap"`
}

type SessionInfo struct {
	Track      string    `json:"track"`
	Car        string    `json:"car"`
	Driver     string    `json:"driver"`
	RecordedAt time.Time `json:"recordedAt"`
	Source     string    `json:"source"`
}

// Session is an immutable, time-ordered sample sequence plus metadata.
// Once built it must not be mutated; all derived entities reference its
// sample slice by index.
type Session struct {
	Info    SessionInfo
	Samples []Sample

	present map[Channel]struct{}
}

func NewSession(info SessionInfo, samples []Sample, channels []Channel) *Session {
	present := make(map[Channel]struct{}, len(channels))
	for _, c := range channels {
		present[c] = struct{}{}
	}
	return &Session{Info: info, Samples: samples, present: present}
}

func (s *Session) HasChannel(c Channel) bool {
	_, ok := s.present[c]
	return ok
}

func (s *Session) Channels() []Channel {
	ret := make([]Channel, 0, len(s.present))
	for c := range s.present {
		ret = append(ret, c)
	}
	return ret
}

// Lap is a contiguous sample range [Start,End) within its Session.
// Laps reference the session sample slice, they never copy it.
type Lap struct {
	Num     int
	Start   int
	End     int
	Partial bool // lap does not start/end near the start line
}

// Samples returns the lap's view into the session sample slice.
func (l Lap) Samples(s *Session) []Sample {
	return s.Samples[l.Start:l.End]
}

// Time returns the elapsed time between the lap boundary samples.
func (l Lap) Time(s *Session) float64 {
	if l.End-l.Start < 2 {
		return 0
	}
	return s.Samples[l.End-1].T - s.Samples[l.Start].T
}
