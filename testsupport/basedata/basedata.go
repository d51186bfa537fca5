// Package basedata generates synthetic telemetry sessions for tests.
// The generated laps drive a simple track model (straight, brake, corner,
// accelerate) so detection and scoring code sees physically plausible
// channel shapes without fixture files.
package basedata

import (
	"math"
	"time"

	"github.com/apexcoach/telemetry-coach/pkg/model"
)

const (
	straightSpeed = 60.0 // m/s
	brakeDecel    = 12.0 // m/s^2
	exitAccel     = 6.0  // m/s^2
)

// CornerSpec describes one corner of the synthetic track.
type CornerSpec struct {
	ApexSpeed float64 // m/s held through the corner
	HoldTime  float64 // seconds at apex speed
	Straight  float64 // seconds at full speed before the braking point
}

// DefaultCorners covers all three speed classes.
func DefaultCorners() []CornerSpec {
	return []CornerSpec{
		{ApexSpeed: 12, HoldTime: 1.5, Straight: 6},
		{ApexSpeed: 28, HoldTime: 1.2, Straight: 5},
		{ApexSpeed: 45, HoldTime: 1.0, Straight: 7},
	}
}

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

func SampleInfo() model.SessionInfo {
	return model.SessionInfo{
		Track:      "testtrack",
		Car:        "testcar gt3",
		Driver:     "testdriver",
		RecordedAt: TestTime(),
		Source:     "testdata/sample.json",
	}
}

type (
	config struct {
		info       model.SessionInfo
		corners    []CornerSpec
		lapCount   int
		sampleRate float64
		// per-lap pace factors, >1 means faster; missing laps default to 1
		pace     []float64
		channels []model.Channel
	}
	Option func(*config)
)

func WithInfo(info model.SessionInfo) Option {
	return func(c *config) {
		c.info = info
	}
}

func WithCorners(corners []CornerSpec) Option {
	return func(c *config) {
		c.corners = corners
	}
}

func WithLapCount(n int) Option {
	return func(c *config) {
		c.lapCount = n
	}
}

func WithSampleRate(hz float64) Option {
	return func(c *config) {
		c.sampleRate = hz
	}
}

func WithPaceFactors(pace []float64) Option {
	return func(c *config) {
		c.pace = pace
	}
}

func WithChannels(channels []model.Channel) Option {
	return func(c *config) {
		c.channels = channels
	}
}

func allChannels() []model.Channel {
	return []model.Channel{
		model.ChannelTime, model.ChannelSpeed, model.ChannelThrottle,
		model.ChannelBrake, model.ChannelSteerAngle, model.ChannelLatAccel,
		model.ChannelLonAccel, model.ChannelLapDistPct, model.ChannelLapNumber,
	}
}

// SampleSession builds a session of full laps over the synthetic track.
func SampleSession(opts ...Option) *model.Session {
	c := &config{
		info:       SampleInfo(),
		corners:    DefaultCorners(),
		lapCount:   3,
		sampleRate: 10,
		channels:   allChannels(),
	}
	for _, opt := range opts {
		opt(c)
	}

	samples := make([]model.Sample, 0)
	t := 0.0
	for lap := 1; lap <= c.lapCount; lap++ {
		pace := 1.0
		if lap-1 < len(c.pace) {
			pace = c.pace[lap-1]
		}
		lapSamples, lapDuration := generateLap(c, lap, t, pace)
		samples = append(samples, lapSamples...)
		t += lapDuration
	}
	return model.NewSession(c.info, samples, c.channels)
}

// generateLap emits one lap starting at time offset t0. The pace factor
// scales all speeds, so distance stays fixed and lap time shrinks for
// pace > 1. Channel shapes (brake points, apex classes) are unaffected.
//
//nolint:funlen // phase state machine reads best in one place
func generateLap(c *config, lapNum int, t0, pace float64) ([]model.Sample, float64) {
	dt := 1.0 / c.sampleRate
	samples := make([]model.Sample, 0)
	dist := 0.0
	lapDist := trackLength(c.corners)

	t := 0.0
	v := straightSpeed * pace
	emit := func(throttle, brake, latG, lonG float64) {
		samples = append(samples, model.Sample{
			T:          t0 + t,
			Speed:      v,
			Throttle:   throttle,
			Brake:      brake,
			SteerAngle: latG * 0.05,
			LatAccel:   latG * 9.81,
			LonAccel:   lonG * 9.81,
			LapDistPct: math.Min(dist/lapDist, 0.999),
			Lap:        lapNum,
		})
		dist += v * dt
		t += dt
	}

	for _, corner := range c.corners {
		// straight at full speed
		for elapsed := 0.0; elapsed < corner.Straight/pace; elapsed += dt {
			v = straightSpeed * pace
			emit(1, 0, 0.05, 0)
		}
		// brake down to apex speed
		apex := corner.ApexSpeed * pace
		for v > apex {
			v = math.Max(apex, v-brakeDecel*pace*dt)
			emit(0, 1, 0.3, -brakeDecel*pace/9.81)
		}
		// hold apex speed through the corner, slower corners pull more lat G
		latG := math.Min(2.0, straightSpeed/corner.ApexSpeed*0.4)
		for elapsed := 0.0; elapsed < corner.HoldTime/pace; elapsed += dt {
			v = apex
			emit(0.2, 0, latG, 0)
		}
		// accelerate back to straight speed
		for v < straightSpeed*pace {
			v = math.Min(straightSpeed*pace, v+exitAccel*pace*dt)
			emit(1, 0, 0.1, exitAccel*pace/9.81)
		}
	}
	return samples, t
}

// trackLength integrates the nominal lap distance at pace 1.
func trackLength(corners []CornerSpec) float64 {
	total := 0.0
	for _, corner := range corners {
		total += straightSpeed * corner.Straight
		total += (straightSpeed*straightSpeed - corner.ApexSpeed*corner.ApexSpeed) / (2 * brakeDecel)
		total += corner.ApexSpeed * corner.HoldTime
		total += (straightSpeed*straightSpeed - corner.ApexSpeed*corner.ApexSpeed) / (2 * exitAccel)
	}
	return total
}
