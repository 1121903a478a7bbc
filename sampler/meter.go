package sampler

import "math/rand"

// Meter defaults. Fast attack makes hits feel responsive, slow decay gives
// the VU-style ballistic fall-off, and the snap epsilon settles the level to
// exactly zero instead of letting it creep asymptotically.
const (
	DefaultMeterAttack = 0.5
	DefaultMeterDecay  = 0.1
	DefaultMeterSnap   = 0.01
	DefaultJitterMin   = 0.9
	DefaultJitterMax   = 1.0
)

// MeterEngine derives each channel's smoothed visual level from its playback
// state. It is the only writer of Channel.VU.
type MeterEngine struct {
	attack float64
	decay  float64
	snap   float64

	jitterMin float64
	jitterMax float64

	// rand yields uniform values in [0,1). Injectable so tests can pin the
	// jitter and assert exact smoothing arithmetic.
	rand func() float64
}

func NewMeterEngine() *MeterEngine {
	return &MeterEngine{
		attack:    DefaultMeterAttack,
		decay:     DefaultMeterDecay,
		snap:      DefaultMeterSnap,
		jitterMin: DefaultJitterMin,
		jitterMax: DefaultJitterMax,
		rand:      rand.Float64,
	}
}

// SetCoefficients overrides the attack/decay smoothing factors and the snap
// epsilon (config).
func (m *MeterEngine) SetCoefficients(attack, decay, snap float64) {
	m.attack = clamp01(attack)
	m.decay = clamp01(decay)
	m.snap = snap
}

// SetJitter overrides the per-tick jitter range applied while playing.
func (m *MeterEngine) SetJitter(min, max float64) {
	if min > max {
		min, max = max, min
	}
	m.jitterMin = min
	m.jitterMax = max
}

// SetRand swaps the random source. Passing func() float64 { return 1 } pins
// the jitter to its upper bound.
func (m *MeterEngine) SetRand(f func() float64) {
	m.rand = f
}

// Update recomputes the channel's VU level for this tick. Gated channels
// count as playing while the gate flag is up; everything else while any
// voice is live.
func (m *MeterEngine) Update(ch *Channel) {
	playing := len(ch.voices) > 0
	if ch.Mode == Gate {
		playing = ch.gateOn
	}

	target := 0.0
	if playing {
		jitter := m.jitterMin + m.rand()*(m.jitterMax-m.jitterMin)
		target = ch.Volume * jitter
	}

	if target > ch.VU {
		ch.VU = m.attack*target + (1-m.attack)*ch.VU
	} else {
		ch.VU = m.decay*target + (1-m.decay)*ch.VU
	}
	if ch.VU < m.snap {
		ch.VU = 0
	}
	ch.VU = clamp01(ch.VU)
}
