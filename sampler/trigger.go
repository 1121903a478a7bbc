package sampler

import "time"

// DefaultGateThreshold is how long a gated channel keeps sounding after its
// last trigger before the sustain ends.
const DefaultGateThreshold = 500 * time.Millisecond

// TriggerEngine decides, for each trigger event and each tick, whether a
// voice starts, restarts, or stops. It owns all transient playback state on
// the channels it is handed; nothing else writes voices or gate flags.
type TriggerEngine struct {
	sink          Sink
	gateThreshold time.Duration

	// stopGateOnModeSwitch also cuts the sounding voices when the mode is
	// cycled away mid-sustain, instead of only clearing the gate flag.
	stopGateOnModeSwitch bool
}

func NewTriggerEngine(sink Sink, gateThreshold time.Duration, stopGateOnModeSwitch bool) *TriggerEngine {
	if gateThreshold <= 0 {
		gateThreshold = DefaultGateThreshold
	}
	return &TriggerEngine{
		sink:                 sink,
		gateThreshold:        gateThreshold,
		stopGateOnModeSwitch: stopGateOnModeSwitch,
	}
}

// Trigger handles one key-down event for the channel. A channel without a
// loaded clip is a silent no-op. The returned error is never fatal:
// ErrNoFreeVoice just means this hit was dropped.
func (e *TriggerEngine) Trigger(ch *Channel, now time.Time) error {
	if !ch.hasResource {
		return nil
	}

	switch ch.Mode {
	case Oneshot:
		// Polyphonic: prior voices keep running.
		v, err := e.sink.Play(ch.resource)
		if err != nil {
			return err
		}
		ch.voices = append(ch.voices, v)

	case Retrigger:
		// Monophonic: cut everything, then start exactly one voice.
		for _, v := range ch.voices {
			e.sink.Stop(v)
		}
		ch.voices = ch.voices[:0]
		v, err := e.sink.Play(ch.resource)
		if err != nil {
			return err
		}
		ch.voices = append(ch.voices, v)

	case Gate:
		// Every trigger refreshes the sustain window. Only the first of a
		// gate episode starts audio.
		ch.lastGateAt = now
		if !ch.gateOn {
			v, err := e.sink.Play(ch.resource)
			if err != nil {
				return err
			}
			ch.voices = append(ch.voices, v)
			ch.gateOn = true
		}
	}
	return nil
}

// Update runs once per tick for every channel, independent of input. It
// prunes voices the sink reports finished, then expires the gate if the
// sustain window has lapsed. Repeated updates after expiry are no-ops.
func (e *TriggerEngine) Update(ch *Channel, now time.Time) {
	kept := ch.voices[:0]
	for _, v := range ch.voices {
		if e.sink.IsBusy(v) {
			kept = append(kept, v)
		}
	}
	ch.voices = kept

	if ch.Mode == Gate && ch.gateOn && now.Sub(ch.lastGateAt) > e.gateThreshold {
		for _, v := range ch.voices {
			e.sink.Stop(v)
		}
		ch.voices = ch.voices[:0]
		ch.gateOn = false
	}
}

// CycleMode advances the channel's trigger mode circularly. A gate
// sustaining at the moment of the switch always has its flag cleared, so a
// stale "still gated" state cannot survive the mode change; whether the
// voices are also cut is the stopGateOnModeSwitch policy.
func (e *TriggerEngine) CycleMode(ch *Channel) {
	if ch.gateOn {
		if e.stopGateOnModeSwitch {
			for _, v := range ch.voices {
				e.sink.Stop(v)
			}
			ch.voices = ch.voices[:0]
		}
		ch.gateOn = false
	}
	ch.Mode = ch.Mode.Next()
}
