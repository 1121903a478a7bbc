package sampler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/astrolul/tinydaw/debug"
)

// Registry is the fixed ordered collection of channels and the only thing
// the presentation layer talks to. All mutation goes through its operations;
// the UI reads back through Snapshots and Status.
type Registry struct {
	channels [MaxChannels]*Channel
	trigger  *TriggerEngine
	meter    *MeterEngine
	sink     Sink
	status   string
}

func NewRegistry(sink Sink, trigger *TriggerEngine, meter *MeterEngine) *Registry {
	r := &Registry{
		trigger: trigger,
		meter:   meter,
		sink:    sink,
	}
	for i := range r.channels {
		r.channels[i] = newChannel(i)
	}
	return r
}

// Channel returns the channel at idx, or nil when out of range.
func (r *Registry) Channel(idx int) *Channel {
	if idx < 0 || idx >= MaxChannels {
		return nil
	}
	return r.channels[idx]
}

// AssignFile loads the clip at path into the channel. On success the
// channel's name becomes the file's base name. On failure the channel is
// left exactly as it was.
func (r *Registry) AssignFile(idx int, path string) error {
	ch := r.Channel(idx)
	if ch == nil {
		return fmt.Errorf("no channel %d", idx)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	res, err := r.sink.Load(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	ch.resource = res
	ch.hasResource = true
	ch.Name = filepath.Base(path)
	r.sink.SetGain(res, ch.Volume)
	debug.Log("assign", "ch=%d file=%s res=%d", idx, ch.Name, res)
	return nil
}

// AssignKey binds a key code to the channel. No uniqueness check against
// other channels: dispatch is first index match, so a duplicate on a later
// channel stays dormant.
func (r *Registry) AssignKey(idx, keyCode int) {
	ch := r.Channel(idx)
	if ch == nil {
		return
	}
	ch.KeyCode = keyCode
	debug.Log("assign", "ch=%d key=%d char=%s", idx, keyCode, ch.DisplayChar())
}

// CycleMode advances the channel's trigger mode.
func (r *Registry) CycleMode(idx int) {
	ch := r.Channel(idx)
	if ch == nil {
		return
	}
	r.trigger.CycleMode(ch)
	debug.Log("mode", "ch=%d mode=%s", idx, ch.Mode)
}

// AdjustVolume nudges the channel volume by delta, clamped to [0,1], and
// propagates the new gain to the sink when a clip is loaded.
func (r *Registry) AdjustVolume(idx int, delta float64) {
	ch := r.Channel(idx)
	if ch == nil {
		return
	}
	ch.Volume = clamp01(ch.Volume + delta)
	if ch.hasResource {
		r.sink.SetGain(ch.resource, ch.Volume)
	}
}

// DispatchKey routes a key-down event to the first channel assigned that key
// code, in index order. Returns false when no channel matched. Trigger
// failures are swallowed into the status line; they never interrupt the
// loop.
func (r *Registry) DispatchKey(keyCode int, now time.Time) bool {
	for _, ch := range r.channels {
		if ch.KeyCode != 0 && ch.KeyCode == keyCode {
			if err := r.trigger.Trigger(ch, now); err != nil {
				r.status = fmt.Sprintf("ch %d: %v", ch.Index+1, err)
				debug.Log("trigger", "ch=%d dropped: %v", ch.Index, err)
			}
			return true
		}
	}
	return false
}

// Tick runs the trigger update then the meter update for every channel, in
// index order. Channels are independent, so the order is cosmetic.
func (r *Registry) Tick(now time.Time) {
	for _, ch := range r.channels {
		r.trigger.Update(ch, now)
		r.meter.Update(ch)
	}
	debug.LogEvery(500, "tick", "ch0 vu=%.3f voices=%d", r.channels[0].VU, len(r.channels[0].voices))
}

// Snapshots returns the read-only per-channel view for rendering.
func (r *Registry) Snapshots() []Snapshot {
	out := make([]Snapshot, MaxChannels)
	for i, ch := range r.channels {
		out[i] = ch.snapshot()
	}
	return out
}

// Status returns the last status message (voice starvation, mute mode, ...).
func (r *Registry) Status() string {
	return r.status
}

// SetStatus lets the wiring layer surface a message on the status line.
func (r *Registry) SetStatus(s string) {
	r.status = s
}
