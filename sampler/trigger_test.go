package sampler

import (
	"errors"
	"testing"
	"time"
)

// stubSink is a scriptable in-memory sink shared by the sampler tests.
type stubSink struct {
	nextVoice VoiceID
	nextRes   ResourceID
	busy      map[VoiceID]bool
	stopped   []VoiceID
	gains     map[ResourceID]float64
	plays     int
	playErr   error
	loadErr   error
}

func newStubSink() *stubSink {
	return &stubSink{
		busy:  make(map[VoiceID]bool),
		gains: make(map[ResourceID]float64),
	}
}

func (s *stubSink) Load(path string) (ResourceID, error) {
	if s.loadErr != nil {
		return 0, s.loadErr
	}
	s.nextRes++
	return s.nextRes, nil
}

func (s *stubSink) Play(res ResourceID) (VoiceID, error) {
	if s.playErr != nil {
		return 0, s.playErr
	}
	s.plays++
	s.nextVoice++
	s.busy[s.nextVoice] = true
	return s.nextVoice, nil
}

func (s *stubSink) Stop(v VoiceID) {
	s.busy[v] = false
	s.stopped = append(s.stopped, v)
}

func (s *stubSink) SetGain(res ResourceID, vol float64) {
	s.gains[res] = vol
}

func (s *stubSink) IsBusy(v VoiceID) bool {
	return s.busy[v]
}

// finish simulates the sink reporting a voice as done.
func (s *stubSink) finish(v VoiceID) {
	s.busy[v] = false
}

func loadedChannel(t *testing.T, sink *stubSink, mode TriggerMode) *Channel {
	t.Helper()
	ch := newChannel(0)
	res, err := sink.Load("clip.wav")
	if err != nil {
		t.Fatalf("stub load failed: %v", err)
	}
	ch.resource = res
	ch.hasResource = true
	ch.Name = "clip.wav"
	ch.Mode = mode
	return ch
}

func TestTriggerWithoutResourceIsNoop(t *testing.T) {
	sink := newStubSink()
	eng := NewTriggerEngine(sink, DefaultGateThreshold, false)
	ch := newChannel(0)

	for _, mode := range []TriggerMode{Oneshot, Retrigger, Gate} {
		ch.Mode = mode
		if err := eng.Trigger(ch, time.Now()); err != nil {
			t.Errorf("mode %v: unexpected error %v", mode, err)
		}
	}
	if sink.plays != 0 {
		t.Errorf("expected no plays, got %d", sink.plays)
	}
	if ch.gateOn {
		t.Error("gate flag set without a resource")
	}
}

func TestOneshotIsPolyphonic(t *testing.T) {
	sink := newStubSink()
	eng := NewTriggerEngine(sink, DefaultGateThreshold, false)
	ch := loadedChannel(t, sink, Oneshot)
	now := time.Now()

	for i := 0; i < 5; i++ {
		if err := eng.Trigger(ch, now); err != nil {
			t.Fatalf("trigger %d: %v", i, err)
		}
	}
	if len(ch.voices) != 5 {
		t.Fatalf("expected 5 active voices, got %d", len(ch.voices))
	}

	// Voices fall away only as the sink reports them finished.
	sink.finish(ch.voices[0])
	sink.finish(ch.voices[1])
	eng.Update(ch, now)
	if len(ch.voices) != 3 {
		t.Fatalf("expected 3 voices after pruning, got %d", len(ch.voices))
	}
	for _, v := range ch.voices {
		sink.finish(v)
	}
	eng.Update(ch, now)
	if len(ch.voices) != 0 {
		t.Fatalf("expected 0 voices, got %d", len(ch.voices))
	}
}

func TestOneshotVoiceStarvationIsNonFatal(t *testing.T) {
	sink := newStubSink()
	sink.playErr = ErrNoFreeVoice
	eng := NewTriggerEngine(sink, DefaultGateThreshold, false)
	ch := loadedChannel(t, sink, Oneshot)

	err := eng.Trigger(ch, time.Now())
	if !errors.Is(err, ErrNoFreeVoice) {
		t.Fatalf("expected ErrNoFreeVoice, got %v", err)
	}
	if len(ch.voices) != 0 {
		t.Errorf("starved trigger must not record a voice")
	}
}

func TestRetriggerIsMonophonic(t *testing.T) {
	sink := newStubSink()
	eng := NewTriggerEngine(sink, DefaultGateThreshold, false)
	ch := loadedChannel(t, sink, Retrigger)
	now := time.Now()

	eng.Trigger(ch, now)
	first := ch.voices[0]
	eng.Trigger(ch, now.Add(10*time.Millisecond))

	if len(ch.voices) != 1 {
		t.Fatalf("expected exactly 1 voice, got %d", len(ch.voices))
	}
	if ch.voices[0] == first {
		t.Error("retrigger kept the old voice instead of starting a new one")
	}
	if sink.IsBusy(first) {
		t.Error("retrigger did not stop the previous voice")
	}
}

func TestGateSustainAndExpiry(t *testing.T) {
	sink := newStubSink()
	eng := NewTriggerEngine(sink, DefaultGateThreshold, false)
	ch := loadedChannel(t, sink, Gate)
	t0 := time.Now()

	eng.Trigger(ch, t0)
	if !ch.gateOn || len(ch.voices) != 1 {
		t.Fatalf("gate trigger should start one voice, got gateOn=%v voices=%d", ch.gateOn, len(ch.voices))
	}
	voice := ch.voices[0]

	// Within the threshold: still sustaining.
	eng.Update(ch, t0.Add(100*time.Millisecond))
	if !ch.gateOn || len(ch.voices) != 1 {
		t.Fatal("gate expired inside the sustain window")
	}

	// Retriggering refreshes without starting audio.
	eng.Trigger(ch, t0.Add(200*time.Millisecond))
	if sink.plays != 1 {
		t.Fatalf("sustaining retrigger started audio, plays=%d", sink.plays)
	}

	// Past the threshold measured from the refresh: expires.
	eng.Update(ch, t0.Add(800*time.Millisecond))
	if ch.gateOn {
		t.Fatal("gate did not expire")
	}
	if len(ch.voices) != 0 {
		t.Fatalf("expiry left %d voices", len(ch.voices))
	}
	if sink.IsBusy(voice) {
		t.Error("expiry did not stop the voice")
	}

	// Idempotent: further updates change nothing.
	stops := len(sink.stopped)
	eng.Update(ch, t0.Add(900*time.Millisecond))
	eng.Update(ch, t0.Add(time.Second))
	if len(sink.stopped) != stops {
		t.Error("post-expiry updates issued more stops")
	}
}

func TestGateDispatchScenario(t *testing.T) {
	// dispatchKey('a', 0) then ('a', 0.3), tick at 0.9: the voice lives
	// from t=0 until between 0.3 and 0.8, and is gone by 0.9.
	sink := newStubSink()
	eng := NewTriggerEngine(sink, DefaultGateThreshold, false)
	meter := NewMeterEngine()
	reg := NewRegistry(sink, eng, meter)

	reg.AssignKey(0, 'a')
	if err := reg.AssignFile(0, "registry.go"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	reg.CycleMode(0) // oneshot -> retrigger
	reg.CycleMode(0) // retrigger -> gate

	t0 := time.Now()
	if !reg.DispatchKey('a', t0) {
		t.Fatal("dispatch missed the assigned channel")
	}
	reg.DispatchKey('a', t0.Add(300*time.Millisecond))

	ch := reg.Channel(0)
	if !ch.gateOn || len(ch.voices) != 1 {
		t.Fatalf("expected one sustaining voice, gateOn=%v voices=%d", ch.gateOn, len(ch.voices))
	}

	reg.Tick(t0.Add(900 * time.Millisecond))
	if ch.gateOn || len(ch.voices) != 0 {
		t.Fatalf("gate should be over by 0.9s, gateOn=%v voices=%d", ch.gateOn, len(ch.voices))
	}
}

func TestCycleModeClearsGateFlag(t *testing.T) {
	sink := newStubSink()
	eng := NewTriggerEngine(sink, DefaultGateThreshold, false)
	ch := loadedChannel(t, sink, Gate)
	t0 := time.Now()

	eng.Trigger(ch, t0)
	voice := ch.voices[0]

	eng.CycleMode(ch)
	if ch.gateOn {
		t.Fatal("gate flag survived the mode change")
	}
	if ch.Mode != Oneshot {
		t.Fatalf("gate should cycle to oneshot, got %v", ch.Mode)
	}
	// Default policy: the voice itself is left alone.
	if !sink.IsBusy(voice) {
		t.Error("default policy must not stop the voice")
	}

	// The next update performs no expiry action on the cleared gate.
	stops := len(sink.stopped)
	eng.Update(ch, t0.Add(time.Second))
	if len(sink.stopped) != stops {
		t.Error("update after mode change issued stops")
	}
}

func TestCycleModeStopPolicy(t *testing.T) {
	sink := newStubSink()
	eng := NewTriggerEngine(sink, DefaultGateThreshold, true)
	ch := loadedChannel(t, sink, Gate)

	eng.Trigger(ch, time.Now())
	voice := ch.voices[0]

	eng.CycleMode(ch)
	if ch.gateOn {
		t.Fatal("gate flag survived the mode change")
	}
	if sink.IsBusy(voice) {
		t.Error("stop policy enabled but the voice kept playing")
	}
	if len(ch.voices) != 0 {
		t.Errorf("stop policy left %d voices recorded", len(ch.voices))
	}
}

func TestModeCycleOrder(t *testing.T) {
	m := Oneshot
	want := []TriggerMode{Retrigger, Gate, Oneshot}
	for i, w := range want {
		m = m.Next()
		if m != w {
			t.Fatalf("step %d: got %v, want %v", i, m, w)
		}
	}
}
