package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/astrolul/tinydaw/debug"
	"github.com/astrolul/tinydaw/sampler"
)

const (
	sampleRate      = beep.SampleRate(48000)
	resampleQuality = 4

	// DefaultMaxVoices is the sink-wide polyphony ceiling.
	DefaultMaxVoices = 32
)

// Engine is the beep-backed playback sink. The speaker is opened once and a
// single mixer plays for the life of the process; every voice is a
// Ctrl-wrapped streamer added to that mixer and dropped when drained or
// stopped.
type Engine struct {
	mu           sync.Mutex
	mixer        *beep.Mixer
	resources    map[sampler.ResourceID]*resource
	voices       map[sampler.VoiceID]*voice
	nextResource sampler.ResourceID
	nextVoice    sampler.VoiceID
	maxVoices    int
	initialized  bool
}

type resource struct {
	buffer *beep.Buffer
	gain   float64
}

type voice struct {
	ctrl     *beep.Ctrl
	gain     *effects.Gain
	resource sampler.ResourceID

	// done is flipped by the end-of-stream callback on the speaker
	// goroutine, so it must not touch Engine.mu.
	done atomic.Bool
}

func NewEngine() *Engine {
	return &Engine{
		mixer:     &beep.Mixer{},
		resources: make(map[sampler.ResourceID]*resource),
		voices:    make(map[sampler.VoiceID]*voice),
		maxVoices: DefaultMaxVoices,
	}
}

// SetMaxVoices overrides the polyphony ceiling (config). Values below 1 are
// ignored.
func (e *Engine) SetMaxVoices(n int) {
	if n < 1 {
		return
	}
	e.mu.Lock()
	e.maxVoices = n
	e.mu.Unlock()
}

// Initialize opens the speaker and starts the mixer. Safe to call twice.
// Initialization failure leaves the engine unusable but inert: every later
// call fails predictably instead of panicking.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return err
	}
	speaker.Play(e.mixer)
	e.initialized = true
	return nil
}

// Ready reports whether the speaker was opened successfully.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Close silences and forgets every voice. The speaker itself stays open
// (beep has no close), but nothing feeds it anymore.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return
	}
	speaker.Lock()
	e.mixer.Clear()
	speaker.Unlock()
	e.voices = make(map[sampler.VoiceID]*voice)
}

// Load decodes the clip at path and buffers it in memory at the engine
// sample rate. The format is picked by extension: wav, mp3, flac, ogg.
func (e *Engine) Load(path string) (sampler.ResourceID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return 0, sampler.ErrAudioUnavailable
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	streamer, format, err := decode(f, path)
	if err != nil {
		f.Close()
		return 0, err
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2})
	if format.SampleRate == sampleRate {
		buf.Append(streamer)
	} else {
		buf.Append(beep.Resample(resampleQuality, format.SampleRate, sampleRate, streamer))
	}
	streamer.Close()

	e.nextResource++
	id := e.nextResource
	e.resources[id] = &resource{buffer: buf, gain: 1.0}
	debug.Log("audio", "loaded %s: %d samples at %dHz", filepath.Base(path), buf.Len(), format.SampleRate)
	return id, nil
}

func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
}

// Play starts a new voice for the resource. Fails with ErrNoFreeVoice once
// the sink-wide ceiling is reached.
func (e *Engine) Play(res sampler.ResourceID) (sampler.VoiceID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return 0, sampler.ErrAudioUnavailable
	}
	r, ok := e.resources[res]
	if !ok {
		return 0, fmt.Errorf("unknown resource %d", res)
	}

	e.reap()
	if len(e.voices) >= e.maxVoices {
		return 0, sampler.ErrNoFreeVoice
	}

	e.nextVoice++
	id := e.nextVoice

	v := &voice{resource: res}
	// effects.Gain multiplies by 1+Gain, so Gain = volume-1 maps [0,1]
	// volume straight onto the amplitude.
	v.gain = &effects.Gain{
		Streamer: r.buffer.Streamer(0, r.buffer.Len()),
		Gain:     r.gain - 1,
	}
	v.ctrl = &beep.Ctrl{
		Streamer: beep.Seq(v.gain, beep.Callback(func() {
			v.done.Store(true)
		})),
	}
	e.voices[id] = v

	speaker.Lock()
	e.mixer.Add(v.ctrl)
	speaker.Unlock()
	return id, nil
}

// Stop cuts a voice. Idempotent: unknown and already-finished voices are a
// no-op.
func (e *Engine) Stop(voiceID sampler.VoiceID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.voices[voiceID]
	if !ok {
		return
	}
	// A Ctrl with a nil streamer drains immediately, so the mixer drops it.
	speaker.Lock()
	v.ctrl.Streamer = nil
	speaker.Unlock()
	v.done.Store(true)
	delete(e.voices, voiceID)
}

// SetGain stores the resource gain and applies it to every live voice of
// that resource.
func (e *Engine) SetGain(res sampler.ResourceID, vol float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.resources[res]
	if !ok {
		return
	}
	r.gain = vol

	speaker.Lock()
	for _, v := range e.voices {
		if v.resource == res {
			v.gain.Gain = vol - 1
		}
	}
	speaker.Unlock()
}

// IsBusy reports whether the voice is still streaming.
func (e *Engine) IsBusy(voiceID sampler.VoiceID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.voices[voiceID]
	if !ok {
		return false
	}
	if v.done.Load() {
		delete(e.voices, voiceID)
		return false
	}
	return true
}

// reap drops voices whose end-of-stream callback has fired. Caller holds mu.
func (e *Engine) reap() {
	for id, v := range e.voices {
		if v.done.Load() {
			delete(e.voices, id)
		}
	}
}
