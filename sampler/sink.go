package sampler

// ResourceID is an opaque handle to a loaded clip.
type ResourceID int

// VoiceID is an opaque handle to one playing instance of a clip.
type VoiceID int

// Sink is the playback backend consumed by the trigger engine and registry.
// Every call is synchronous, non-blocking and fire-and-forget; the core
// never waits on the sink. Implementations may run their own mixing
// machinery but must be callable from the single UI goroutine.
type Sink interface {
	Load(path string) (ResourceID, error)
	Play(res ResourceID) (VoiceID, error)
	Stop(voice VoiceID) // idempotent, safe on an already-stopped voice
	SetGain(res ResourceID, vol float64)
	IsBusy(voice VoiceID) bool
}

// NullSink is the stand-in installed when the audio backend fails to
// initialize. Load and play fail predictably, so the trigger logic behaves
// exactly as with a real backend - the program just runs mute.
type NullSink struct{}

func NewNullSink() *NullSink {
	return &NullSink{}
}

func (*NullSink) Load(string) (ResourceID, error) {
	return 0, ErrAudioUnavailable
}

func (*NullSink) Play(ResourceID) (VoiceID, error) {
	return 0, ErrAudioUnavailable
}

func (*NullSink) Stop(VoiceID) {}

func (*NullSink) SetGain(ResourceID, float64) {}

func (*NullSink) IsBusy(VoiceID) bool {
	return false
}
