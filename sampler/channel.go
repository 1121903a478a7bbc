package sampler

import "time"

// MaxChannels is the fixed number of pad channels.
const MaxChannels = 8

// TriggerMode governs how repeated trigger events affect a channel's playback.
type TriggerMode int

const (
	Oneshot   TriggerMode = iota // every trigger starts another voice
	Retrigger                    // a new trigger cuts the previous voice
	Gate                         // sound sustains only while triggers keep arriving
)

// Next returns the following mode in the cycle order (Gate wraps to Oneshot).
func (m TriggerMode) Next() TriggerMode {
	return (m + 1) % 3
}

// modeNames is the display lookup, kept separate from the mode values so the
// presentation mapping can change without touching the state machine.
var modeNames = map[TriggerMode]string{
	Oneshot:   "ONESHOT",
	Retrigger: "RETRIG",
	Gate:      "GATE",
}

func (m TriggerMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "?"
}

// Channel is one pad slot. All eight are allocated once at startup and never
// destroyed; configuration fields are mutated only through Registry
// operations, transient playback state only by the trigger and meter engines.
type Channel struct {
	Index   int
	KeyCode int // 0 = unassigned
	Name    string
	Mode    TriggerMode
	Volume  float64

	// VU is the smoothed meter level, recomputed every tick.
	VU float64

	resource    ResourceID
	hasResource bool

	voices     []VoiceID
	lastGateAt time.Time
	gateOn     bool
}

func newChannel(index int) *Channel {
	return &Channel{
		Index:  index,
		Name:   "Empty",
		Mode:   Oneshot,
		Volume: 1.0,
	}
}

// HasResource reports whether a clip has been loaded for this channel.
func (c *Channel) HasResource() bool {
	return c.hasResource
}

// DisplayChar returns the single character shown for the assigned key:
// the uppercased printable ASCII character, "?" outside that range, or
// "-" while unassigned.
func (c *Channel) DisplayChar() string {
	if c.KeyCode == 0 {
		return "-"
	}
	if c.KeyCode < 32 || c.KeyCode > 126 {
		return "?"
	}
	r := rune(c.KeyCode)
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	return string(r)
}

// Snapshot is the read-only per-channel view the presentation layer renders
// from. The core never formats text or colors beyond these typed values.
type Snapshot struct {
	Index       int
	Char        string
	Name        string
	Volume      float64
	VU          float64
	Mode        TriggerMode
	HasResource bool
}

func (c *Channel) snapshot() Snapshot {
	return Snapshot{
		Index:       c.Index,
		Char:        c.DisplayChar(),
		Name:        c.Name,
		Volume:      c.Volume,
		VU:          c.VU,
		Mode:        c.Mode,
		HasResource: c.hasResource,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
