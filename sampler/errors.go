package sampler

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound reports that an assignment path does not resolve to an
	// existing file.
	ErrFileNotFound = errors.New("file not found")

	// ErrNoFreeVoice reports that the sink's voice pool is exhausted. It is
	// transient and benign: triggers that hit it are dropped, never fatal.
	ErrNoFreeVoice = errors.New("no free voice")

	// ErrAudioUnavailable is what the null sink fails with. A program running
	// without an audio backend sees this from every load and play.
	ErrAudioUnavailable = errors.New("audio unavailable")
)

// LoadError wraps a sink decode/load failure with the path that caused it.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
