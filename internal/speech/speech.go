// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech defines the speech-to-text capability consumed by the
// demo. The demo never implements recognition itself; a platform adapter
// (browser speech API, OS dictation) satisfies Recognizer and the session
// controller depends only on the interface.
//
// The contract is deliberately small: start/stop control, one final
// transcript per listening window, and an end notification that clears the
// listening indicator. Interim partial transcripts are not surfaced.
package speech

// Recognizer is the speech-to-text capability.
//
// After Start, the adapter delivers at most one final transcript via the
// handler registered with OnFinalTranscript, then signals OnEnd. OnEnd is
// also signaled on recognition errors and on Stop, so the caller can key
// its listening indicator off OnEnd alone.
type Recognizer interface {
	// Start begins a listening window. Returns an error if the capability
	// is unavailable on this platform.
	Start() error

	// Stop aborts the current listening window, if any.
	Stop()

	// OnFinalTranscript registers the handler for the final transcript.
	OnFinalTranscript(fn func(transcript string))

	// OnEnd registers the handler called when listening ends for any
	// reason (transcript delivered, error, or Stop).
	OnEnd(fn func())
}

// =============================================================================
// NULL RECOGNIZER
// =============================================================================

// Unavailable is the Recognizer used when no platform adapter exists.
// Start reports the capability as unavailable and immediately ends.
type Unavailable struct {
	onEnd func()
}

// NewUnavailable creates the null recognizer.
func NewUnavailable() *Unavailable {
	return &Unavailable{}
}

// Start always fails.
func (u *Unavailable) Start() error {
	if u.onEnd != nil {
		u.onEnd()
	}
	return ErrUnavailable
}

// Stop is a no-op.
func (u *Unavailable) Stop() {}

// OnFinalTranscript is a no-op registration; no transcript ever arrives.
func (u *Unavailable) OnFinalTranscript(func(string)) {}

// OnEnd registers the end handler.
func (u *Unavailable) OnEnd(fn func()) {
	u.onEnd = fn
}
