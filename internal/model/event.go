// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// STREAM EVENT TYPE
// =============================================================================

// EventKind discriminates the StreamEvent variants.
type EventKind int

const (
	// EventContent carries a text delta to append to the in-flight turn.
	EventContent EventKind = iota

	// EventMatches carries the full reference-image match set, which
	// replaces any previously received set.
	EventMatches

	// EventDone signals ordinary end of stream.
	EventDone

	// EventError signals a stream-level failure with a user-facing message.
	EventError
)

// String returns the event kind name for logging.
func (k EventKind) String() string {
	switch k {
	case EventContent:
		return "content"
	case EventMatches:
		return "matches"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// StreamEvent is one decoded unit of the server's streamed response
// protocol. Events are transient: produced by the stream parser, applied
// exactly once to the targeted assistant turn, never persisted.
type StreamEvent struct {
	Kind    EventKind
	Text    string       // EventContent
	Matches []ImageMatch // EventMatches
	Message string       // EventError
}

// ContentEvent builds a content-delta event.
func ContentEvent(text string) StreamEvent {
	return StreamEvent{Kind: EventContent, Text: text}
}

// MatchesEvent builds a match-set event.
func MatchesEvent(matches []ImageMatch) StreamEvent {
	return StreamEvent{Kind: EventMatches, Matches: matches}
}

// DoneEvent builds an end-of-stream event.
func DoneEvent() StreamEvent {
	return StreamEvent{Kind: EventDone}
}

// ErrorEvent builds a stream-failure event.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Kind: EventError, Message: message}
}
