// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/icarus698x/landing-page/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Icarus"
	default:
		return string(r)
	}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn represents a single entry in the demo conversation.
//
// Assistant turns are created empty when a response stream opens and are
// mutated in place by stream events until the stream completes or fails.
// After finalization a turn is never mutated again.
type Turn struct {
	// Identity. The ID is assigned at creation and stable for the turn's
	// lifetime; stream events are targeted at a turn by this ID.
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Accumulated textual content. Empty is valid for an assistant turn
	// before the first delta arrives.
	Text string `json:"text"`

	// Attached image payload (user turns only).
	Image     []byte `json:"-"`
	ImageMime string `json:"image_mime,omitempty"`

	// Reference images returned by the service (assistant turns only).
	// Nil until the server emits a match event.
	Matches []ImageMatch `json:"matches,omitempty"`

	// final is set once the response stream has completed or errored.
	final bool
}

// NewUserTurn creates a user turn with optional attached image bytes.
func NewUserTurn(text string, image []byte, imageMime string) *Turn {
	return &Turn{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Timestamp: time.Now(),
		Text:      text,
		Image:     image,
		ImageMime: imageMime,
		final:     true, // user turns never mutate after creation
	}
}

// NewAssistantTurn creates an empty assistant turn ready to receive
// stream events.
func NewAssistantTurn() *Turn {
	return &Turn{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// TURN METHODS
// =============================================================================

// AppendText concatenates a content delta onto the turn's text.
// Deltas must be applied in arrival order; concatenation is order-sensitive.
// No-op after finalization.
func (t *Turn) AppendText(delta string) {
	if t.final {
		return
	}
	t.Text += delta
}

// SetMatches replaces the turn's match set. The protocol sends the full
// set once, not incrementally, so replace semantics are correct.
// No-op after finalization.
func (t *Turn) SetMatches(matches []ImageMatch) {
	if t.final {
		return
	}
	t.Matches = matches
}

// Finalize marks the turn immutable. Called when the stream ends.
func (t *Turn) Finalize() {
	t.final = true
}

// Fail overwrites the turn's text with a user-facing failure message and
// finalizes it. Used when the transport fails mid-turn.
func (t *Turn) Fail(message string) {
	if t.final {
		return
	}
	t.Text = message
	t.final = true
}

// IsFinal reports whether the turn is finalized and can no longer be
// mutated by stream events.
func (t *Turn) IsFinal() bool {
	return t.final
}

// Clone returns a snapshot copy of the turn. The Matches slice is
// cloned; Image is shared, since image bytes are set once at creation
// and never mutated.
func (t *Turn) Clone() *Turn {
	c := *t
	if t.Matches != nil {
		c.Matches = make([]ImageMatch, len(t.Matches))
		copy(c.Matches, t.Matches)
	}
	return &c
}

// HasImage reports whether the turn carries an attached image.
func (t *Turn) HasImage() bool {
	return len(t.Image) > 0
}

// IsEmpty returns true if the turn has no content yet.
func (t *Turn) IsEmpty() bool {
	return t.Text == "" && len(t.Matches) == 0
}

// Preview returns a truncated single-line preview of the turn's text.
func (t *Turn) Preview(maxRunes int) string {
	return util.TruncateRunes(util.FirstLine(t.Text), maxRunes)
}
