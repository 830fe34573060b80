// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns the demo's conversation state machine.
//
// A Session holds the ordered turn list plus the ambient input state (text
// draft, pending image, in-flight flag, banner error) and orchestrates the
// submit -> upload -> stream -> apply cycle. At most one submission is in
// flight per session; stream events are applied to the in-flight assistant
// turn strictly in arrival order, keyed by the turn's ID so that events
// belonging to a discarded conversation are dropped as no-ops.
//
// # Key Types
//
//   - Session: turn list, input state, and submission orchestration
//   - Streamer: the transport dependency (satisfied by api.Client)
//   - Archiver: optional history persistence hook
//
// # Usage
//
//	session := chat.NewSession(client)
//	err := session.Submit(ctx, "What is this part?", imageBytes, "image/jpeg")
//
// Submit blocks until the response stream ends; run it from a goroutine
// (or a Bubble Tea command) and read render state via Turns()/State().
package chat
