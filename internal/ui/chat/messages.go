// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// =============================================================================
// MESSAGES
// =============================================================================

// SessionUpdatedMsg signals that the session mutated (a stream delta
// arrived, the banner changed, a transcript landed). The view re-reads
// session state and re-renders.
type SessionUpdatedMsg struct{}

// SubmitFinishedMsg is posted when a blocking Submit call returns.
// Err is nil on success; validation and transport errors carry through.
type SubmitFinishedMsg struct {
	Err error
}

// ImageAttachedMsg is posted after an /attach command loads a file.
type ImageAttachedMsg struct {
	Path string
	Err  error
}

// LinkResolvedMsg carries a freshly resolved reference link.
type LinkResolvedMsg struct {
	URL string
}
