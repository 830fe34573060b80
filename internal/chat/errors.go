// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "errors"

// User-facing strings for the two transport-failure surfaces. The turn
// message replaces the assistant answer; the banner message is shown
// separately above the input surface.
const (
	// TurnFailureMessage replaces the in-flight assistant turn's text
	// when the stream or request fails.
	TurnFailureMessage = "Failed to connect to the analysis engine. " +
		"Please verify that the inspection server is reachable."

	// BannerFailureMessage is the session-level error banner for the
	// same condition.
	BannerFailureMessage = "Network connectivity issue. The inspection server could not be reached."
)

// Validation errors. Both are rejected before any network call and leave
// session state unchanged.
var (
	// ErrImageRequired is returned when the first submission of a
	// session carries no image.
	ErrImageRequired = errors.New("An image is mandatory for the first message.")

	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("a submission is already in progress")
)
