// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the demo client.
//
// # Key Functions
//
//   - DecodeDataURL: converts a data-URL-encoded image to raw bytes
//   - TruncateRunes: rune-safe truncation for display labels
//   - FloatToStringPrec: fixed-precision float formatting for match scores
package util
