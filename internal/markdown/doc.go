// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts a possibly-incomplete text buffer into a
// structured block tree for display.
//
// The renderer is a pure function of the whole buffer: it is re-run on
// every content delta during streaming, requires no previous parse result,
// and never fails on partial input. An unterminated inline marker (a
// buffer ending mid "**bold" or mid-link) renders as literal text.
//
// # Key Types
//
//   - Block: one line-oriented node (heading, paragraph, list, spacer)
//   - Span: one inline run within a block (text, bold, link)
//
// # Usage
//
//	for _, block := range markdown.Render(turn.Text) {
//	    switch block.Kind { ... }
//	}
package markdown
