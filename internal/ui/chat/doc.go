// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view: the scrolling turn
// list, the input surface, and the rendering of streamed answers.
//
// # Key Types
//
//   - Model: the Bubble Tea model wrapping a *chat.Session
//   - SessionUpdatedMsg: posted whenever the session mutates mid-stream
//   - SubmitFinishedMsg: posted when a blocking submission returns
//
// The session runs its stream on a background goroutine; the view stays
// live by re-reading session state on every SessionUpdatedMsg. Wiring
// happens in main: session.OnUpdate posts SessionUpdatedMsg through the
// running program.
//
// # Usage
//
//	m := chatui.New(theme, session, resolver, cfg.UI)
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	session.OnUpdate(func() { p.Send(chatui.SessionUpdatedMsg{}) })
package chat
