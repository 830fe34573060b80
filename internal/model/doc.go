// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the inspection demo chat.
//
// # Key Types
//
//   - Turn: a single conversation entry (user question or assistant answer)
//   - ImageMatch: a candidate reference image returned with an answer
//   - StreamEvent: one decoded unit of the server's streamed response
//   - Role: turn author enumeration (user, assistant)
//
// # Usage
//
// Create the two turns of an exchange:
//
//	user := model.NewUserTurn("What is this part?", imageData)
//	assistant := model.NewAssistantTurn()
//	assistant.AppendText("It appears to be...")
package model
