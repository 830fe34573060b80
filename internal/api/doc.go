// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the remote inspection service.
//
// The service exposes two endpoints consumed by the demo:
//
//   - POST /api/chat/stream - multipart chat submission with an optional
//     image, answered with a line-oriented event stream
//   - GET  /api/sas/{blobName} - short-lived signed URL for a stored blob
//
// # Key Types
//
//   - Client: pooled HTTP client for both endpoints
//   - ConversationMessage: one {role, content} pair of the request payload
//   - APIError: non-success HTTP status with response detail
//
// # Usage
//
//	client := api.NewClient("https://api.xopsentia.com")
//	body, err := client.ChatStream(ctx, conversation, imageBytes)
//	if err == nil {
//	    defer body.Close()
//	    err = stream.Process(ctx, body, apply)
//	}
package api
