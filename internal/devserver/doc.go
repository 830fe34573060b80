// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver provides a local mock of the Xopsentia inspection
// service for development and demos without network access.
//
// Endpoints:
//   - POST /api/chat/stream - streamed chat responses (newline-delimited data records)
//   - GET  /api/sas/{blob}  - short-lived signed URL issuance
//   - GET  /health          - health check
//   - GET  /stats           - usage statistics
//
// The chat endpoint accepts the same multipart shape the production
// service does and replays a scripted answer token by token, including
// an image_matches record when the request carried an image.
package devserver
