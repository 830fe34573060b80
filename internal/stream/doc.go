// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream parses the inspection service's streamed response protocol.
//
// The wire format is line-oriented, server-sent-event style: UTF-8 text,
// newline-delimited records, payload records prefixed with the literal
// "data: " marker followed by a JSON object whose "type" field selects the
// event variant. Chunk boundaries do not align with record boundaries, so
// the parser buffers the trailing partial line across chunks and only ever
// decodes complete lines.
//
// # Key Types
//
//   - LineBuffer: reassembles complete lines from arbitrary byte chunks
//   - Parser: turns byte chunks into typed model.StreamEvent values
//
// # Usage
//
// Push-driven, for transports that deliver discrete chunks:
//
//	p := stream.NewParser()
//	events := p.Feed(chunk)
//
// Pull-driven, for an io.Reader response body:
//
//	err := stream.Process(ctx, resp.Body, func(ev model.StreamEvent) { ... })
package stream
