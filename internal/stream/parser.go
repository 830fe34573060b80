// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/icarus698x/landing-page/internal/model"
)

// dataPrefix is the fixed marker for payload-carrying records. Lines
// without it (keep-alive comments, blank lines) are ignored.
const dataPrefix = "data: "

// readBufferSize is the chunk size used when draining an io.Reader.
const readBufferSize = 4 * 1024

// ErrNoBody is returned by Process when the transport yields no reader.
// This is fatal for the request: there is nothing to parse.
var ErrNoBody = errors.New("stream: response has no body")

// =============================================================================
// LINE BUFFER
// =============================================================================

// LineBuffer reassembles newline-delimited lines from byte chunks whose
// boundaries are arbitrary. The trailing partial line is carried over to
// the next Feed call; a final unterminated line is never emitted.
type LineBuffer struct {
	partial bytes.Buffer
}

// Feed appends a chunk and returns all newly completed lines, without
// their trailing newline. Carriage returns are stripped.
func (b *LineBuffer) Feed(chunk []byte) []string {
	b.partial.Write(chunk)

	data := b.partial.Bytes()
	last := bytes.LastIndexByte(data, '\n')
	if last < 0 {
		return nil
	}

	complete := data[:last]
	rest := append([]byte(nil), data[last+1:]...)
	lines := strings.Split(string(complete), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	b.partial.Reset()
	b.partial.Write(rest)
	return lines
}

// Pending returns the size of the buffered partial line.
func (b *LineBuffer) Pending() int {
	return b.partial.Len()
}

// =============================================================================
// RECORD DECODING
// =============================================================================

// wireRecord is the JSON payload shape carried after the data marker.
// The trust boundary is here: a record either decodes into a closed
// StreamEvent variant or is dropped before it can touch session state.
type wireRecord struct {
	Type    string             `json:"type"`
	Content string             `json:"content"`
	Matches []model.ImageMatch `json:"matches"`
}

// decodeLine turns one complete line into a StreamEvent.
// The second return is false for non-payload lines and malformed or
// unrecognized payloads; a single corrupt record never aborts the stream.
func decodeLine(line string) (model.StreamEvent, bool) {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return model.StreamEvent{}, false
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return model.StreamEvent{}, false
	}

	var rec wireRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		log.Printf("stream: dropping malformed record: %v", err)
		return model.StreamEvent{}, false
	}

	switch rec.Type {
	case "content":
		if rec.Content == "" {
			return model.StreamEvent{}, false
		}
		return model.ContentEvent(rec.Content), true
	case "image_matches":
		if rec.Matches == nil {
			return model.StreamEvent{}, false
		}
		return model.MatchesEvent(rec.Matches), true
	default:
		return model.StreamEvent{}, false
	}
}

// =============================================================================
// PARSER
// =============================================================================

// Parser converts raw transport chunks into typed events, in arrival order.
type Parser struct {
	lines LineBuffer
}

// NewParser creates a parser with an empty reassembly buffer.
func NewParser() *Parser {
	return &Parser{}
}

// Feed consumes one transport chunk and returns the events completed by it.
func (p *Parser) Feed(chunk []byte) []model.StreamEvent {
	var events []model.StreamEvent
	for _, line := range p.lines.Feed(chunk) {
		if ev, ok := decodeLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// =============================================================================
// READER-DRIVEN PROCESSING
// =============================================================================

// Process drains the reader, invoking fn for each decoded event in arrival
// order. It returns nil on ordinary end of stream; the protocol requires no
// explicit completion sentinel, so EOF is normal termination and any
// incomplete trailing line is discarded. A nil reader is ErrNoBody.
func Process(ctx context.Context, r io.Reader, fn func(model.StreamEvent)) error {
	if r == nil {
		return ErrNoBody
	}

	p := NewParser()
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			for _, ev := range p.Feed(buf[:n]) {
				fn(ev)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
