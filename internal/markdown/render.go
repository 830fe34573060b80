// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"
)

var (
	// linkPattern matches a complete [label](url) form. A buffer that ends
	// mid-link simply does not match and stays literal.
	linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

	// boldPattern matches a complete **text** form.
	boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)

	// orderedItemPattern matches an ordered-list line prefix like "3. ".
	orderedItemPattern = regexp.MustCompile(`^\d+\.\s`)
)

// =============================================================================
// NODE TYPES
// =============================================================================

// BlockKind discriminates the block-level node variants.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockList
	BlockSpacer
)

// SpanKind discriminates the inline node variants.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
	SpanLink
)

// Span is one inline run within a block's text.
type Span struct {
	Kind SpanKind
	Text string
	URL  string // SpanLink only
}

// Block is one line-oriented node of the display tree.
type Block struct {
	Kind  BlockKind
	Level int      // BlockHeading: 1 (largest) to 3
	Spans []Span   // heading and paragraph content
	Items [][]Span // BlockList: one span slice per item
}

// PlainText flattens a span slice back to its raw text, links as labels.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// =============================================================================
// RENDER
// =============================================================================

// Render parses the buffer into its block tree. Safe to call on any
// partial buffer state; the buffer, not a diff, is the unit of re-render.
func Render(text string) []Block {
	var blocks []Block
	var listItems [][]Span

	flushList := func() {
		if len(listItems) > 0 {
			blocks = append(blocks, Block{Kind: BlockList, Items: listItems})
			listItems = nil
		}
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)

		switch {
		case strings.HasPrefix(line, "### "):
			flushList()
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 3, Spans: parseInline(line[4:])})
		case strings.HasPrefix(line, "## "):
			flushList()
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 2, Spans: parseInline(line[3:])})
		case strings.HasPrefix(line, "# "):
			flushList()
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 1, Spans: parseInline(line[2:])})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			listItems = append(listItems, parseInline(line[2:]))
		case orderedItemPattern.MatchString(line):
			item := orderedItemPattern.ReplaceAllString(line, "")
			listItems = append(listItems, parseInline(item))
		case line == "":
			flushList()
			blocks = append(blocks, Block{Kind: BlockSpacer})
		default:
			flushList()
			blocks = append(blocks, Block{Kind: BlockParagraph, Spans: parseInline(line)})
		}
	}

	flushList()
	return blocks
}

// =============================================================================
// INLINE PARSING
// =============================================================================

// parseInline splits a line into text, link, and bold spans. Links are
// recognized first; bold runs are then found inside the non-link segments.
func parseInline(line string) []Span {
	var spans []Span
	last := 0

	for _, m := range linkPattern.FindAllStringSubmatchIndex(line, -1) {
		if m[0] > last {
			spans = append(spans, parseBold(line[last:m[0]])...)
		}
		spans = append(spans, Span{
			Kind: SpanLink,
			Text: line[m[2]:m[3]],
			URL:  line[m[4]:m[5]],
		})
		last = m[1]
	}

	if last < len(line) {
		spans = append(spans, parseBold(line[last:])...)
	}
	return spans
}

// parseBold splits a text segment into plain and bold spans.
// An unterminated ** stays in the literal text.
func parseBold(segment string) []Span {
	var spans []Span
	last := 0

	for _, m := range boldPattern.FindAllStringSubmatchIndex(segment, -1) {
		if m[0] > last {
			spans = append(spans, Span{Kind: SpanText, Text: segment[last:m[0]]})
		}
		spans = append(spans, Span{Kind: SpanBold, Text: segment[m[2]:m[3]]})
		last = m[1]
	}

	if last < len(segment) {
		spans = append(spans, Span{Kind: SpanText, Text: segment[last:]})
	}
	return spans
}
