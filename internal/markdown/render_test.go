// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// BLOCK TESTS
// =============================================================================

func TestRender_Headings(t *testing.T) {
	blocks := Render("# Title\n## Section\n### Detail")
	require.Len(t, blocks, 3)

	assert.Equal(t, BlockHeading, blocks[0].Kind)
	assert.Equal(t, 1, blocks[0].Level)
	assert.Equal(t, "Title", PlainText(blocks[0].Spans))

	assert.Equal(t, 2, blocks[1].Level)
	assert.Equal(t, "Section", PlainText(blocks[1].Spans))

	assert.Equal(t, 3, blocks[2].Level)
	assert.Equal(t, "Detail", PlainText(blocks[2].Spans))
}

func TestRender_ListThenParagraph(t *testing.T) {
	blocks := Render("- a\n- b\nc")
	require.Len(t, blocks, 2)

	require.Equal(t, BlockList, blocks[0].Kind)
	require.Len(t, blocks[0].Items, 2)
	assert.Equal(t, "a", PlainText(blocks[0].Items[0]))
	assert.Equal(t, "b", PlainText(blocks[0].Items[1]))

	require.Equal(t, BlockParagraph, blocks[1].Kind)
	assert.Equal(t, "c", PlainText(blocks[1].Spans))
}

func TestRender_MixedListMarkersMerge(t *testing.T) {
	// Dash, star, and numbered lines run together into one list.
	blocks := Render("- one\n* two\n3. three")
	require.Len(t, blocks, 1)
	require.Equal(t, BlockList, blocks[0].Kind)
	require.Len(t, blocks[0].Items, 3)
	assert.Equal(t, "three", PlainText(blocks[0].Items[2]))
}

func TestRender_BlankLineIsSpacer(t *testing.T) {
	blocks := Render("a\n\nb")
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockParagraph, blocks[0].Kind)
	assert.Equal(t, BlockSpacer, blocks[1].Kind)
	assert.Equal(t, BlockParagraph, blocks[2].Kind)
}

func TestRender_BlankLineFlushesList(t *testing.T) {
	blocks := Render("- a\n\n- b")
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockList, blocks[0].Kind)
	assert.Equal(t, BlockSpacer, blocks[1].Kind)
	assert.Equal(t, BlockList, blocks[2].Kind)
}

func TestRender_TrailingListFlushed(t *testing.T) {
	blocks := Render("intro\n- a\n- b")
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockList, blocks[1].Kind)
	assert.Len(t, blocks[1].Items, 2)
}

func TestRender_IndentedLinesTrimmed(t *testing.T) {
	blocks := Render("   - a")
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockList, blocks[0].Kind)
}

// =============================================================================
// INLINE TESTS
// =============================================================================

func TestRender_InlineBold(t *testing.T) {
	blocks := Render("before **strong** after")
	require.Len(t, blocks, 1)

	spans := blocks[0].Spans
	require.Len(t, spans, 3)
	assert.Equal(t, SpanText, spans[0].Kind)
	assert.Equal(t, "before ", spans[0].Text)
	assert.Equal(t, SpanBold, spans[1].Kind)
	assert.Equal(t, "strong", spans[1].Text)
	assert.Equal(t, " after", spans[2].Text)
}

func TestRender_InlineLink(t *testing.T) {
	blocks := Render("see [the manual](https://x/m.pdf) for details")
	require.Len(t, blocks, 1)

	spans := blocks[0].Spans
	require.Len(t, spans, 3)
	assert.Equal(t, SpanLink, spans[1].Kind)
	assert.Equal(t, "the manual", spans[1].Text)
	assert.Equal(t, "https://x/m.pdf", spans[1].URL)
}

func TestRender_BoldInsideListItem(t *testing.T) {
	blocks := Render("- a **b** c")
	require.Len(t, blocks, 1)
	item := blocks[0].Items[0]
	require.Len(t, item, 3)
	assert.Equal(t, SpanBold, item[1].Kind)
}

// =============================================================================
// PARTIAL BUFFER TESTS
// =============================================================================

func TestRender_UnterminatedBoldStaysLiteral(t *testing.T) {
	blocks := Render("**bold")
	require.Len(t, blocks, 1)
	require.Equal(t, BlockParagraph, blocks[0].Kind)

	require.Len(t, blocks[0].Spans, 1)
	assert.Equal(t, SpanText, blocks[0].Spans[0].Kind)
	assert.Equal(t, "**bold", blocks[0].Spans[0].Text)
}

func TestRender_UnterminatedLinkStaysLiteral(t *testing.T) {
	blocks := Render("see [the manual](https://x/m.p")
	require.Len(t, blocks, 1)
	assert.Equal(t, "see [the manual](https://x/m.p", PlainText(blocks[0].Spans))
	for _, s := range blocks[0].Spans {
		assert.NotEqual(t, SpanLink, s.Kind)
	}
}

func TestRender_EveryPrefixIsSafe(t *testing.T) {
	// Re-render every prefix of a realistic streamed answer; the renderer
	// must never panic and always produce some tree for non-empty input.
	full := "## Result\nThe part is a **check valve**.\n\n- See [spec](https://x/s)\n1. torque to 12 Nm"
	for i := 0; i <= len(full); i++ {
		blocks := Render(full[:i])
		if i > 0 {
			assert.NotEmpty(t, blocks, "prefix %d rendered to nothing", i)
		}
	}
}
