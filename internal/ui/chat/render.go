// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/icarus698x/landing-page/internal/markdown"
	"github.com/icarus698x/landing-page/internal/model"
	"github.com/icarus698x/landing-page/internal/storage"
	"github.com/icarus698x/landing-page/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// RenderMarkdown parses the (possibly partial) answer buffer and renders
// its block tree with the theme's text styles. Safe on any prefix of the
// stream; the whole buffer is re-rendered per update.
func RenderMarkdown(t *styles.Theme, text string, width int) string {
	blocks := markdown.Render(text)

	var out []string
	for _, b := range blocks {
		switch b.Kind {
		case markdown.BlockHeading:
			out = append(out, renderHeading(t, b))
		case markdown.BlockParagraph:
			out = append(out, RenderSpans(t, b.Spans))
		case markdown.BlockList:
			for _, item := range b.Items {
				out = append(out, t.ListItem.Render("- ")+RenderSpans(t, item))
			}
		case markdown.BlockSpacer:
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

func renderHeading(t *styles.Theme, b markdown.Block) string {
	text := markdown.PlainText(b.Spans)
	switch b.Level {
	case 1:
		return t.Heading1.Render(text)
	case 2:
		return t.Heading2.Render(text)
	default:
		return t.Heading3.Render(text)
	}
}

// RenderSpans renders one inline run, styling bold and link spans.
func RenderSpans(t *styles.Theme, spans []markdown.Span) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case markdown.SpanBold:
			b.WriteString(t.BoldText.Render(s.Text))
		case markdown.SpanLink:
			b.WriteString(t.LinkText.Render(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// =============================================================================
// MATCH CARDS
// =============================================================================

// RenderMatches renders the reference match cards for one answer.
// Unusable matches are skipped, mirroring the capture surface.
func RenderMatches(t *styles.Theme, matches []model.ImageMatch, showAccuracy bool, width int) string {
	var cards []string
	n := 0
	for i := range matches {
		match := &matches[i]
		if !match.Usable() {
			continue
		}
		n++
		cards = append(cards, renderMatchCard(t, match, n, showAccuracy, width))
	}
	return strings.Join(cards, "\n")
}

func renderMatchCard(t *styles.Theme, match *model.ImageMatch, n int, showAccuracy bool, width int) string {
	name := match.FileName
	if name == "" {
		name = "reference image"
	}

	head := t.MatchName.Render(fmt.Sprintf("%d. %s", n, name))
	if showAccuracy {
		acc := match.DisplayAccuracy() + "% match"
		if match.Accuracy >= 90 {
			head += "  " + t.MatchAccuracyHi.Render(acc)
		} else {
			head += "  " + t.MatchAccuracy.Render(acc)
		}
	}

	body := head
	if srcs := match.ImageSources(); len(srcs) > 0 {
		body += "\n" + t.MatchURL.Render(TruncateCells(srcs[0], width-6))
	}

	return t.MatchCard.MaxWidth(width).Render(body)
}

// latestMatches returns the matches of the most recent assistant turn
// that has any, newest first wins.
func latestMatches(turns []*model.Turn) []model.ImageMatch {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == model.RoleAssistant && len(turns[i].Matches) > 0 {
			return turns[i].Matches
		}
	}
	return nil
}

// =============================================================================
// HISTORY LIST
// =============================================================================

// RenderHistory renders the archived-session rail, most recent first.
func RenderHistory(t *styles.Theme, metas []storage.SessionMeta, width int) string {
	if len(metas) == 0 {
		return t.SessionList.Render(t.SessionMeta.Render("No archived chats yet."))
	}

	var rows []string
	rows = append(rows, t.Heading2.Render("Your chats"))
	for _, meta := range metas {
		title := meta.Summary
		if title == "" {
			title = meta.ID
		}
		line := t.SessionItem.Render(TruncateCells(title, width-20)) +
			t.SessionMeta.Render(fmt.Sprintf("  %d turns, %s",
				meta.TurnCount, meta.UpdatedAt.Format("Jan 2 15:04")))
		rows = append(rows, line)
		if meta.Preview != "" {
			rows = append(rows, t.SessionMeta.Render("  "+TruncateCells(meta.Preview, width-4)))
		}
	}
	return t.SessionList.MaxWidth(width).Render(strings.Join(rows, "\n"))
}

// =============================================================================
// TEXT HELPERS
// =============================================================================

// TruncateCells shortens a string to the given display width, measured
// in terminal cells rather than bytes.
func TruncateCells(u string, width int) string {
	if width < 4 {
		width = 4
	}
	if runewidth.StringWidth(u) <= width {
		return u
	}
	return runewidth.Truncate(u, width-3, "") + "..."
}
