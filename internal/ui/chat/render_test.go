// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/icarus698x/landing-page/internal/markdown"
	"github.com/icarus698x/landing-page/internal/model"
	"github.com/icarus698x/landing-page/internal/storage"
	"github.com/icarus698x/landing-page/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme()
}

func TestRenderMarkdown_BlockKinds(t *testing.T) {
	theme := testTheme()
	text := "## Valve Inspection\n\nThe seat shows **pitting** near the edge.\n- check torque\n- replace gasket"

	out := RenderMarkdown(theme, text, 60)

	for _, want := range []string{
		"Valve Inspection",
		"pitting",
		"- check torque",
		"- replace gasket",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderMarkdown_PartialBufferIsSafe(t *testing.T) {
	theme := testTheme()

	// A buffer cut mid-bold must still render without the markers leaking
	// a panic; content text must survive.
	out := RenderMarkdown(theme, "The part is **almo", 60)
	if !strings.Contains(out, "almo") {
		t.Errorf("partial bold text lost: %q", out)
	}
}

func TestRenderSpans_OrderPreserved(t *testing.T) {
	theme := testTheme()
	spans := []markdown.Span{
		{Kind: markdown.SpanText, Text: "see "},
		{Kind: markdown.SpanLink, Text: "the manual", URL: "https://example.com/m"},
		{Kind: markdown.SpanText, Text: " first"},
	}

	out := RenderSpans(theme, spans)
	plain := stripIndex(out, "see ")
	link := stripIndex(out, "the manual")
	tail := stripIndex(out, " first")
	if plain == -1 || link == -1 || tail == -1 {
		t.Fatalf("span text missing: %q", out)
	}
	if !(plain < link && link < tail) {
		t.Errorf("span order not preserved: %q", out)
	}
}

func stripIndex(s, sub string) int {
	return strings.Index(s, sub)
}

func TestRenderMatches_SkipsUnusableAndNumbers(t *testing.T) {
	theme := testTheme()
	matches := []model.ImageMatch{
		{FileName: "gate-valve.jpg", PageURL: "https://example.com/gate", Accuracy: 93.4},
		{}, // no URLs at all, not renderable
		{FileName: "ball-valve.jpg", SignedURL: "https://example.com/ball?sig=x", Accuracy: 71.2},
	}

	out := RenderMatches(theme, matches, true, 60)

	if !strings.Contains(out, "1. gate-valve.jpg") {
		t.Errorf("first usable match not numbered 1: %q", out)
	}
	if !strings.Contains(out, "2. ball-valve.jpg") {
		t.Errorf("unusable match should not consume a number: %q", out)
	}
	if !strings.Contains(out, "93.4%") || !strings.Contains(out, "71.2%") {
		t.Errorf("accuracy missing: %q", out)
	}
}

func TestRenderMatches_AccuracyHidden(t *testing.T) {
	theme := testTheme()
	matches := []model.ImageMatch{
		{FileName: "gate-valve.jpg", PageURL: "https://example.com/gate", Accuracy: 93.4},
	}

	out := RenderMatches(theme, matches, false, 60)
	if strings.Contains(out, "93.4") {
		t.Errorf("accuracy shown despite being disabled: %q", out)
	}
}

func TestLatestMatches(t *testing.T) {
	early := model.NewAssistantTurn()
	early.SetMatches([]model.ImageMatch{{FileName: "old.jpg", PageURL: "https://x/1"}})
	bare := model.NewAssistantTurn()
	late := model.NewAssistantTurn()
	late.SetMatches([]model.ImageMatch{{FileName: "new.jpg", PageURL: "https://x/2"}})

	turns := []*model.Turn{
		model.NewUserTurn("first", []byte{1}, "image/jpeg"),
		early,
		model.NewUserTurn("second", nil, ""),
		late,
		model.NewUserTurn("third", nil, ""),
		bare,
	}

	got := latestMatches(turns)
	if len(got) != 1 || got[0].FileName != "new.jpg" {
		t.Fatalf("latestMatches = %+v, want the newest non-empty set", got)
	}

	if latestMatches(nil) != nil {
		t.Error("latestMatches(nil) should be nil")
	}
}

func TestRenderHistory(t *testing.T) {
	theme := testTheme()

	out := RenderHistory(theme, nil, 60)
	if !strings.Contains(out, "No archived chats") {
		t.Errorf("empty history missing placeholder: %q", out)
	}

	metas := []storage.SessionMeta{
		{ID: "sess_1", Summary: "Gate valve pitting", TurnCount: 4, Preview: "what is this part?"},
	}
	out = RenderHistory(theme, metas, 60)
	for _, want := range []string{"Gate valve pitting", "4 turns", "what is this part?"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncateCells(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		width int
		want  string
	}{
		{"fits", "https://x/a", 20, "https://x/a"},
		{"truncated", "https://example.com/very/long/blob/path.jpg", 20, "https://example.c..."},
		{"tiny width clamps", "https://example.com", 1, "h..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateCells(tt.url, tt.width); got != tt.want {
				t.Errorf("TruncateCells(%q, %d) = %q, want %q", tt.url, tt.width, got, tt.want)
			}
		})
	}
}
