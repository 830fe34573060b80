// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// Every style group must be initialized; a zero style renders its
	// input unchanged, so check a few that carry attributes.
	if !theme.Heading1.GetBold() {
		t.Error("Heading1 should be bold")
	}
	if !theme.ErrorBanner.GetBold() {
		t.Error("ErrorBanner should be bold")
	}
}

func TestSetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize not applied: %dx%d", theme.Width, theme.Height)
	}
}

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme()
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.want)
		}
	}
}
