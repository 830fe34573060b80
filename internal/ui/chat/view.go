// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	corechat "github.com/icarus698x/landing-page/internal/chat"
	"github.com/icarus698x/landing-page/internal/model"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete chat screen.
// Layout: header (1) + turns (viewport) + input area (3) + status (1).
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInputArea()
	status := m.renderStatusBar()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.viewport.View(),
		input,
		status,
	)
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render("icarus inspect")

	var state string
	if m.session.InFlight() {
		state = m.theme.ThinkingText.Render(" " + m.spinner.View() + " analyzing")
	}

	return m.theme.StatusBar.Width(m.width).Render(title + state)
}

// =============================================================================
// TURN LIST
// =============================================================================

// renderTurns renders the whole conversation for the viewport.
func (m Model) renderTurns() string {
	turns := m.session.Turns()
	if len(turns) == 0 {
		return m.renderEmptyState()
	}

	width := m.contentWidth()
	var parts []string
	for _, turn := range turns {
		switch turn.Role {
		case model.RoleUser:
			parts = append(parts, m.renderUserTurn(turn, width))
		case model.RoleAssistant:
			parts = append(parts, m.renderAssistantTurn(turn, width))
		}
	}
	return strings.Join(parts, "\n")
}

func (m Model) contentWidth() int {
	width := m.width - 8
	if width < 20 {
		width = 20
	}
	return width
}

func (m Model) renderUserTurn(turn *model.Turn, width int) string {
	var lines []string
	if turn.HasImage() {
		lines = append(lines, m.theme.ImageChip.Render("[image attached]"))
	}
	if turn.Text != "" {
		lines = append(lines, turn.Text)
	}
	body := strings.Join(lines, "\n")

	bubble := m.theme.UserBubble.MaxWidth(width).Render(body)

	// Right-align user turns.
	marginLeft := m.width - lipgloss.Width(bubble) - 2
	if marginLeft < 0 {
		marginLeft = 0
	}
	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(1).
		Render(bubble)
}

func (m Model) renderAssistantTurn(turn *model.Turn, width int) string {
	var body string
	switch {
	case turn.Text == "" && !turn.IsFinal():
		// Stream is open but no delta has arrived yet.
		body = m.theme.ThinkingText.Render(m.spinner.View() + " thinking...")
	case turn.Text == corechat.TurnFailureMessage:
		body = m.theme.FailedTurn.Render(turn.Text)
	default:
		body = RenderMarkdown(m.theme, turn.Text, width-4)
		if !turn.IsFinal() {
			body += m.theme.ThinkingText.Render("_")
		}
	}

	out := m.theme.AssistantBubble.MaxWidth(width).Render(body)

	// The match grid precedes the answer text, as on the capture surface.
	if len(turn.Matches) > 0 {
		cards := RenderMatches(m.theme, turn.Matches, m.ui.ShowAccuracy, width)
		out = cards + "\n" + out
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(out)
}

func (m Model) renderEmptyState() string {
	msg := strings.Join([]string{
		m.theme.Heading2.Render("Component inspection demo"),
		"",
		"Attach a photo of the part and describe what you need.",
		"",
		m.theme.SessionMeta.Render("/attach <path>   stage an image"),
		m.theme.SessionMeta.Render("/open <n>        open a reference match"),
		m.theme.SessionMeta.Render("/history [query] list or search archived chats"),
		m.theme.SessionMeta.Render("ctrl+l           start over"),
	}, "\n")

	return lipgloss.NewStyle().
		Padding(2, 4).
		Render(msg)
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInputArea renders the chip row, the text input, and the feedback
// line. Fixed at three lines so the layout never shifts while typing.
func (m Model) renderInputArea() string {
	var chips []string
	if m.attachedName != "" {
		chips = append(chips, m.theme.ImageChip.Render("[img] "+m.attachedName))
	}
	if m.session.Listening() {
		chips = append(chips, m.theme.Listening.Render("* listening"))
	}
	chipRow := strings.Join(chips, " ")

	inputLine := m.input.View()
	if m.session.InFlight() {
		inputLine += m.theme.ThinkingText.Render("  (waiting...)")
	}

	feedback := m.renderFeedback()

	area := lipgloss.JoinVertical(lipgloss.Left, chipRow, inputLine, feedback)
	return lipgloss.NewStyle().
		Height(3).
		MaxHeight(3).
		Width(m.width).
		Render(area)
}

// renderFeedback picks the one-line message under the input: banner
// errors first, then local validation errors, then transient status.
func (m Model) renderFeedback() string {
	if banner := m.session.BannerError(); banner != "" {
		return m.theme.ErrorBanner.Render(banner)
	}
	if m.localErr != "" {
		return m.theme.ErrorBanner.Render(m.localErr)
	}
	if m.statusMsg != "" {
		return m.theme.SessionMeta.Render(m.statusMsg)
	}
	return ""
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	left := m.theme.SessionMeta.Render(m.session.ID())

	hints := "enter=send | ctrl+t=speak | ctrl+l=new | ctrl+c=quit"
	right := m.theme.SessionMeta.Render(hints)

	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}

	return m.theme.StatusBar.Width(m.width).
		Render(left + strings.Repeat(" ", pad) + right)
}
