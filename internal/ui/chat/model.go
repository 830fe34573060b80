// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	corechat "github.com/icarus698x/landing-page/internal/chat"
	"github.com/icarus698x/landing-page/internal/config"
	"github.com/icarus698x/landing-page/internal/sas"
	"github.com/icarus698x/landing-page/internal/speech"
	"github.com/icarus698x/landing-page/internal/storage"
	"github.com/icarus698x/landing-page/internal/ui/styles"
)

// resolveTimeout bounds a signed-URL lookup triggered from the view.
const resolveTimeout = 10 * time.Second

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the demo chat view.
type Model struct {
	theme *styles.Theme
	ui    config.UIConfig

	session    *corechat.Session
	resolver   *sas.Resolver
	recognizer speech.Recognizer
	store      *storage.ChatStore

	// Dimensions
	width  int
	height int
	ready  bool

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Image staged for the next submission, shown as a chip above the
	// input. The bytes live in the session; this is the display label.
	attachedName string

	// Transient one-line feedback under the input (command results,
	// resolved links). Cleared on the next keystroke.
	statusMsg string

	// Validation errors returned synchronously by Submit. Transport
	// failures surface through the session banner instead.
	localErr string
}

// New creates the chat view around an existing session.
func New(theme *styles.Theme, session *corechat.Session, resolver *sas.Resolver, ui config.UIConfig) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe the part, or /attach an image..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	return Model{
		theme:    theme,
		ui:       ui,
		session:  session,
		resolver: resolver,
		viewport: vp,
		input:    ti,
		spinner:  sp,
	}
}

// WithRecognizer wires an optional speech-to-text adapter. The session
// handles transcript delivery; the model only toggles the listening
// window on ctrl+t.
func (m Model) WithRecognizer(r speech.Recognizer) Model {
	m.recognizer = r
	m.session.AttachRecognizer(r)
	return m
}

// WithHistory enables the /history view over an archive store.
func (m Model) WithHistory(store *storage.ChatStore) Model {
	m.store = store
	return m
}

// Init starts the cursor blink and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionUpdatedMsg:
		// Draft may have grown out-of-band (speech transcript).
		if d := m.session.Draft(); d != "" && d != m.input.Value() {
			m.input.SetValue(d)
			m.input.CursorEnd()
		}
		m.refreshViewport(true)
		return m, nil

	case SubmitFinishedMsg:
		if msg.Err != nil {
			m.localErr = submitErrorText(msg.Err)
		}
		m.refreshViewport(true)
		return m, nil

	case ImageAttachedMsg:
		if msg.Err != nil {
			m.localErr = "attach failed: " + msg.Err.Error()
		} else {
			m.attachedName = filepath.Base(msg.Path)
			m.statusMsg = "attached " + m.attachedName
		}
		return m, nil

	case LinkResolvedMsg:
		m.statusMsg = msg.URL
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// header (1) + input area (3) + status (1)
	viewportHeight := msg.Height - 5
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = viewportHeight
	m.input.Width = msg.Width - 6

	m.ready = true
	m.refreshViewport(false)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if !m.session.InFlight() {
			return m, tea.Quit
		}
		return m, nil

	case "ctrl+l":
		m.session.Reset()
		m.input.SetValue("")
		m.attachedName = ""
		m.statusMsg = ""
		m.localErr = ""
		m.refreshViewport(false)
		return m, nil

	case "ctrl+t":
		return m.toggleListening()

	case "enter":
		return m.handleEnter()

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Plain typing clears transient feedback.
	m.statusMsg = ""
	m.localErr = ""

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.SetDraft(m.input.Value())
	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	if strings.HasPrefix(text, "/") {
		return m.handleCommand(text)
	}
	if m.session.InFlight() {
		return m, nil
	}

	image, imageMime := m.session.PendingImage()
	if text == "" && len(image) == 0 {
		return m, nil
	}

	m.input.SetValue("")
	m.attachedName = ""
	m.statusMsg = ""
	m.localErr = ""

	cmd := m.submitCmd(text, image, imageMime)
	m.refreshViewport(true)
	return m, cmd
}

// submitCmd runs the blocking submission on the command goroutine.
// Stream progress arrives via SessionUpdatedMsg; the final error via
// SubmitFinishedMsg.
func (m *Model) submitCmd(text string, image []byte, imageMime string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		err := sess.Submit(context.Background(), text, image, imageMime)
		return SubmitFinishedMsg{Err: err}
	}
}

func (m Model) toggleListening() (tea.Model, tea.Cmd) {
	if m.recognizer == nil {
		m.localErr = speech.ErrUnavailable.Error()
		return m, nil
	}
	if m.session.Listening() {
		m.recognizer.Stop()
		return m, nil
	}
	if err := m.recognizer.Start(); err != nil {
		m.localErr = err.Error()
		return m, nil
	}
	m.session.SetListening(true)
	return m, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

// handleCommand dispatches slash commands typed into the input.
func (m Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	m.input.SetValue("")
	m.session.SetDraft("")
	m.statusMsg = ""
	m.localErr = ""

	fields := strings.Fields(text)
	switch fields[0] {
	case "/attach":
		if len(fields) < 2 {
			m.localErr = "usage: /attach <path>"
			return m, nil
		}
		return m, m.attachCmd(strings.Join(fields[1:], " "))

	case "/detach":
		m.session.ClearImage()
		m.attachedName = ""
		m.statusMsg = "image removed"
		return m, nil

	case "/open":
		if len(fields) != 2 {
			m.localErr = "usage: /open <match number>"
			return m, nil
		}
		return m.openMatch(fields[1])

	case "/new":
		m.session.Reset()
		m.attachedName = ""
		m.refreshViewport(false)
		return m, nil

	case "/history":
		return m.showHistory(strings.Join(fields[1:], " "))

	case "/quit":
		return m, tea.Quit

	default:
		m.localErr = "unknown command: " + fields[0]
		return m, nil
	}
}

// attachCmd loads an image file and stages it on the session.
func (m *Model) attachCmd(path string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return ImageAttachedMsg{Path: path, Err: err}
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		sess.AttachImageBytes(data, mimeType)
		return ImageAttachedMsg{Path: path}
	}
}

// showHistory swaps the archived-session list into the viewport,
// filtered when a query is given. Any later session activity redraws
// the conversation over it.
func (m Model) showHistory(query string) (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.localErr = "chat history is disabled"
		return m, nil
	}

	var metas []storage.SessionMeta
	var err error
	if query != "" {
		metas, err = m.store.Search(query)
	} else {
		metas, err = m.store.List()
	}
	if err != nil {
		m.localErr = "history: " + err.Error()
		return m, nil
	}

	m.viewport.SetContent(RenderHistory(m.theme, metas, m.contentWidth()))
	m.viewport.GotoTop()
	m.statusMsg = "archived chats (send a message to return)"
	return m, nil
}

// openMatch resolves the page link of the numbered match in the latest
// assistant turn and shows the resulting URL.
func (m Model) openMatch(arg string) (tea.Model, tea.Cmd) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		m.localErr = "usage: /open <match number>"
		return m, nil
	}

	matches := latestMatches(m.session.Turns())
	if n > len(matches) {
		m.localErr = "no such match"
		return m, nil
	}

	target := matches[n-1].PageURL
	if target == "" {
		if srcs := matches[n-1].ImageSources(); len(srcs) > 0 {
			target = srcs[0]
		}
	}
	if target == "" {
		m.localErr = "match has no link"
		return m, nil
	}

	resolver := m.resolver
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()
		return LinkResolvedMsg{URL: resolver.ResolveLink(ctx, target)}
	}
}

// =============================================================================
// VIEWPORT
// =============================================================================

// refreshViewport re-renders the turn list into the viewport.
func (m *Model) refreshViewport(gotoBottom bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTurns())
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

func submitErrorText(err error) string {
	// The fixed turn and banner messages already cover transport
	// failures in the transcript; only validation errors need a local
	// echo here.
	switch {
	case err == nil:
		return ""
	case err == corechat.ErrBusy:
		return "still waiting on the previous answer"
	default:
		return err.Error()
	}
}
