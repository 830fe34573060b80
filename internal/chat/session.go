// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/icarus698x/landing-page/internal/api"
	"github.com/icarus698x/landing-page/internal/model"
	"github.com/icarus698x/landing-page/internal/speech"
	"github.com/icarus698x/landing-page/internal/stream"
	"github.com/icarus698x/landing-page/internal/util"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Streamer is the transport the session submits through.
// *api.Client satisfies it.
type Streamer interface {
	ChatStream(ctx context.Context, conversation []api.ConversationMessage, image []byte) (io.ReadCloser, error)
}

// Archiver persists a finished exchange to chat history.
// *storage.ChatStore satisfies it.
type Archiver interface {
	SaveSession(id string, turns []*model.Turn) error
}

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the session-level availability state.
type State int

const (
	// StateIdle means no request is in flight; input is enabled.
	StateIdle State = iota

	// StateSubmitting means a request is in flight; the input surface
	// must be disabled so a second submission cannot start.
	StateSubmitting
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the conversation state machine plus ambient input state.
// All exported methods are safe for concurrent use; the stream goroutine
// and the render loop share one Session.
type Session struct {
	mu sync.Mutex

	id    string
	turns []*model.Turn

	// Ambient input state.
	draft        string
	pendingImage []byte
	pendingMime  string
	listening    bool
	bannerErr    string

	state State

	// targetID is the ID of the in-flight assistant turn. Events carrying
	// any other ID are stale (the conversation was reset underneath an
	// open stream) and are discarded.
	targetID string

	client  Streamer
	archive Archiver

	// onUpdate, when set, is invoked after every state mutation that
	// changes render output. The TUI uses it to trigger a redraw.
	onUpdate func()
}

// NewSession creates an idle session backed by the given transport.
func NewSession(client Streamer) *Session {
	return &Session{
		id:     newSessionID(),
		client: client,
	}
}

// WithArchiver sets the optional history persistence hook.
func (s *Session) WithArchiver(a Archiver) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archive = a
	return s
}

// OnUpdate sets the render invalidation hook.
func (s *Session) OnUpdate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

func (s *Session) notifyLocked() func() {
	return s.onUpdate
}

// notify invokes the update hook outside the lock.
func (s *Session) notify(fn func()) {
	if fn != nil {
		fn()
	}
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

// ID returns the session's identity, stable until Reset.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Turns returns a snapshot of the ordered turn list. Each turn is a
// deep copy: the stream goroutine keeps mutating the live structs under
// the session mutex, so handing out the originals would race with any
// reader outside it.
func (s *Session) Turns() []*model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Turn, len(s.turns))
	for i, turn := range s.turns {
		out[i] = turn.Clone()
	}
	return out
}

// TurnCount returns the number of turns.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// State returns the session-level availability state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InFlight reports whether a submission is in progress.
func (s *Session) InFlight() bool {
	return s.State() == StateSubmitting
}

// BannerError returns the current banner-level error message, if any.
func (s *Session) BannerError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bannerErr
}

// =============================================================================
// AMBIENT INPUT STATE
// =============================================================================

// SetDraft replaces the text draft.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Draft returns the current text draft.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// AttachImage decodes a data-URL image and stages it for the next
// submission. Attaching clears any banner error, mirroring the capture
// surface's behavior.
func (s *Session) AttachImage(dataURL string) error {
	mime, data, err := util.DecodeDataURL(dataURL)
	if err != nil {
		return err
	}
	s.AttachImageBytes(data, mime)
	return nil
}

// AttachImageBytes stages already-decoded image bytes.
func (s *Session) AttachImageBytes(data []byte, mimeType string) {
	s.mu.Lock()
	s.pendingImage = data
	s.pendingMime = mimeType
	s.bannerErr = ""
	fn := s.notifyLocked()
	s.mu.Unlock()
	s.notify(fn)
}

// ClearImage discards the staged image.
func (s *Session) ClearImage() {
	s.mu.Lock()
	s.pendingImage = nil
	s.pendingMime = ""
	fn := s.notifyLocked()
	s.mu.Unlock()
	s.notify(fn)
}

// PendingImage returns the staged image bytes and MIME type.
func (s *Session) PendingImage() ([]byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingImage, s.pendingMime
}

// =============================================================================
// SPEECH WIRING
// =============================================================================

// AttachRecognizer wires a speech-to-text capability into the session:
// the final transcript is appended to the draft and the listening flag is
// cleared whenever the recognizer ends for any reason.
func (s *Session) AttachRecognizer(r speech.Recognizer) {
	r.OnFinalTranscript(s.AppendTranscript)
	r.OnEnd(func() {
		s.mu.Lock()
		s.listening = false
		fn := s.notifyLocked()
		s.mu.Unlock()
		s.notify(fn)
	})
}

// AppendTranscript appends a final transcript to the draft, separated by
// a single space when the draft is non-empty.
func (s *Session) AppendTranscript(transcript string) {
	s.mu.Lock()
	if s.draft != "" {
		s.draft += " "
	}
	s.draft += transcript
	fn := s.notifyLocked()
	s.mu.Unlock()
	s.notify(fn)
}

// SetListening updates the listening indicator.
func (s *Session) SetListening(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listening = on
	if on {
		s.bannerErr = ""
	}
}

// Listening reports whether a listening window is open.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit validates and performs one full submission: append the user turn
// and an empty assistant placeholder, upload, then apply stream events
// until the stream ends. It blocks for the life of the stream; run it
// from a goroutine and observe progress via Turns()/State().
//
// Returns ErrImageRequired on a first submission without an image, ErrBusy
// when a submission is already in flight, and nil (a deliberate no-op)
// when there is nothing to send. Transport failures are returned and also
// surfaced in session state as the fixed user-facing messages.
func (s *Session) Submit(ctx context.Context, text string, image []byte, imageMime string) error {
	assistantID, conversation, started, err := s.begin(text, image, imageMime)
	if err != nil || !started {
		return err
	}
	return s.run(ctx, assistantID, conversation, image)
}

// begin is the validation gate and the only turn-list writer on the
// submit path. On success the turn count has grown by exactly two (user,
// then empty assistant placeholder) and the session is submitting.
func (s *Session) begin(text string, image []byte, imageMime string) (assistantID string, conversation []api.ConversationMessage, started bool, err error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitting {
		return "", nil, false, ErrBusy
	}
	if len(s.turns) == 0 && len(image) == 0 {
		s.bannerErr = ErrImageRequired.Error()
		return "", nil, false, ErrImageRequired
	}
	if text == "" && len(image) == 0 {
		// Nothing to send. Deliberate no-op, not an error.
		return "", nil, false, nil
	}

	s.bannerErr = ""
	user := model.NewUserTurn(text, image, imageMime)
	assistant := model.NewAssistantTurn()
	s.turns = append(s.turns, user, assistant)

	// The request carries every turn so far including the new user turn,
	// but not the empty assistant placeholder.
	conversation = buildConversation(s.turns[:len(s.turns)-1])

	s.state = StateSubmitting
	s.targetID = assistant.ID
	s.draft = ""
	s.pendingImage = nil
	s.pendingMime = ""

	return assistant.ID, conversation, true, nil
}

// run performs the upload and drives the response stream to completion.
func (s *Session) run(ctx context.Context, assistantID string, conversation []api.ConversationMessage, image []byte) error {
	body, err := s.client.ChatStream(ctx, conversation, image)
	if err != nil {
		s.failTurn(assistantID)
		return err
	}
	if body == nil {
		s.failTurn(assistantID)
		return stream.ErrNoBody
	}
	defer body.Close()

	err = stream.Process(ctx, body, func(ev model.StreamEvent) {
		s.Apply(assistantID, ev)
	})
	if err != nil {
		s.failTurn(assistantID)
		return err
	}

	s.finishTurn(assistantID)
	return nil
}

// buildConversation reduces turns to the wire's {role, content} pairs.
func buildConversation(turns []*model.Turn) []api.ConversationMessage {
	conversation := make([]api.ConversationMessage, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == model.RoleAssistant {
			role = "assistant"
		}
		conversation = append(conversation, api.ConversationMessage{
			Role:    role,
			Content: t.Text,
		})
	}
	return conversation
}

// =============================================================================
// EVENT APPLICATION
// =============================================================================

// Apply mutates the targeted assistant turn with one stream event.
// Events for any turn other than the live target are discarded: they
// belong to a conversation the user has already abandoned.
func (s *Session) Apply(turnID string, ev model.StreamEvent) {
	s.mu.Lock()

	if turnID != s.targetID {
		s.mu.Unlock()
		return
	}

	turn := s.turnByIDLocked(turnID)
	if turn == nil {
		s.mu.Unlock()
		return
	}

	switch ev.Kind {
	case model.EventContent:
		turn.AppendText(ev.Text)
	case model.EventMatches:
		turn.SetMatches(ev.Matches)
	case model.EventDone:
		s.completeLocked(turn)
	case model.EventError:
		message := ev.Message
		if message == "" {
			message = TurnFailureMessage
		}
		turn.Fail(message)
		s.bannerErr = BannerFailureMessage
		s.completeLocked(nil)
	}

	fn := s.notifyLocked()
	s.mu.Unlock()
	s.notify(fn)
}

// failTurn overwrites the in-flight turn with the fixed connectivity
// message, raises the banner, and returns the session to idle. Stale IDs
// (the session was reset while the stream was open) are no-ops.
func (s *Session) failTurn(turnID string) {
	s.mu.Lock()

	if turnID != s.targetID {
		s.mu.Unlock()
		return
	}

	if turn := s.turnByIDLocked(turnID); turn != nil {
		turn.Fail(TurnFailureMessage)
	}
	s.bannerErr = BannerFailureMessage
	s.completeLocked(nil)

	fn := s.notifyLocked()
	s.mu.Unlock()
	s.notify(fn)
}

// finishTurn finalizes the in-flight turn after ordinary stream end.
func (s *Session) finishTurn(turnID string) {
	s.mu.Lock()

	if turnID != s.targetID {
		s.mu.Unlock()
		return
	}

	turn := s.turnByIDLocked(turnID)
	s.completeLocked(turn)

	fn := s.notifyLocked()
	s.mu.Unlock()
	s.notify(fn)

	s.archiveSnapshot()
}

// completeLocked finalizes an optional turn and returns the session to
// idle. Caller must hold the lock.
func (s *Session) completeLocked(turn *model.Turn) {
	if turn != nil {
		turn.Finalize()
	}
	s.state = StateIdle
	s.targetID = ""
}

// turnByIDLocked finds a turn by ID. Caller must hold the lock.
func (s *Session) turnByIDLocked(id string) *model.Turn {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].ID == id {
			return s.turns[i]
		}
	}
	return nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset discards the whole conversation and all ambient input state,
// unconditionally. An open stream is abandoned, not closed: its remaining
// events carry the old assistant turn ID, no longer the live target, and
// are dropped on arrival.
func (s *Session) Reset() {
	s.archiveSnapshot()

	s.mu.Lock()
	s.id = newSessionID()
	s.turns = nil
	s.draft = ""
	s.pendingImage = nil
	s.pendingMime = ""
	s.listening = false
	s.bannerErr = ""
	s.state = StateIdle
	s.targetID = ""
	fn := s.notifyLocked()
	s.mu.Unlock()
	s.notify(fn)
}

// archiveSnapshot persists the current turns to history, when an archiver
// is configured and there is a finished exchange to keep.
func (s *Session) archiveSnapshot() {
	s.mu.Lock()
	archive := s.archive
	id := s.id
	var turns []*model.Turn
	if len(s.turns) > 0 {
		// Cloned under the lock: a reset can race an open stream that
		// is still mutating the in-flight assistant turn.
		turns = make([]*model.Turn, len(s.turns))
		for i, turn := range s.turns {
			turns[i] = turn.Clone()
		}
	}
	s.mu.Unlock()

	if archive == nil || len(turns) == 0 {
		return
	}
	if err := archive.SaveSession(id, turns); err != nil {
		log.Printf("chat: failed to archive session %s: %v", id, err)
	}
}

// newSessionID creates a unique session identity.
func newSessionID() string {
	return "sess_" + uuid.NewString()
}
