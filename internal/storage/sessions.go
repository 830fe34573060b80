// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/icarus698x/landing-page/internal/model"
	"github.com/icarus698x/landing-page/internal/util"
)

// =============================================================================
// STORED SESSION TYPES
// =============================================================================

// StoredSession is the on-disk shape of one chat session.
type StoredSession struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Turns []StoredTurn `json:"turns"`
}

// StoredTurn is the on-disk shape of one turn. Image bytes are not
// persisted; HadImage records that an image accompanied the turn.
type StoredTurn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	HadImage  bool      `json:"had_image,omitempty"`

	Matches []model.ImageMatch `json:"matches,omitempty"`
}

// SessionMeta carries the listing metadata shown in the sidebar.
type SessionMeta struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
	Preview   string    `json:"preview"`
}

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore handles session persistence.
type ChatStore struct {
	// BaseDir is the directory holding one JSON file per session.
	// Default: ~/.icarus/sessions/
	BaseDir string

	// MaxSessions limits retained sessions (0 = unlimited).
	MaxSessions int
}

// NewChatStore creates a store rooted in the user's home directory.
func NewChatStore() (*ChatStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewChatStoreWithDir(filepath.Join(homeDir, ".icarus", "sessions"))
}

// NewChatStoreWithDir creates a store with a custom directory.
func NewChatStoreWithDir(baseDir string) (*ChatStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &ChatStore{
		BaseDir:     baseDir,
		MaxSessions: 100,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// SaveSession persists a live turn list under the given session ID.
// It satisfies the chat package's Archiver interface.
func (s *ChatStore) SaveSession(id string, turns []*model.Turn) error {
	stored := &StoredSession{
		ID:    id,
		Turns: make([]StoredTurn, 0, len(turns)),
	}
	for _, t := range turns {
		stored.Turns = append(stored.Turns, StoredTurn{
			ID:        t.ID,
			Role:      string(t.Role),
			Content:   t.Text,
			Timestamp: t.Timestamp,
			HadImage:  t.HasImage(),
			Matches:   t.Matches,
		})
	}
	if len(stored.Turns) > 0 {
		stored.CreatedAt = stored.Turns[0].Timestamp
	}
	_, err := s.Save(stored)
	return err
}

// Save persists a stored session and returns its ID.
func (s *ChatStore) Save(sess *StoredSession) (string, error) {
	if sess.ID == "" {
		return "", ErrSessionIDRequired
	}

	if sess.Summary == "" {
		sess.Summary = generateSummary(sess)
	}

	sess.UpdatedAt = time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return "", err
	}

	// Atomic write with fsync prevents a half-written session file
	// when the process dies mid-save.
	if err := util.AtomicWriteFile(s.filePath(sess.ID), data, 0644); err != nil {
		return "", err
	}

	if s.MaxSessions > 0 {
		s.enforceLimit()
	}

	return sess.ID, nil
}

// generateSummary derives a summary from the first user turn.
func generateSummary(sess *StoredSession) string {
	for _, t := range sess.Turns {
		if t.Role == string(model.RoleUser) && t.Content != "" {
			content := strings.ReplaceAll(t.Content, "\n", " ")
			content = strings.ReplaceAll(content, "\r", "")
			return util.TruncateRunes(content, 50)
		}
	}
	return "New session"
}

// enforceLimit removes the oldest sessions when over the cap.
func (s *ChatStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxSessions {
		return
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.Before(metas[j].UpdatedAt)
	})

	excess := len(metas) - s.MaxSessions
	for i := 0; i < excess; i++ {
		s.Delete(metas[i].ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a session by ID.
func (s *ChatStore) Load(id string) (*StoredSession, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var sess StoredSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}

	return &sess, nil
}

// ModelTurns rebuilds live model turns from a stored session, for
// reopening a past inspection in the chat surface.
func (sess *StoredSession) ModelTurns() []*model.Turn {
	turns := make([]*model.Turn, 0, len(sess.Turns))
	for _, st := range sess.Turns {
		t := &model.Turn{
			ID:        st.ID,
			Role:      model.Role(st.Role),
			Timestamp: st.Timestamp,
			Text:      st.Content,
			Matches:   st.Matches,
		}
		t.Finalize()
		turns = append(turns, t)
	}
	return turns
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns metadata for all saved sessions, most recent first.
func (s *ChatStore) List() ([]SessionMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMeta{}, nil
		}
		return nil, err
	}

	var metas []SessionMeta

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		sess, err := s.Load(id)
		if err != nil {
			continue // skip corrupted files
		}

		preview := ""
		for _, t := range sess.Turns {
			if t.Role == string(model.RoleUser) && t.Content != "" {
				preview = util.TruncateRunes(t.Content, 80)
				break
			}
		}

		metas = append(metas, SessionMeta{
			ID:        sess.ID,
			Summary:   sess.Summary,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
			TurnCount: len(sess.Turns),
			Preview:   preview,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})

	return metas, nil
}

// Search finds sessions whose summary or preview contains the query,
// case-insensitively.
func (s *ChatStore) Search(query string) ([]SessionMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []SessionMeta

	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Summary), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
		}
	}

	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a session by ID.
func (s *ChatStore) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// Clear removes all saved sessions.
func (s *ChatStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}

	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *ChatStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}
