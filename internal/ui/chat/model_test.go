// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	corechat "github.com/icarus698x/landing-page/internal/chat"
	"github.com/icarus698x/landing-page/internal/config"
	"github.com/icarus698x/landing-page/internal/model"
	"github.com/icarus698x/landing-page/internal/storage"
)

var modelTestImage = []byte{0xff, 0xd8, 0xff, 0xe0}

func newHistoryModel(t *testing.T) (Model, *storage.ChatStore) {
	t.Helper()

	store, err := storage.NewChatStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewChatStoreWithDir: %v", err)
	}

	m := New(testTheme(), corechat.NewSession(nil), nil, config.UIConfig{})
	m.width = 100
	m.height = 30
	return m.WithHistory(store), store
}

func archiveTurn(t *testing.T, store *storage.ChatStore, id, text string) {
	t.Helper()

	turns := []*model.Turn{model.NewUserTurn(text, modelTestImage, "image/jpeg")}
	if err := store.SaveSession(id, turns); err != nil {
		t.Fatalf("SaveSession(%s): %v", id, err)
	}
}

func TestHandleCommand_HistorySearchFiltersArchive(t *testing.T) {
	m, store := newHistoryModel(t)
	archiveTurn(t, store, "sess-gate", "Gate valve pitting on the seat face")
	archiveTurn(t, store, "sess-ball", "Ball bearing wear on the outer race")

	updated, _ := m.handleCommand("/history gate")
	got := updated.(Model)

	if got.localErr != "" {
		t.Fatalf("localErr = %q, want empty", got.localErr)
	}
	view := got.viewport.View()
	if !strings.Contains(view, "Gate valve") {
		t.Errorf("search view missing matching chat:\n%s", view)
	}
	if strings.Contains(view, "Ball bearing") {
		t.Errorf("search view includes non-matching chat:\n%s", view)
	}
}

func TestHandleCommand_HistoryWithoutQueryListsAll(t *testing.T) {
	m, store := newHistoryModel(t)
	archiveTurn(t, store, "sess-gate", "Gate valve pitting on the seat face")
	archiveTurn(t, store, "sess-ball", "Ball bearing wear on the outer race")

	updated, _ := m.handleCommand("/history")
	got := updated.(Model)

	view := got.viewport.View()
	for _, want := range []string{"Gate valve", "Ball bearing"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q:\n%s", want, view)
		}
	}
}

func TestHandleCommand_HistoryWithoutStore(t *testing.T) {
	m := New(testTheme(), corechat.NewSession(nil), nil, config.UIConfig{})

	updated, _ := m.handleCommand("/history")
	got := updated.(Model)

	if got.localErr == "" {
		t.Error("expected an error when no archive store is configured")
	}
}
