// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists finished chat sessions to disk so the
// sidebar can list and reopen past inspections.
//
// Each session is one JSON file under the store's base directory,
// written atomically. Images are not persisted, only a flag that an
// image was attached.
//
// # Key Types
//
//   - ChatStore: directory-backed session store
//   - StoredSession / StoredTurn: the on-disk shape
//   - SessionMeta: listing metadata for the sidebar
//
// # Usage
//
//	store, err := storage.NewChatStore()
//	store.SaveSession(id, turns)
//	metas, _ := store.List()
package storage
