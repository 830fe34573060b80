// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// =============================================================================
// CHAT STREAM TESTS
// =============================================================================

func TestChatStream_MultipartShape(t *testing.T) {
	var gotConversation []ConversationMessage
	var gotStream bool
	var gotImage []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat/stream" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}

		var payload struct {
			Conversation []ConversationMessage `json:"conversation"`
			Stream       bool                  `json:"stream"`
		}
		if err := json.Unmarshal([]byte(r.FormValue("request")), &payload); err != nil {
			t.Fatalf("request field is not JSON: %v", err)
		}
		gotConversation = payload.Conversation
		gotStream = payload.Stream

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "image.jpg" {
			t.Errorf("filename = %q, want %q", header.Filename, "image.jpg")
		}
		gotImage, _ = io.ReadAll(file)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: {\"type\":\"content\",\"content\":\"ok\"}\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	conversation := []ConversationMessage{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "second question"},
	}
	image := []byte{0xff, 0xd8, 0xff, 0xe0}

	body, err := client.ChatStream(context.Background(), conversation, image)
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	defer body.Close()
	io.Copy(io.Discard, body)

	if !gotStream {
		t.Error("stream flag must be fixed to true")
	}
	if len(gotConversation) != 3 {
		t.Fatalf("conversation length = %d, want 3", len(gotConversation))
	}
	if gotConversation[1].Role != "assistant" {
		t.Errorf("conversation[1].Role = %q, want %q", gotConversation[1].Role, "assistant")
	}
	if !bytes.Equal(gotImage, image) {
		t.Errorf("image bytes corrupted in transit: %x != %x", gotImage, image)
	}
}

func TestChatStream_NoImageOmitsFilePart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if _, _, err := r.FormFile("file"); err == nil {
			t.Error("file part should be absent when no image is attached")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	body, err := NewClient(server.URL).ChatStream(context.Background(),
		[]ConversationMessage{{Role: "user", Content: "followup"}}, nil)
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	body.Close()
}

func TestChatStream_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ChatStream(context.Background(),
		[]ConversationMessage{{Role: "user", Content: "q"}}, []byte{1})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want %d", apiErr.Status, http.StatusBadGateway)
	}
}

// =============================================================================
// SIGNED URL TESTS
// =============================================================================

func TestFetchSignedURL_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"sas_url field", `{"sas_url":"https://store/x?sig=1"}`, "https://store/x?sig=1"},
		{"url field", `{"url":"https://store/y?sig=2"}`, "https://store/y?sig=2"},
		{"bare string", `"https://store/z?sig=3"`, "https://store/z?sig=3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			got, err := NewClient(server.URL).FetchSignedURL(context.Background(), "container/img.png")
			if err != nil {
				t.Fatalf("FetchSignedURL() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("FetchSignedURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFetchSignedURL_EscapesBlobName(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"sas_url":"https://store/ok"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).FetchSignedURL(context.Background(), "docs/my file.png")
	if err != nil {
		t.Fatalf("FetchSignedURL() error = %v", err)
	}
	if gotPath != "/api/sas/docs%2Fmy%20file.png" {
		t.Errorf("path = %q, want escaped blob name", gotPath)
	}
}

func TestFetchSignedURL_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).FetchSignedURL(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("error = %v, want *APIError with 404", err)
	}
}
