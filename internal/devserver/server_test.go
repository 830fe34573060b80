// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/icarus698x/landing-page/internal/api"
	"github.com/icarus698x/landing-page/internal/model"
	"github.com/icarus698x/landing-page/internal/stream"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(0)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

// buildChatForm builds the multipart body the production client sends.
func buildChatForm(t *testing.T, conversation []ChatMessage, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if image != nil {
		part, err := mw.CreateFormFile("file", "image.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		part.Write(image)
	}

	payload, err := json.Marshal(ChatRequest{Conversation: conversation, Stream: true})
	if err != nil {
		t.Fatalf("marshal request failed: %v", err)
	}
	if err := mw.WriteField("request", string(payload)); err != nil {
		t.Fatalf("WriteField failed: %v", err)
	}
	mw.Close()

	return &buf, mw.FormDataContentType()
}

func TestChatStream_FirstMessageWithImage(t *testing.T) {
	s, ts := newTestServer(t)
	s.WithScript("short answer")

	body, contentType := buildChatForm(t,
		[]ChatMessage{{Role: "user", Content: "identify this"}},
		[]byte{0xff, 0xd8})

	resp, err := http.Post(ts.URL+"/api/chat/stream", contentType, body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var text strings.Builder
	var matches []model.ImageMatch
	err = stream.Process(context.Background(), resp.Body, func(ev model.StreamEvent) {
		switch ev.Kind {
		case model.EventContent:
			text.WriteString(ev.Text)
		case model.EventMatches:
			matches = ev.Matches
		}
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if text.String() != "short answer" {
		t.Errorf("reassembled text = %q", text.String())
	}
	if len(matches) == 0 {
		t.Error("image upload should produce an image_matches record")
	}
}

func TestChatStream_FirstMessageWithoutImageRejected(t *testing.T) {
	_, ts := newTestServer(t)

	body, contentType := buildChatForm(t,
		[]ChatMessage{{Role: "user", Content: "no image here"}}, nil)

	resp, err := http.Post(ts.URL+"/api/chat/stream", contentType, body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatStream_FollowUpWithoutImageAllowed(t *testing.T) {
	s, ts := newTestServer(t)
	s.WithScript("follow-up answer")

	body, contentType := buildChatForm(t, []ChatMessage{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "prior answer"},
		{Role: "user", Content: "and the pressure rating?"},
	}, nil)

	resp, err := http.Post(ts.URL+"/api/chat/stream", contentType, body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var matches []model.ImageMatch
	var text strings.Builder
	stream.Process(context.Background(), resp.Body, func(ev model.StreamEvent) {
		if ev.Kind == model.EventContent {
			text.WriteString(ev.Text)
		}
		if ev.Kind == model.EventMatches {
			matches = ev.Matches
		}
	})

	if text.String() != "follow-up answer" {
		t.Errorf("text = %q", text.String())
	}
	if matches != nil {
		t.Error("no image upload should mean no image_matches record")
	}
}

func TestChatStream_InvalidRole(t *testing.T) {
	_, ts := newTestServer(t)

	body, contentType := buildChatForm(t,
		[]ChatMessage{{Role: "system", Content: "x"}}, []byte{0x01})

	resp, err := http.Post(ts.URL+"/api/chat/stream", contentType, body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatStream_EndToEndThroughClient(t *testing.T) {
	s, ts := newTestServer(t)
	s.WithScript("client round trip")

	client := api.NewClient(ts.URL)
	rc, err := client.ChatStream(context.Background(),
		[]api.ConversationMessage{{Role: "user", Content: "q"}},
		[]byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	defer rc.Close()

	var text strings.Builder
	if err := stream.Process(context.Background(), rc, func(ev model.StreamEvent) {
		if ev.Kind == model.EventContent {
			text.WriteString(ev.Text)
		}
	}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if text.String() != "client round trip" {
		t.Errorf("text = %q", text.String())
	}
}

func TestSignedURL(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/sas/valves/gate-2in.png")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body SignedURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !strings.Contains(body.SASURL, "valves/gate-2in.png") {
		t.Errorf("signed URL %q missing blob path", body.SASURL)
	}
	if !strings.Contains(body.SASURL, "sig=") || !strings.Contains(body.SASURL, "se=") {
		t.Errorf("signed URL %q missing signature or expiry", body.SASURL)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if health.Status != "ok" || health.Version != Version {
		t.Errorf("health = %+v", health)
	}
}

func TestStats_CountsRequests(t *testing.T) {
	s, ts := newTestServer(t)
	s.WithScript("x")

	body, contentType := buildChatForm(t,
		[]ChatMessage{{Role: "user", Content: "q"}}, []byte{0x01})
	resp, err := http.Post(ts.URL+"/api/chat/stream", contentType, body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var stats StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if stats.ChatRequests != 1 || stats.ImagesReceived != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request within window should be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("a different IP has its own window")
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/chat/stream", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestCORSMiddleware_UnknownOriginGetsNoHeaders(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set("Origin", "http://evil.example")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty for unknown origin", got)
	}
}
