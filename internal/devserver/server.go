// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/icarus698x/landing-page/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the mock service.
	DefaultPort = 8787

	// MaxRequestBodySize caps uploads to prevent runaway requests (10MB).
	MaxRequestBodySize = 10 * 1024 * 1024

	// MaxMessageCount is the maximum number of conversation messages.
	MaxMessageCount = 100

	// MaxMessageLength is the maximum length of one message.
	MaxMessageLength = 100000

	// TokenDelay is the pause between streamed tokens, slow enough to
	// exercise incremental rendering in the client.
	TokenDelay = 30 * time.Millisecond

	// SignedURLTTL is the validity window for issued signed URLs.
	SignedURLTTL = 15 * time.Minute

	// Version is the mock service version.
	Version = "0.3.0"
)

// validRoles is the set of acceptable conversation roles.
var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
}

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats tracks mock service usage.
type Stats struct {
	ChatRequests   int64     `json:"chat_requests"`
	SignedURLs     int64     `json:"signed_urls"`
	ImagesReceived int64     `json:"images_received"`
	StartTime      time.Time `json:"start_time"`
}

// Uptime returns the service uptime.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the mock inspection service.
type Server struct {
	port   int
	router *http.ServeMux
	server *http.Server

	stats Stats

	// script is the canned assistant answer, streamed token by token.
	script string

	// matches is the canned match set returned after an image upload.
	matches []model.ImageMatch

	mu sync.RWMutex
}

// NewServer creates a mock service on the given port (0 = default).
func NewServer(port int) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:   port,
		router: http.NewServeMux(),
		stats:  Stats{StartTime: time.Now()},
		script: defaultScript,
	}
	s.matches = s.defaultMatches()

	s.setupRoutes()
	return s
}

// WithScript replaces the canned assistant answer.
func (s *Server) WithScript(script string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = script
	return s
}

// WithMatches replaces the canned match set.
func (s *Server) WithMatches(matches []model.ImageMatch) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = matches
	return s
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the routed handler with the middleware chain applied,
// for mounting in tests via httptest.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(log.Default()),
		CORSMiddleware(DefaultCORSConfig()),
		RateLimitMiddleware(DefaultRateLimiter()),
	)(s.router)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	s.router.HandleFunc("GET /api/sas/{blob...}", s.handleSignedURL)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// ============================================================================
// WIRE TYPES
// ============================================================================

// ChatMessage is one {role, content} pair of the request conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the JSON carried in the multipart "request" field.
type ChatRequest struct {
	Conversation []ChatMessage `json:"conversation"`
	Stream       bool          `json:"stream"`
}

// contentRecord is one streamed text delta.
type contentRecord struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// matchesRecord carries the reference image match set.
type matchesRecord struct {
	Type    string             `json:"type"`
	Matches []model.ImageMatch `json:"matches"`
}

// ============================================================================
// CHAT STREAM HANDLER
// ============================================================================

// handleChatStream handles POST /api/chat/stream.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := r.ParseMultipartForm(MaxRequestBodySize); err != nil {
		log.Printf("CHAT_BAD_REQUEST | error=%v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	var req ChatRequest
	if err := json.Unmarshal([]byte(r.FormValue("request")), &req); err != nil {
		log.Printf("CHAT_BAD_REQUEST | error=%v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := validateConversation(req.Conversation); err != nil {
		log.Printf("CHAT_VALIDATION | error=%v", err)
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hasImage := false
	if file, _, err := r.FormFile("file"); err == nil {
		file.Close()
		hasImage = true
		atomic.AddInt64(&s.stats.ImagesReceived, 1)
	}
	atomic.AddInt64(&s.stats.ChatRequests, 1)

	// First exchanges must carry an image, matching the production gate.
	if hasImage || conversationHasAssistant(req.Conversation) {
		s.streamAnswer(r.Context(), w, hasImage)
		return
	}
	s.writeError(w, http.StatusBadRequest, "An image is required for the first message")
}

// validateConversation checks the request conversation shape.
func validateConversation(conversation []ChatMessage) error {
	if len(conversation) == 0 {
		return fmt.Errorf("conversation must contain at least one message")
	}
	if len(conversation) > MaxMessageCount {
		return fmt.Errorf("too many messages: maximum is %d", MaxMessageCount)
	}
	for i, msg := range conversation {
		if !validRoles[msg.Role] {
			return fmt.Errorf("invalid role %q at message %d", msg.Role, i)
		}
		if len(msg.Content) > MaxMessageLength {
			return fmt.Errorf("message %d exceeds maximum length of %d", i, MaxMessageLength)
		}
	}
	return nil
}

// conversationHasAssistant reports whether a prior exchange exists.
func conversationHasAssistant(conversation []ChatMessage) bool {
	for _, msg := range conversation {
		if msg.Role == "assistant" {
			return true
		}
	}
	return false
}

// streamAnswer replays the scripted answer as newline-delimited data
// records, token by token.
func (s *Server) streamAnswer(ctx context.Context, w http.ResponseWriter, withMatches bool) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	s.mu.RLock()
	script := s.script
	matches := s.matches
	s.mu.RUnlock()

	// Keep-alive comment first; clients must ignore non-data lines.
	fmt.Fprint(w, ": keep-alive\n")
	flusher.Flush()

	words := strings.SplitAfter(script, " ")
	half := len(words) / 2
	for i, word := range words {
		select {
		case <-ctx.Done():
			return
		case <-time.After(TokenDelay):
		}

		s.sendRecord(w, flusher, contentRecord{Type: "content", Content: word})

		// Matches arrive mid-answer, the way the production pipeline
		// interleaves them with text deltas.
		if withMatches && i == half {
			s.sendRecord(w, flusher, matchesRecord{Type: "image_matches", Matches: matches})
		}
	}
}

// sendRecord writes one "data: {json}" line and flushes.
func (s *Server) sendRecord(w http.ResponseWriter, flusher http.Flusher, record any) {
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n", data)
	flusher.Flush()
}

// ============================================================================
// SIGNED URL HANDLER
// ============================================================================

// SignedURLResponse is the body returned by GET /api/sas/{blob}.
type SignedURLResponse struct {
	SASURL string `json:"sas_url"`
}

// handleSignedURL handles GET /api/sas/{blob}. It issues a fake signed
// URL with the same shape the production storage account returns.
func (s *Server) handleSignedURL(w http.ResponseWriter, r *http.Request) {
	blob := r.PathValue("blob")
	if blob == "" {
		s.writeError(w, http.StatusBadRequest, "Blob name required")
		return
	}

	atomic.AddInt64(&s.stats.SignedURLs, 1)

	expiry := time.Now().Add(SignedURLTTL).UTC().Format("2006-01-02T15:04:05Z")
	signed := fmt.Sprintf("https://devstore.blob.core.windows.net/references/%s?se=%s&sig=%s",
		blob, expiry, generateSignature())

	s.writeJSON(w, http.StatusOK, SignedURLResponse{SASURL: signed})
}

// generateSignature produces a random hex token standing in for a real
// storage signature.
func generateSignature() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// ============================================================================
// HEALTH AND STATS HANDLERS
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// StatsResponse represents the usage statistics response.
type StatsResponse struct {
	ChatRequests   int64 `json:"chat_requests"`
	SignedURLs     int64 `json:"signed_urls"`
	ImagesReceived int64 `json:"images_received"`
	UptimeSeconds  int64 `json:"uptime_seconds"`
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatsResponse{
		ChatRequests:   atomic.LoadInt64(&s.stats.ChatRequests),
		SignedURLs:     atomic.LoadInt64(&s.stats.SignedURLs),
		ImagesReceived: atomic.LoadInt64(&s.stats.ImagesReceived),
		UptimeSeconds:  int64(s.stats.Uptime().Seconds()),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server. Blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("DEVSERVER_START | addr=%s version=%s", addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("DEVSERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}

// defaultScript is the canned assistant answer.
const defaultScript = "Based on the uploaded photo, this appears to be a 2-inch stainless " +
	"steel gate valve with a rising stem.\n\n## Identification\n\n- **Body material**: " +
	"CF8M stainless steel\n- **Connection**: NPT threaded\n- **Pressure class**: 200 WOG\n\n" +
	"The closest matches from the reference catalog are shown below."

// defaultMatches builds the canned match set, pointing back at this
// service's own signed URL endpoint shape.
func (s *Server) defaultMatches() []model.ImageMatch {
	return []model.ImageMatch{
		{
			PageURL:          "https://docs.xopsentia.com/catalog/gate-valves",
			OriginalImageURL: "https://devstore.blob.core.windows.net/references/valves/gate-2in.png",
			Accuracy:         94.7,
			FileName:         "gate-2in.png",
		},
		{
			PageURL:           "https://docs.xopsentia.com/catalog/gate-valves",
			ConvertedImageURL: "https://devstore.blob.core.windows.net/references/valves/gate-1.5in.png",
			Accuracy:          88.2,
			FileName:          "gate-1.5in.png",
		},
		{
			SignedURL: "https://devstore.blob.core.windows.net/references/valves/globe-2in.png?sig=expired",
			Accuracy:  71.9,
			FileName:  "globe-2in.png",
		},
	}
}
