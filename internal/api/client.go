// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/icarus698x/landing-page/internal/util"
)

// Configuration constants for the inspection service API.
const (
	// DefaultBaseURL is the production inspection service.
	DefaultBaseURL = "https://api.xopsentia.com"

	// DefaultTimeout bounds non-streaming requests (SAS lookups).
	DefaultTimeout = 30 * time.Second

	// chatStreamPath is the streaming chat submission endpoint.
	chatStreamPath = "/api/chat/stream"

	// sasPathPrefix is the signed-URL lookup endpoint prefix.
	sasPathPrefix = "/api/sas/"

	// fileField and requestField are the fixed multipart field names.
	fileField    = "file"
	requestField = "request"

	// uploadFileName is the filename reported for the image part.
	uploadFileName = "image.jpg"

	// maxErrorBodySize caps how much of an error response is retained.
	maxErrorBodySize = 4 * 1024
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared client for short requests; timeout applies per request.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no client timeout; a streamed response
	// stays open for the life of the answer and is bounded by context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// APIError is a non-success HTTP status from the inspection service.
// A non-success status is fatal for the submission; there is no retry.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("inspection service returned status %d: %s",
			e.Status, util.TruncateRunes(e.Body, 200))
	}
	return fmt.Sprintf("inspection service returned status %d", e.Status)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ConversationMessage is one {role, content} pair of the chat request.
// Roles on the wire are "user" and "assistant".
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the JSON object carried in the "request" multipart field.
// Streaming mode is always on for the demo.
type chatRequest struct {
	Conversation []ConversationMessage `json:"conversation"`
	Stream       bool                  `json:"stream"`
}

// sasResponse covers the signed-URL response shapes the service has been
// observed to produce.
type sasResponse struct {
	SASURL string `json:"sas_url"`
	URL    string `json:"url"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the inspection service.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a client for the given base URL. An empty base URL
// selects the production service.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      baseURL,
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
	}
}

// WithHTTPClients overrides the underlying HTTP clients. Used by tests.
func (c *Client) WithHTTPClients(short, streaming *http.Client) *Client {
	if short != nil {
		c.httpClient = short
	}
	if streaming != nil {
		c.streamClient = streaming
	}
	return c
}

// BaseURL returns the configured service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CHAT STREAM
// =============================================================================

// ChatStream submits the conversation (and, on the first exchange, the
// attached image) and returns the response body carrying the event stream.
// The caller owns the returned body and must close it.
//
// A non-2xx status or a transport failure is returned as an error; the
// caller surfaces it and the user may retry by submitting again.
func (c *Client) ChatStream(ctx context.Context, conversation []ConversationMessage, image []byte) (io.ReadCloser, error) {
	body, contentType, err := buildChatBody(conversation, image)
	if err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatStreamPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Body: string(detail)}
	}

	return resp.Body, nil
}

// buildChatBody assembles the multipart payload: the optional image blob
// under the fixed file field, then the JSON request object.
func buildChatBody(conversation []ConversationMessage, image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if len(image) > 0 {
		part, err := w.CreateFormFile(fileField, uploadFileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(image); err != nil {
			return nil, "", err
		}
	}

	payload, err := json.Marshal(chatRequest{Conversation: conversation, Stream: true})
	if err != nil {
		return nil, "", err
	}
	field, err := w.CreateFormField(requestField)
	if err != nil {
		return nil, "", err
	}
	if _, err := field.Write(payload); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// =============================================================================
// SIGNED URL LOOKUP
// =============================================================================

// FetchSignedURL resolves a blob name to a short-lived signed URL.
// The response body may be {"sas_url": ...}, {"url": ...} or a bare JSON
// string; all three shapes are accepted.
func (c *Client) FetchSignedURL(ctx context.Context, blobName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+sasPathPrefix+url.PathEscape(blobName), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", &APIError{Status: resp.StatusCode, Body: string(detail)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var shaped sasResponse
	if err := json.Unmarshal(raw, &shaped); err == nil {
		if shaped.SASURL != "" {
			return shaped.SASURL, nil
		}
		if shaped.URL != "" {
			return shaped.URL, nil
		}
	}

	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil && bare != "" {
		return bare, nil
	}

	return "", fmt.Errorf("unrecognized signed-url response: %s", util.TruncateRunes(string(raw), 100))
}
