// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package sas

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"sync"
)

// blobHostPattern recognizes storage-host URLs whose path suffix is a
// resolvable blob identifier: the container segment is skipped, the rest
// is the blob name.
var blobHostPattern = regexp.MustCompile(`blob\.core\.windows\.net/[^/]+/(.+)`)

// Lookup is the single network operation the resolver depends on.
// *api.Client satisfies it.
type Lookup interface {
	FetchSignedURL(ctx context.Context, blobName string) (string, error)
}

// =============================================================================
// CACHE
// =============================================================================

// Cache is a process-lifetime store of resolved signed URLs.
// It is an explicit object rather than package state so tests can isolate
// it and an eviction policy can be added without changing callers.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get returns the cached signed URL for a blob identifier.
func (c *Cache) Get(blobName string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[blobName]
	return u, ok
}

// Put stores a resolved signed URL.
func (c *Cache) Put(blobName, signedURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[blobName] = signedURL
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver maps blob identifiers to signed URLs with caching.
//
// Concurrent resolution of the same identifier is not deduplicated:
// resolution is only triggered by discrete user clicks, so redundant
// in-flight lookups are tolerated and the last writer wins.
type Resolver struct {
	lookup Lookup
	cache  *Cache
}

// NewResolver creates a resolver with a fresh cache.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup, cache: NewCache()}
}

// Resolve returns the signed URL for a blob identifier, or "" when the
// lookup fails. Failures are not cached, so the next call retries.
func (r *Resolver) Resolve(ctx context.Context, blobName string) string {
	if cached, ok := r.cache.Get(blobName); ok {
		return cached
	}

	signed, err := r.lookup.FetchSignedURL(ctx, blobName)
	if err != nil {
		log.Printf("sas: resolution failed for %q: %v", blobName, err)
		return ""
	}
	if signed == "" {
		return ""
	}

	r.cache.Put(blobName, signed)
	return signed
}

// =============================================================================
// LINK DISPATCH
// =============================================================================

// BlobName extracts the resolvable blob identifier from a clicked URL.
// The second return is false when the URL is not on the storage host and
// must be opened verbatim.
func BlobName(clickedURL string) (string, bool) {
	m := blobHostPattern.FindStringSubmatch(clickedURL)
	if m == nil {
		return "", false
	}
	name, err := url.PathUnescape(m[1])
	if err != nil {
		// Undecodable suffix: treat as a plain link.
		return "", false
	}
	return name, true
}

// ResolveLink returns the URL to actually open for a clicked link:
// storage-host URLs are swapped for their signed equivalent, everything
// else (including failed resolutions) passes through unchanged so the
// click is never blocked.
func (r *Resolver) ResolveLink(ctx context.Context, clickedURL string) string {
	blobName, ok := BlobName(clickedURL)
	if !ok {
		return clickedURL
	}
	if signed := r.Resolve(ctx, blobName); signed != "" {
		return signed
	}
	return clickedURL
}
