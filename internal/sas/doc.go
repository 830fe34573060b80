// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sas resolves opaque blob identifiers to short-lived signed URLs.
//
// Resolution results are cached for the life of the process so repeated
// clicks on the same reference image do not hit the service again.
// Failures are never cached; the next click retries.
//
// # Key Types
//
//   - Cache: bounded get/put store keyed by blob identifier
//   - Resolver: cache-backed lookup plus clicked-link dispatch
//
// # Usage
//
//	resolver := sas.NewResolver(client)
//	open := resolver.ResolveLink(ctx, clickedURL) // signed or verbatim
package sas
