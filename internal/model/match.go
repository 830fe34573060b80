// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"math"

	"github.com/icarus698x/landing-page/internal/util"
)

// =============================================================================
// IMAGE MATCH TYPE
// =============================================================================

// ImageMatch is one candidate reference image returned by the inspection
// service alongside an assistant answer. Field names follow the wire format.
type ImageMatch struct {
	// PageURL is a navigable page containing the full context for the match.
	PageURL string `json:"page_url"`

	// Alternative image sources, tried in fallback order when one fails
	// to load: original, then converted, then the time-limited signed URL.
	OriginalImageURL  string `json:"original_image_url"`
	ConvertedImageURL string `json:"converted_image_url"`
	SignedURL         string `json:"sas_url"`

	// Accuracy is the similarity confidence, 0-100.
	Accuracy float64 `json:"accuracy"`

	// FileName is the display label for the match.
	FileName string `json:"file_name"`
}

// Usable reports whether the match can be rendered at all: the accuracy
// must be finite and at least one URL field must be non-empty.
func (m *ImageMatch) Usable() bool {
	if math.IsNaN(m.Accuracy) || math.IsInf(m.Accuracy, 0) {
		return false
	}
	return m.PageURL != "" || m.OriginalImageURL != "" ||
		m.ConvertedImageURL != "" || m.SignedURL != ""
}

// ImageSources returns the non-empty image URLs in fallback order.
func (m *ImageMatch) ImageSources() []string {
	var sources []string
	for _, u := range []string{m.OriginalImageURL, m.ConvertedImageURL, m.SignedURL} {
		if u != "" {
			sources = append(sources, u)
		}
	}
	return sources
}

// DisplayAccuracy formats the accuracy score with one decimal, e.g. "92.3".
func (m *ImageMatch) DisplayAccuracy() string {
	return util.FloatToStringPrec(m.Accuracy, 1)
}
