// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotDataURL is returned when the input is not a base64 data URL.
var ErrNotDataURL = errors.New("not a base64 data URL")

// DecodeDataURL converts a data URL ("data:<mime>;base64,<payload>") into
// the declared MIME type and the decoded payload bytes.
//
// Image attachments arrive from the capture surface in data-URL form and
// must be raw binary before they go into the multipart upload.
func DecodeDataURL(dataURL string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}

	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return "", nil, ErrNotDataURL
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrNotDataURL, err)
	}

	return mimeType, data, nil
}
