// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import "errors"

// ErrUnavailable indicates no speech-to-text capability on this platform.
var ErrUnavailable = errors.New("speech recognition unavailable")
