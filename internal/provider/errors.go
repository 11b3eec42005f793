// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNoAPIKey indicates no API key is configured.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrAuthFailed indicates the upstream rejected the API key.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates the upstream rate limit was hit.
	ErrRateLimited = errors.New("rate limited")

	// ErrConnection indicates the upstream could not be reached.
	ErrConnection = errors.New("connection to provider failed")

	// ErrOverloaded indicates the upstream is temporarily overloaded.
	ErrOverloaded = errors.New("provider overloaded")
)

// APIError is an error response from the upstream API.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("provider error %d (%s): %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("provider error %d: %s", e.Status, e.Message)
}

// Is maps the API error onto the matching sentinel.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthFailed:
		return e.Status == 401 || e.Status == 403 || e.Type == "authentication_error"
	case ErrRateLimited:
		return e.Status == 429 || e.Type == "rate_limit_error"
	case ErrOverloaded:
		return e.Status == 529 || e.Type == "overloaded_error"
	}
	return false
}
