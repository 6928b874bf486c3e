// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrSearchWithSort is returned by Query.Build when both a search term and a sort are set.
	ErrSearchWithSort = errors.New("igdb: search and sort cannot be combined in one query")

	// ErrEmptySet is returned by Query.Build for an In filter without values.
	ErrEmptySet = errors.New("igdb: membership filter requires at least one value")

	// ErrNotFound is returned by FetchByID when the API has no record for the id.
	ErrNotFound = errors.New("igdb: record not found")
)

// CredentialError reports a failed client-credentials exchange: missing
// credentials, a rejected exchange, or a response without access_token.
type CredentialError struct {
	Reason     string
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body, if any
	Err        error
}

func (e *CredentialError) Error() string {
	msg := "igdb: credential exchange failed: " + e.Reason
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CredentialError) Unwrap() error { return e.Err }

// AuthError reports that the API rejected authentication twice in a row for one query.
type AuthError struct {
	Endpoint string
	Body     string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("igdb: %s: authentication rejected after token refresh", e.Endpoint)
}

// ProtocolError reports a transport failure, a non-2xx status other than 401,
// or an undecodable response body.
type ProtocolError struct {
	Endpoint   string
	StatusCode int // 0 for transport failures
	Body       string
	Query      string
	Err        error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("igdb: %s: request failed: %v", e.Endpoint, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("igdb: %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("igdb: %s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsCredentialError reports whether err is or wraps a *CredentialError.
func IsCredentialError(err error) bool {
	var credErr *CredentialError
	return errors.As(err, &credErr)
}

// IsAuthError reports whether err is or wraps an *AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

const maxErrorBodySize = 64 * 1024

// readBodyForError reads at most 64KB of r for diagnostics.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) == maxErrorBodySize {
		return string(body) + "\n... (truncated)"
	}
	return string(body)
}
