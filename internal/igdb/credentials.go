// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials performs the Twitch OAuth client_credentials exchange:
// a form-encoded POST of client_id, client_secret and grant_type to the token endpoint.
type ClientCredentials struct {
	clientID   string
	config     clientcredentials.Config
	httpClient *http.Client
}

// NewClientCredentials creates an exchanger. httpClient may be nil.
func NewClientCredentials(clientID, clientSecret, tokenURL string, httpClient *http.Client) *ClientCredentials {
	return &ClientCredentials{
		clientID: clientID,
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
	}
}

// ClientID returns the configured client id, sent as the Client-ID header on API requests.
func (c *ClientCredentials) ClientID() string {
	return c.clientID
}

// HasCredentials reports whether both client id and secret are set.
func (c *ClientCredentials) HasCredentials() bool {
	return c.config.ClientID != "" && c.config.ClientSecret != ""
}

// Exchange implements CredentialExchanger.
func (c *ClientCredentials) Exchange(ctx context.Context) (*Token, error) {
	if !c.HasCredentials() {
		return nil, &CredentialError{Reason: "client id and client secret are required"}
	}

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	tok, err := c.config.Token(ctx)
	if err != nil {
		credErr := &CredentialError{Reason: "token request rejected", Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			if retrieveErr.Response != nil {
				credErr.StatusCode = retrieveErr.Response.StatusCode
			}
			body := retrieveErr.Body
			if len(body) > maxErrorBodySize {
				body = body[:maxErrorBodySize]
			}
			credErr.Body = string(body)
		} else {
			credErr.Reason = "token request failed"
		}
		return nil, credErr
	}

	if tok.AccessToken == "" {
		return nil, &CredentialError{Reason: "response has no access_token"}
	}

	var expiresIn time.Duration
	if !tok.Expiry.IsZero() {
		expiresIn = time.Until(tok.Expiry).Round(time.Second)
	}
	return &Token{AccessToken: tok.AccessToken, ExpiresIn: expiresIn}, nil
}
