// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

// Package igdb is the protocol client for the IGDB v4 game metadata API.
//
// # Components
//
//   - RateLimiter: spaces outbound requests (default 4 per second, burst 1)
//   - TokenManager: Twitch client-credentials bearer token with an in-process
//     copy and a persistent TokenCache (Badger, Redis or memory)
//   - Query: builder for the Apicalypse query language, producing the
//     canonical single-line form the API expects
//   - Client: executes one logical query; owns the single retry after a 401
//   - CircuitBreakerClient: gobreaker protection around the game operations
//
// # Request flow
//
//	Client.Do
//	  -> RateLimiter.Wait
//	  -> TokenManager.Token
//	  -> POST {base}/{endpoint}   (Client-ID, Authorization: Bearer, text/plain body)
//	  -> 401: TokenManager.Invalidate, Token, POST once more; a second 401 is an *AuthError
//	  -> other non-2xx or transport failure: *ProtocolError (never retried here)
//	  -> 2xx: JSON array decoded into the caller's slice
//
// Retrying failed batches is the importer's job; this package reports and returns.
//
// # Example
//
//	state := &igdb.ClientState{
//	    Tokens:  igdb.NewTokenManager(igdb.NewClientCredentials(id, secret, tokenURL, nil), cache, "igdb_access_token", 30*24*time.Hour),
//	    Limiter: igdb.NewRateLimiter(4),
//	}
//	client := igdb.NewClient("https://api.igdb.com/v4", id, state)
//	games, err := client.FetchCandidates(ctx, 50, 0, 60)
package igdb
