// Package client contains the transports the GophNotes CLI uses to reach the
// server.
//
// # Overview
//
// Client is the transport-agnostic contract. Two implementations exist:
//
//   - HTTPClient (default) sends JSON over HTTP with a Bearer token.
//   - GRPCClient sends the same JSON messages over gRPC, carrying the token
//     in the access_token metadata key.
//
// # Error Handling
//
// Both transports map failures to the same sentinels so callers can use
// errors.Is regardless of the wire: ErrUnauthorized for a rejected token or
// credentials, ErrUnavailable for network and server-side failures and
// ErrMalformedResponse for bodies that cannot be decoded. Domain rejections
// wrap the shared sentinels of internal/common (validation, not found,
// forbidden, email exists).
//
// Implementations are safe for concurrent use.
package client
