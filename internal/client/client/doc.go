// Package client is the Go client of the batikhub HTTP API.
//
// # Overview
//
// Client wraps one base URL and an optional bearer token. Every method takes
// a context.Context and maps the server's JSON error envelope to *APIError.
// Status codes the CLI reacts to are also exposed as sentinel errors that
// can be matched with errors.Is: ErrUnauthorized, ErrForbidden, ErrNotFound
// and ErrValidation.
//
// A Client is safe for concurrent use once configured. SetToken must not race
// with in-flight requests.
package client
