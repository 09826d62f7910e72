// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package symsrv is a typed client for the symbol server REST API.
//
// The client covers the four operations the upload flow needs: querying
// which checksums the server is missing, uploading a zip bundle of
// debug symbol files, associating uploaded symbols with an app build,
// and triggering server-side reprocessing. The last two are optional
// server features; a 404 from either is reported as "unsupported"
// rather than an error.
//
// All requests authenticate with a bearer token. A 429 response with a
// Retry-After header is retried once after the indicated backoff; the
// wait uses the injected clock so tests can advance it deterministically.
// Other non-2xx responses surface as *APIError.
package symsrv
