// Package handler exposes the persistence service over HTTP.
//
// # JSON-RPC
//
// POST /json takes {"id", "method", "params"} and answers with
// {"id", "result"} or {"id", "error": {"code", "message"}}. Every method
// except login needs a live session in the X-Session-ID header.
//
// Rejected calls are answered with HTTP 200 and an error object, except
// that a missing or expired session answers 401 and an internal failure
// answers 500. Clients treat 5xx as a transport failure.
//
// # Other routes
//
// GET /healthz reports liveness. GET /events streams service events as
// server-sent events when the server mounts a hub.
//
// Middleware assigns request IDs, recovers panics, sets CORS headers and
// logs one line per request.
package handler
