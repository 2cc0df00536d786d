// Package service implements the persistence service behind the JSON-RPC
// handler.
//
// PersistenceService validates payloads, checks that type bindings and
// group items point at things that exist, and hands storage to a
// repository.Repository. The repository assigns permanent IDs; add_network
// returns the stored network so callers can replace their provisional IDs.
//
// # Sessions
//
// Login compares a bcrypt hash and opens a session with a random ID.
// Authenticate resolves a session ID to its user and rejects expired ones.
//
// # Errors
//
// Failures a client may see are *Error values carrying an HTTP-like code.
// AsError maps repository errors onto them and hides everything else behind
// a generic internal error.
//
// # Event System
//
// Every write publishes an Event on the EventBus. Subscribers receive events
// on buffered channels; a full channel drops the event.
package service
