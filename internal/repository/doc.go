// Package repository defines the data access interfaces for the local
// persistence service.
//
// The Repository interface covers projects, templates, the attribute
// catalogue, networks with their nodes, links and groups, scenarios, and
// user sessions. The sqlite subpackage implements it.
//
// # Identity
//
// Records are created with permanent positive IDs assigned by the store.
// Networks arrive with provisional negative IDs; CreateNetwork replaces
// them and rewrites link endpoints to the new node IDs in the same
// transaction.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository
