// Package domain defines the entity types shared by the importer, the
// persistence client and the local persistence server.
//
// # Source model
//
// SourceNetwork is what a simulation model exposes: nodes with raw
// coordinates, links that name their endpoint nodes, and institutions that
// name their member nodes and links and nest other institutions. Names are
// the only cross-reference mechanism on this side.
//
// # Persisted model
//
// Network, NetworkNode, NetworkLink and ResourceGroup are the generic records
// accepted by the persistence service. Before the network is created their
// IDs are provisional (negative); the service answers with the same records
// carrying permanent (positive) IDs. Every record is bound to exactly one
// template type through a TypeBinding.
//
// GroupMember is a flat relation between a group and one of its members.
// It has no identity of its own and is carried by a Scenario.
//
// # Design Principles
//
// - Plain data; no I/O and no dependency on transport or storage
// - JSON and YAML tags match the persistence service wire format
package domain
