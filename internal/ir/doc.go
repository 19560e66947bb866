// Package ir provides the mutable graph representation used by version
// adapters.
//
// A Graph owns an arena of nodes addressed by NodeID. Destroyed nodes leave
// a hole in the arena so IDs stay stable. For every value name the graph
// tracks its producer and its number of uses: node input slots, graph
// outputs and values captured by sub-graph attributes. Use counts are
// maintained incrementally by the mutation methods, which is what lets an
// adapter decide whether a producer it no longer needs can be deleted.
//
// A Graph is not safe for concurrent mutation.
package ir
