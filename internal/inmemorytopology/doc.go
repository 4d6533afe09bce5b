// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface. Iteration order follows insertion
// order so snapshots and layout passes are deterministic.
package inmemorytopology
