// Package assetstore defines the interface for storing the content records
// (assets) that graph nodes reference.
//
// # Why Asset Store Exists
//
// Node placement and wiring live in the topology store; the values those
// nodes display and exchange live here. Keeping them apart lets several nodes
// share one asset and lets value writes happen without touching topology.
//
// # Ownership
//
// The store is a dumb container. Every write is issued by graph.Manager,
// which holds the single mutation lock and applies asset.Patch records.
// Stores hand out copies so callers can never mutate stored state in place.
package assetstore

import (
	"context"

	"github.com/vk/synnia/internal/asset"
)

// Store is the interface for keeping assets by id.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Readers (port resolution,
// inspectors) run concurrently with engine writes.
type Store interface {
	// Put inserts or replaces the asset with the same id.
	Put(ctx context.Context, a asset.Asset) error

	// Get returns a copy of the asset, or false when it does not exist.
	Get(ctx context.Context, id string) (asset.Asset, bool)

	// Delete removes the asset. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// All returns copies of every asset ordered by id.
	All(ctx context.Context) []asset.Asset
}
