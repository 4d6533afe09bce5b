// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the assetstore.Store interface.
//
// # Concurrency Model
//
// Assets are keyed independently and written far more often than the set of
// keys changes, so the store uses sync.Map rather than a single RWMutex.
// Values are cloned on the way in and on the way out.
package inmemorystore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/assetstore"
)

// Store is an in-memory implementation of assetstore.Store.
type Store struct {
	assets sync.Map // Key: asset ID, Value: asset.Asset
}

// New creates a new, empty in-memory asset store.
func New() assetstore.Store {
	return &Store{}
}

// Put stores a copy of a.
func (s *Store) Put(ctx context.Context, a asset.Asset) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("cannot store asset: %w", err)
	}
	s.assets.Store(a.ID, a.Clone())
	return nil
}

// Get returns a copy of the stored asset.
func (s *Store) Get(ctx context.Context, id string) (asset.Asset, bool) {
	v, ok := s.assets.Load(id)
	if !ok {
		return asset.Asset{}, false
	}
	return v.(asset.Asset).Clone(), true
}

// Delete removes the asset if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.assets.Delete(id)
	return nil
}

// All returns copies of every stored asset, sorted by id.
func (s *Store) All(ctx context.Context) []asset.Asset {
	var out []asset.Asset
	s.assets.Range(func(_, v any) bool {
		out = append(out, v.(asset.Asset).Clone())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
