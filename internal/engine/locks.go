package engine

import (
	"sync"

	"github.com/rdlucca/escrowd/internal/domain"
)

// assetLocks is a thread-safe map of asset ID → mutex. Each engine
// entry point holds the asset's mutex for its entire validate-commit
// pass, making the operation indivisible per asset.
type assetLocks struct {
	mu    sync.RWMutex
	locks map[domain.AssetID]*sync.Mutex
}

func newAssetLocks() *assetLocks {
	return &assetLocks{
		locks: make(map[domain.AssetID]*sync.Mutex),
	}
}

// get returns the mutex for the given asset, creating one if it
// doesn't already exist.
func (l *assetLocks) get(asset domain.AssetID) *sync.Mutex {
	l.mu.RLock()
	m, ok := l.locks[asset]
	l.mu.RUnlock()
	if ok {
		return m
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock.
	if m, ok = l.locks[asset]; ok {
		return m
	}
	m = &sync.Mutex{}
	l.locks[asset] = m
	return m
}
