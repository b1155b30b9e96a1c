// Package persist holds the snapshot persistence contract shared by the cart
// and wishlist stores, plus the background writer that keeps a store's
// durable copy in sync with its in-memory state.
package persist

import (
	"context"
	"errors"
	"sync"
)

// Well-known keys. The mobile client used the same names in AsyncStorage.
const (
	KeyCart      = "@cart_items"
	KeyWishlist  = "@wishlist_items"
	KeyUserToken = "userToken"
	KeyUserData  = "userData"
)

// ErrNotFound is returned by Gateway.Get when nothing is stored under the key.
var ErrNotFound = errors.New("persist: key not found")

// Gateway is a passive string store keyed by a single name per snapshot.
// Set overwrites the whole value.
type Gateway interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory is an in-process Gateway.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
