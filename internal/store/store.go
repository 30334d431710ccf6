// Package store is the key-value cache the rolling window is persisted in
// between process restarts.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Nop keeps nothing. Every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrNotFound }
func (Nop) Set(context.Context, string, []byte) error   { return nil }
