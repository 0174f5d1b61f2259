// Package kv provides the string-keyed storage slot used to persist shopper state. It plays
// the role of the browser's local storage: values are opaque strings and every write
// replaces the previous value.
package kv

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound indicates the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// ErrUnavailable indicates the backing store could not be reached.
var ErrUnavailable = errors.New("kv: store unavailable")

// Store reads and writes whole values by key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Namespaced prefixes every key with a namespace, isolating shoppers that share a backend.
type Namespaced struct {
	base   Store
	prefix string
}

// Namespace scopes store under the provided namespace. Separators are normalised so a
// namespace cannot escape into another one.
func Namespace(store Store, namespace string) *Namespaced {
	ns := strings.Trim(strings.TrimSpace(namespace), "/")
	return &Namespaced{base: store, prefix: ns}
}

// Key returns the fully qualified key written to the underlying store.
func (n *Namespaced) Key(key string) string {
	if n.prefix == "" {
		return key
	}
	return n.prefix + "/" + key
}

// Get implements Store.
func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	if n == nil || n.base == nil {
		return "", ErrUnavailable
	}
	return n.base.Get(ctx, n.Key(key))
}

// Set implements Store.
func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	if n == nil || n.base == nil {
		return ErrUnavailable
	}
	return n.base.Set(ctx, n.Key(key), value)
}
