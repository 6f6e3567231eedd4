// Package kv defines the key-value storage used to persist the week collection.
package kv

import "context"

// Store is an asynchronous-style get/set of named string values.
type Store interface {
	// Get returns the value stored under key. A missing key is reported with
	// found == false and a nil error.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Closer is implemented by stores that hold resources.
type Closer interface {
	Close() error
}
