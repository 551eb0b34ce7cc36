// Package storage provides the durable key-value stores that keep the chat
// transcript across restarts.
package storage

import (
	"fmt"
)

// Store is a small durable key-value store. Writes are last-writer-wins.
type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}

// Storage drivers accepted by Open
const (
	DriverBolt   = "bolt"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Open returns the store selected by driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverBolt:
		return OpenBolt(path)
	case DriverFile:
		return NewFileStore(path), nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
