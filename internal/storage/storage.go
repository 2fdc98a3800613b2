// Package storage defines the string key-value capability the record stores
// persist into, modelled on browser local storage: flat keys, string values,
// and an optional notification for writes made by other sessions.
package storage

import (
	"context"
	"errors"
)

// Driver names a storage backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
	DriverNone     Driver = "none"
)

var (
	// ErrUnavailable is returned by every operation of a backend that cannot
	// be reached at all.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded is returned by Set when the value does not fit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Storage is a flat string key-value map shared by every session of the
// same origin.
type Storage interface {
	Driver() Driver
	// Get returns ok=false with a nil error when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove is idempotent.
	Remove(ctx context.Context, key string) error
	// Keys lists keys starting with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Watcher is implemented by backends that can report keys changed by other
// sessions. Changes made through the same handle are never reported.
type Watcher interface {
	Watch(fn func(key string)) (stop func())
}

// Unavailable is the backend used when no storage can be reached, such as a
// process started without a storage driver.
type Unavailable struct{}

func (Unavailable) Driver() Driver { return DriverNone }

func (Unavailable) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrUnavailable
}

func (Unavailable) Set(context.Context, string, string) error { return ErrUnavailable }

func (Unavailable) Remove(context.Context, string) error { return ErrUnavailable }

func (Unavailable) Keys(context.Context, string) ([]string, error) { return nil, ErrUnavailable }
