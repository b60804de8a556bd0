// Package sources loads bank statement exports into a core.Dataset.
//
// Concrete loaders live in subpackages (excel, google, memory) and the
// sqlite ledger in internal/storage. They share the column decoding in
// this package.
package sources

import (
	"context"
	"errors"
	"strings"

	"finview/internal/core"
)

var (
	ErrNotFound = errors.New("transaction source not found")
	ErrSchema   = errors.New("transaction source schema mismatch")
)

// Ports for inbound transaction sources.
type (
	Loader interface {
		Load(ctx context.Context) (core.Dataset, error)
	}

	// LoaderFunc adapts a function to Loader.
	LoaderFunc func(ctx context.Context) (core.Dataset, error)
)

func (f LoaderFunc) Load(ctx context.Context) (core.Dataset, error) { return f(ctx) }

// SchemaError lists the required columns missing from a source.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
