// Package blob is the entry point for document and backup storage. It
// re-exports the core contract and opens the configured driver; other
// packages depend on blob.Store and never import the driver packages.
package blob

import (
	"kennelcore/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
	ErrUnsupported = core.ErrUnsupported
)
