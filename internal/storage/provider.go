// Package storage defines the pointer-directory file-system abstraction.
package storage

import "github.com/starford/recents/internal/models"

// Provider is the interface the scanner uses to reach the file system.
type Provider interface {
	// Root returns the absolute path of the watched directory.
	Root() string
	// Pattern returns the glob pointer file names must match (e.g. "*.lnk").
	Pattern() string
	// List returns the pointer files directly under Root, newest first.
	List() ([]models.PointerFile, error)
	// Exists reports whether a local file or directory exists at path.
	Exists(path string) bool
	// IsDir reports whether path is an existing directory.
	IsDir(path string) bool
}
