package shortcut

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/starford/recents/internal/apperr"
	"github.com/starford/recents/internal/parser"
)

// ManifestResolver reads pointer files written in the manifest format
// understood by package parser.
type ManifestResolver struct{}

// Resolve parses the manifest at path.
func (ManifestResolver) Resolve(ctx context.Context, path string) (Target, error) {
	if err := ctx.Err(); err != nil {
		return Target{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Target{}, fmt.Errorf("shortcut: %s: %w", path, apperr.ErrNotFound)
		}
		return Target{}, fmt.Errorf("shortcut: read %s: %w", path, err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return Target{}, fmt.Errorf("shortcut: parse %s: %w", path, err)
	}
	if res.Target == "" {
		return Target{}, fmt.Errorf("shortcut: %s has empty target: %w", path, apperr.ErrNotFound)
	}
	name := res.Name
	if name == "" {
		name = displayNameFor(path)
	}
	return Target{
		Path:        res.Target,
		DisplayName: name,
		Description: res.Description,
		Arguments:   res.Arguments,
		IconRef:     res.Icon,
	}, nil
}
