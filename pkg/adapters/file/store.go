package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
)

// Store implements ports.AssetStore using the local filesystem.
// Each asset is a file below BasePath at its own relative path.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".vfxbridge/assets".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".vfxbridge", "assets")
	}
	return &Store{BasePath: basePath}
}

// file maps an asset path to its file, refusing paths outside BasePath.
func (s *Store) file(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("asset path cannot be empty")
	}
	rel := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("asset path %q escapes the store", path)
	}
	return filepath.Join(s.BasePath, rel), nil
}

// Save persists the asset atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, path string, data []byte) error {
	destPath, err := s.file(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure asset directory: %w", err)
	}

	// The temp file lives in the destination directory so the rename stays
	// on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(destPath)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing asset for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to asset: %w", err)
	}
	return nil
}

// Load reads the asset bytes.
func (s *Store) Load(ctx context.Context, path string) ([]byte, error) {
	filePath, err := s.file(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrAssetNotFound)
		}
		return nil, fmt.Errorf("failed to read asset file: %w", err)
	}
	return data, nil
}

// Delete removes the asset file.
func (s *Store) Delete(ctx context.Context, path string) error {
	filePath, err := s.file(path)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete asset file: %w", err)
	}
	return nil
}

// List returns every stored asset path, slash separated and sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	paths := []string{}
	err := filepath.WalkDir(s.BasePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == s.BasePath {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.BasePath, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
