// Package product writes and reads the tabular (L0A) and gridded (L0B)
// products. Writes are atomic: a temp file in the destination directory is
// synced and renamed over the target.
package product

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/disdro-l0/internal/domain"
)

// Product levels, used as directory names and file prefixes.
const (
	LevelTabular = "L0A"
	LevelGridded = "L0B"
)

// TabularPath returns <processed_dir>/L0A/<station>/L0A.<campaign>.<station>.csv.
func TabularPath(processedDir, campaign, station string) string {
	return productPath(processedDir, LevelTabular, campaign, station, "csv")
}

// GriddedPath returns <processed_dir>/L0B/<station>/L0B.<campaign>.<station>.json.
func GriddedPath(processedDir, campaign, station string) string {
	return productPath(processedDir, LevelGridded, campaign, station, "json")
}

func productPath(processedDir, level, campaign, station, ext string) string {
	name := fmt.Sprintf("%s.%s.%s.%s", level, campaign, station, ext)
	return filepath.Join(processedDir, level, station, name)
}

// Store writes products to the local filesystem.
type Store struct {
	logger *slog.Logger
}

// NewStore creates a product store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Exists reports whether a product file is present.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// writeAtomic streams write into a temp file next to path and renames it
// into place. Without force an existing product is left untouched.
func (s *Store) writeAtomic(path string, force bool, write func(io.Writer) error) (err error) {
	exists, err := Exists(path)
	if err != nil {
		return err
	}
	if exists && !force {
		return &domain.AlreadyExistsError{Path: path}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				s.logger.Warn("failed to remove temp product", "path", tmp.Name(), "error", rmErr)
			}
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	if exists {
		s.logger.Debug("product overwritten", "path", path)
	}
	return nil
}
