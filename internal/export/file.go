package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cesargomez89/topalbums/internal/constants"
)

// SaveFile writes path through write. The content goes to a temp file in the
// same directory first, so readers never see a half-written CSV.
func SaveFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
