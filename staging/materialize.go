package staging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/probs-lab/probs-runner/datasource"
	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/logger"
)

// Materialize copies every entry of the staged file map into workDir,
// creating parent directories as needed. Entries are written in staging
// order: a file staged after a directory tree may overwrite a file inside
// that tree, which is how synthesized load scripts replace the copies
// shipped with the assets.
func Materialize(files *datasource.FileMap, workDir string) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create working directory %q", workDir)
	}

	for _, target := range files.Targets() {
		src, _ := files.Get(target)
		dst := filepath.Join(workDir, filepath.FromSlash(target))
		if err := materializeEntry(src, dst); err != nil {
			return errors.Wrapf(err, "failed to stage %q", target)
		}
		logger.Logger.Debugw("staged", "target", target)
	}
	return nil
}

func materializeEntry(src datasource.Source, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if src.IsLiteral() {
		return writeReader(src, dst)
	}

	info, err := os.Stat(src.Path())
	if err != nil {
		return errors.Wrapf(err, "source %q not found", src.Path())
	}
	if info.IsDir() {
		// Target directory may already exist when a previous entry
		// created files inside it.
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return err
		}
		return os.CopyFS(dst, os.DirFS(src.Path()))
	}
	return writeReader(src, dst)
}

func writeReader(src datasource.Source, dst string) error {
	r, err := src.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	// Remove first so a file copied in from a directory tree can be
	// replaced regardless of its permissions.
	_ = os.Remove(dst)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
