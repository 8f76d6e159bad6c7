// Package fsutil moves finished exports out of the work directory.
package fsutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Replaceable so tests can simulate a cross-device rename.
var renameFunc = os.Rename

// Move renames src to dst, creating dst's directory. When src and dst are on
// different filesystems the file is copied next to dst, renamed into place
// and src removed.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	err := renameFunc(src, dst)
	if err == nil {
		return nil
	}
	if !isEXDEV(err) {
		return errors.Wrapf(err, "failed to move %s", src)
	}

	if err := copyInto(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return errors.Wrapf(err, "moved %s but failed to remove it", src)
	}
	return nil
}

func copyInto(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return errors.WithStack(err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	// Same directory, so this rename cannot cross devices
	return errors.WithStack(os.Rename(tmpName, dst))
}
