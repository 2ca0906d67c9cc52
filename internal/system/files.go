package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	errFound = errors.New("found")

	ErrOutsideRoot = errors.New("path is outside the files root")
	ErrSameFile    = errors.New("source and destination are the same file")
)

// Files operates on the user's files. Every path must resolve inside
// Root; relative paths are taken from Root.
type Files struct {
	Root string
}

func NewFiles(root string) *Files {
	if root == "" {
		root, _ = os.UserHomeDir()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Files{Root: filepath.Clean(root)}
}

func (f *Files) path(p string) (string, error) {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, rest)
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(f.Root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(f.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", p, ErrOutsideRoot)
	}
	return p, nil
}

// Find walks Root and returns the first file named name, or "" when there
// is none. Unreadable directories are skipped.
func (f *Files) Find(ctx context.Context, name string) (string, error) {
	var found string
	err := filepath.WalkDir(f.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = p
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", err
	}
	return found, nil
}

func (f *Files) Read(p string) (string, error) {
	path, err := f.path(p)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *Files) Exists(p string) bool {
	path, err := f.path(p)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Copy copies a regular file. A directory destination receives the file
// under its own name. Copying a file onto itself is refused.
func (f *Files) Copy(src, dst string) error {
	from, err := f.path(src)
	if err != nil {
		return err
	}
	to, err := f.target(src, dst)
	if err != nil {
		return err
	}

	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", from)
	}
	if dst, err := os.Stat(to); err == nil && os.SameFile(st, dst) {
		return fmt.Errorf("copy %s: %w", from, ErrSameFile)
	}

	out, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", from, err)
	}
	return out.Close()
}

func (f *Files) Move(src, dst string) error {
	from, err := f.path(src)
	if err != nil {
		return err
	}
	to, err := f.target(src, dst)
	if err != nil {
		return err
	}
	if err := os.Rename(from, to); err == nil {
		return nil
	}
	// cross-device: copy then remove
	if err := f.Copy(src, dst); err != nil {
		return err
	}
	return os.Remove(from)
}

func (f *Files) Delete(p string) error {
	path, err := f.path(p)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (f *Files) target(src, dst string) (string, error) {
	to, err := f.path(dst)
	if err != nil {
		return "", err
	}
	if st, err := os.Stat(to); err == nil && st.IsDir() {
		return filepath.Join(to, filepath.Base(src)), nil
	}
	return to, nil
}
