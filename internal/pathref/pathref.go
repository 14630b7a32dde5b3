package pathref

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileRef is a path that is expected to name a regular file.
type FileRef struct {
	Path string // absolute path
	Name string // base name without extension
	Ext  string // lower-cased extension including the leading dot
}

// DirRef is a path that is expected to name a directory.
type DirRef struct {
	Path string
}

// NewFileRef returns a FileRef for the given path.
func NewFileRef(path string) (FileRef, error) {
	if path == "" {
		return FileRef{}, fmt.Errorf("empty file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileRef{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	name, ext := splitExt(filepath.Base(abs))
	return FileRef{
		Path: abs,
		Name: name,
		Ext:  strings.ToLower(ext),
	}, nil
}

// splitExt splits a base name into stem and extension. A leading dot does
// not start an extension, so ".hidden" has none.
func splitExt(base string) (string, string) {
	trimmed := strings.TrimLeft(base, ".")
	ext := filepath.Ext(trimmed)
	return strings.TrimSuffix(base, ext), ext
}

// Exists reports whether the path exists and is a regular file.
func (f FileRef) Exists() bool {
	info, err := os.Stat(f.Path)
	return err == nil && info.Mode().IsRegular()
}

// Dir returns the directory containing the file.
func (f FileRef) Dir() DirRef {
	return DirRef{Path: filepath.Dir(f.Path)}
}

// HasExt reports whether the extension is one of exts. Comparison is
// case-insensitive; an empty list matches nothing.
func (f FileRef) HasExt(exts []string) bool {
	return slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, f.Ext)
	})
}

func (f FileRef) String() string {
	return f.Path
}

// NewDirRef returns a DirRef for the given path.
func NewDirRef(path string) (DirRef, error) {
	if path == "" {
		return DirRef{}, fmt.Errorf("empty directory path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return DirRef{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	return DirRef{Path: abs}, nil
}

// Exists reports whether the path exists and is a directory.
func (d DirRef) Exists() bool {
	info, err := os.Stat(d.Path)
	return err == nil && info.IsDir()
}

// Ensure creates the directory and any missing parents.
func (d DirRef) Ensure() error {
	return os.MkdirAll(d.Path, 0755)
}

// File returns a FileRef for name inside the directory.
func (d DirRef) File(name string) (FileRef, error) {
	return NewFileRef(filepath.Join(d.Path, name))
}

// Files lists the regular files directly inside the directory, in the order
// the directory listing returns them. Subdirectories are not descended into.
// Every call lists the directory again.
func (d DirRef) Files() ([]FileRef, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", d.Path, err)
	}

	files := make([]FileRef, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(d.Path, entry.Name())
		if !entry.Type().IsRegular() {
			if entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		ref, err := NewFileRef(path)
		if err != nil {
			continue
		}
		files = append(files, ref)
	}
	return files, nil
}

func (d DirRef) String() string {
	return d.Path
}
