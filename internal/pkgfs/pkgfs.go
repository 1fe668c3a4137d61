// Package pkgfs provides a directory-backed implementation of the engine's
// Package collaborator, for auditing an extracted package tree from the
// command line. Trees on disk are fully materialized, so it never reports
// ghost files.
package pkgfs

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DirPackage is a package whose content lives extracted under a root
// directory.
type DirPackage struct {
	name   string
	root   string
	source bool
	files  []string
}

// Scan walks the extracted tree at root and records every regular file as
// an install path relative to the tree, in sorted order.
func Scan(name, root string, source bool) (*DirPackage, error) {
	root = filepath.Clean(root)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, "/"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	return &DirPackage{name: name, root: root, source: source, files: files}, nil
}

func (p *DirPackage) Name() string   { return p.name }
func (p *DirPackage) IsSource() bool { return p.source }
func (p *DirPackage) Root() string   { return p.root }

// Files returns the recorded install paths.
func (p *DirPackage) Files() []string { return p.files }

// IsGhost always reports false: everything Scan saw exists on disk.
func (p *DirPackage) IsGhost(string) bool { return false }

// Contains reports whether the package installs the given path.
func (p *DirPackage) Contains(path string) bool {
	idx := sort.SearchStrings(p.files, path)
	return idx < len(p.files) && p.files[idx] == path
}

// String identifies the package in diagnostics.
func (p *DirPackage) String() string {
	return p.name + " (" + strings.TrimSuffix(p.root, "/") + ")"
}
