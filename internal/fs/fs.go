// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// Document kinds by file extension. Markdown documents carry service
// definitions inside code fences. JSON files hold a service that was already
// compiled elsewhere and can only be extended.
var knownExts = map[string]idl.FileKind{
	".md":   idl.FileKindServiceSpec,
	".json": idl.FileKindServiceSpecJSON,
}

// KindOf returns the file kind implied by the file name. Dot files are never
// documents.
func KindOf(fname string) idl.FileKind {
	base := filepath.Base(fname)
	if strings.HasPrefix(base, ".") {
		return idl.FileKindNone
	}
	return knownExts[filepath.Ext(base)]
}

var _ idl.FileSystem = FileSystemMulti{}

// FileSystemMulti is a search path of file systems. Open answers from the
// first member that has the file. Writes are rejected because there is no
// single member to write to.
type FileSystemMulti []idl.FileSystem

func (self FileSystemMulti) Open(ctx context.Context, uri string) ([]idl.File, error) {
	for _, member := range self {
		if files, err := member.Open(ctx, uri); err == nil {
			return files, nil
		}
	}
	return nil, exc.New(exc.Location{URI: uri}, exc.CodeFileNotFound, fmt.Sprintf("%s is not in any of %d search roots", uri, len(self)))
}

func (self FileSystemMulti) Write(ctx context.Context, uri string, content string) error {
	return exc.New(exc.Location{URI: uri}, exc.CodeUnsuportedFileSystemOperation, "cannot write to a search path")
}

// FileFilter selects the documents returned when a directory is opened. It
// receives the slash separated path relative to the root.
type FileFilter func(ctx context.Context, fname string) bool

type FileSystemLocalOption func(*fileSystemLocal)

// WithOptionFSFactory replaces os.DirFS as the source of the read handle for
// the root directory. Writes always go to the real disk.
func WithOptionFSFactory(v func(root string) fs.FS) FileSystemLocalOption {
	return func(self *fileSystemLocal) {
		self.fsFactory = v
	}
}

// WithOptionFileFilter replaces the default directory filter, which keeps
// every file with a known document kind.
func WithOptionFileFilter(v FileFilter) FileSystemLocalOption {
	return func(self *fileSystemLocal) {
		self.fileFilter = v
	}
}

type fileSystemLocal struct {
	root       string
	fsFactory  func(string) fs.FS
	fileFilter FileFilter
}

// NewFileSystemLocal serves the documents under root. Every uri is resolved
// relative to root regardless of a leading slash.
func NewFileSystemLocal(root string, options ...FileSystemLocalOption) (idl.FileSystem, error) {
	absroot, err := filepath.Abs(root)
	if err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: root}, err)
	}
	self := &fileSystemLocal{
		root:      absroot,
		fsFactory: os.DirFS,
		fileFilter: func(ctx context.Context, fname string) bool {
			return KindOf(fname) != idl.FileKindNone
		},
	}
	for _, option := range options {
		option(self)
	}
	return self, nil
}

// relative turns a uri into the unrooted form io/fs expects. The root itself
// is ".".
func relative(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil {
		p = u.Path
	}
	p = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
	if p == "" {
		return "."
	}
	return p
}

// Open returns the single file named by uri or, for a directory, the
// filtered documents directly inside it in name order. Subdirectories are
// not descended into.
func (self *fileSystemLocal) Open(ctx context.Context, uri string) ([]idl.File, error) {
	dir := self.fsFactory(self.root)
	rel := relative(uri)
	info, err := fs.Stat(dir, rel)
	if err != nil {
		return nil, fsErr(rel, err)
	}
	if !info.IsDir() {
		return []idl.File{self.file(dir, rel)}, nil
	}
	entries, err := fs.ReadDir(dir, rel)
	if err != nil {
		return nil, fsErr(rel, err)
	}
	var files []idl.File
	for _, entry := range entries {
		name := path.Join(rel, entry.Name())
		if entry.IsDir() || !self.fileFilter(ctx, name) {
			continue
		}
		files = append(files, self.file(dir, name))
	}
	if len(files) == 0 {
		return nil, exc.New(exc.Location{URI: "/" + strings.TrimPrefix(rel, ".")}, exc.CodeFileNotFound, fmt.Sprintf("no documents in directory %s", uri))
	}
	return files, nil
}

func (self *fileSystemLocal) file(dir fs.FS, rel string) idl.File {
	return NewFileFN("/"+rel, func() (io.ReadCloser, error) {
		return dir.Open(rel)
	}, KindOf(rel))
}

// Write replaces the file at uri, creating parent directories as needed.
// Content goes to a temporary sibling first so a watcher never reads a
// partial file.
func (self *fileSystemLocal) Write(ctx context.Context, uri string, content string) error {
	target := filepath.Join(self.root, filepath.FromSlash(relative(uri)))
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fsErr(parent, err)
	}
	tmp, err := os.CreateTemp(parent, "."+filepath.Base(target)+".*")
	if err != nil {
		return fsErr(parent, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fsErr(target, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fsErr(target, err)
	}
	if err := tmp.Close(); err != nil {
		return fsErr(target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fsErr(target, err)
	}
	return nil
}

func fsErr(name string, err error) error {
	loc := exc.Location{URI: name}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		loc.URI = pe.Path
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return exc.Wrap(loc, exc.CodeFileNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return exc.Wrap(loc, exc.CodePermissionDenied, err)
	default:
		return exc.WrapUnknown(loc, err)
	}
}
