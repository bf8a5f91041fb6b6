// Package browse lists the files a user can open, locally or in object
// storage, and watches local directories for changes.
package browse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dannyboland/loql/internal/loader"
	"github.com/dannyboland/loql/internal/objstore"
)

// Entry is one row in a listing.
type Entry struct {
	Name string
	Path string
	Dir  bool
	Size int64
}

// Browser lists directories. Remote listings need a Store.
type Browser struct {
	store   objstore.Store
	showAll bool
}

// Option configures a Browser.
type Option func(*Browser)

// WithStore enables s3:// listings.
func WithStore(s objstore.Store) Option {
	return func(b *Browser) { b.store = s }
}

// WithAllFiles disables extension filtering.
func WithAllFiles() Option {
	return func(b *Browser) { b.showAll = true }
}

// New creates a Browser.
func New(opts ...Option) *Browser {
	b := &Browser{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ErrNoStore is returned when a remote directory is listed without a store.
var ErrNoStore = errors.New("object storage is not available")

// List returns the directories and loadable files directly under dir,
// directories first, each group sorted by name. Hidden entries are skipped.
func (b *Browser) List(ctx context.Context, dir string) ([]Entry, error) {
	if objstore.IsRemote(dir) {
		return b.listRemote(ctx, dir)
	}
	return b.listLocal(dir)
}

func (b *Browser) listLocal(dir string) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		name := item.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(dir, name)
		isDir := item.IsDir()
		if !isDir && item.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(full); err == nil {
				isDir = info.IsDir()
			}
		}
		if !isDir && !b.showAll && !loader.Recognized(full) {
			continue
		}

		e := Entry{Name: name, Path: full, Dir: isDir}
		if !isDir {
			if info, err := item.Info(); err == nil {
				e.Size = info.Size()
			}
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (b *Browser) listRemote(ctx context.Context, dir string) ([]Entry, error) {
	if b.store == nil {
		return nil, ErrNoStore
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	objects, err := b.store.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(objects))
	for _, o := range objects {
		if !o.Dir && !b.showAll && !loader.Recognized(o.URI) {
			continue
		}
		entries = append(entries, Entry{Name: o.Name, Path: o.URI, Dir: o.Dir, Size: o.Size})
	}
	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Dir != entries[j].Dir {
			return entries[i].Dir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}

// Parent returns the directory above dir. At a filesystem or bucket root it
// returns dir unchanged.
func Parent(dir string) string {
	if objstore.IsRemote(dir) {
		return objstore.Parent(dir)
	}
	return filepath.Dir(filepath.Clean(dir))
}

// Root resolves the starting directory for a command-line argument. A file
// resolves to its directory. An empty argument means the working directory.
func Root(arg string) (string, error) {
	if arg == "" {
		return os.Getwd()
	}
	if objstore.IsRemote(arg) {
		if strings.HasSuffix(arg, "/") {
			return arg, nil
		}
		return objstore.Parent(arg), nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

// HumanSize formats a byte count for display.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
