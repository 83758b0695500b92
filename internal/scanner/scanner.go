package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
)

// Scanner resolves paths for indexing and watching.
// It holds no state besides its options and is safe for concurrent use.
type Scanner struct {
	opts Options
}

// New creates a new Scanner.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Abs returns the absolute, cleaned form of path.
// An empty path is invalid input.
func Abs(path string) (string, error) {
	if path == "" {
		return "", ierrors.ValidationError("path must not be empty", nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ierrors.ValidationError("resolve absolute path: "+path, err)
	}
	return abs, nil
}

// Resolve expands a collection of paths into the sorted, de-duplicated set of
// regular files they denote. A nil collection is invalid input; an empty one
// resolves to nothing. The first invalid path aborts resolution.
func (s *Scanner) Resolve(ctx context.Context, paths []string) ([]string, error) {
	if paths == nil {
		return nil, ierrors.ValidationError("paths must not be nil", nil)
	}

	seen := make(map[string]struct{})
	for _, p := range paths {
		files, err := s.ResolvePath(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			seen[f] = struct{}{}
		}
	}

	return sortedKeys(seen), nil
}

// ResolvePath expands a single path into the regular files it denotes.
func (s *Scanner) ResolvePath(ctx context.Context, path string) ([]string, error) {
	abs, err := Abs(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ierrors.New(ierrors.ErrCodeFilePermission, "stat "+abs, err)
	}

	switch {
	case info.Mode().IsRegular():
		return []string{abs}, nil
	case info.IsDir():
		return s.walkFiles(ctx, abs)
	default:
		return nil, ierrors.InvalidPath(abs)
	}
}

// walkFiles collects every regular file under root.
// Unreadable entries are logged and skipped.
func (s *Scanner) walkFiles(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slog.Warn("skipping unreadable path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if d.Type().IsRegular() {
			files = append(files, path)
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && s.opts.FollowSymlinks {
			if info, statErr := os.Stat(path); statErr == nil && info.Mode().IsRegular() {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// WatchDirs returns the directories that must be registered to observe
// changes to paths: a directory contributes itself and every sub-directory,
// a regular file contributes its parent directory. Non-existent paths are
// dropped and other file kinds are invalid input.
func (s *Scanner) WatchDirs(ctx context.Context, paths []string) ([]string, error) {
	if paths == nil {
		return nil, ierrors.ValidationError("paths must not be nil", nil)
	}

	seen := make(map[string]struct{})
	for _, p := range paths {
		abs, err := Abs(p)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, ierrors.New(ierrors.ErrCodeFilePermission, "stat "+abs, err)
		}

		switch {
		case info.Mode().IsRegular():
			seen[filepath.Dir(abs)] = struct{}{}
		case info.IsDir():
			dirs, err := s.Subdirectories(ctx, abs)
			if err != nil {
				return nil, err
			}
			for _, d := range dirs {
				seen[d] = struct{}{}
			}
		default:
			return nil, ierrors.InvalidPath(abs)
		}
	}

	return sortedKeys(seen), nil
}

// Subdirectories returns root and every directory below it.
func (s *Scanner) Subdirectories(ctx context.Context, root string) ([]string, error) {
	var dirs []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slog.Warn("skipping unreadable directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return dirs, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
