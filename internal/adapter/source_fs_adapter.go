// Package adapter contains infrastructure adapters the weevil domain drives:
// filesystem, Go parsing, the go toolchain, git and report persistence.
package adapter

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/mod/modfile"

	m "gooze.dev/pkg/weevil/internal/model"
)

// HelperFileName is the generated helper file the injector drops into every
// mutated package. Source discovery never reports it.
const HelperFileName = "zz_weevil_helpers.go"

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning user modules and preparing the compile workspace.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Get lists the non-test Go files selected by paths. A path ending in
	// "/..." is walked recursively. Files matching an exclude regex are dropped.
	Get(ctx context.Context, root m.Path, paths []m.Path, exclude ...string) ([]m.Source, error)

	// GetTests lists every _test.go file of the module rooted at root.
	GetTests(ctx context.Context, root m.Path) ([]m.Source, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// HashFile returns a stable fingerprint (SHA-256) for the file at path.
	HashFile(ctx context.Context, path m.Path) (string, error)

	// FindProjectRoot searches for a go.mod declaring a module, walking up from startPath.
	FindProjectRoot(ctx context.Context, startPath m.Path) (m.Path, error)

	// ModulePath returns the module path declared by root/go.mod.
	ModulePath(ctx context.Context, root m.Path) (string, error)

	// CreateTempDir creates a temporary directory for the compile workspace.
	CreateTempDir(ctx context.Context, pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(ctx context.Context, path m.Path) error

	// CopyDir recursively copies a directory tree.
	CopyDir(ctx context.Context, src, dst m.Path) error
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Get walks the selected paths and returns the Go sources found there, sorted
// by module-relative path.
func (a *LocalSourceFSAdapter) Get(ctx context.Context, root m.Path, paths []m.Path, exclude ...string) ([]m.Source, error) {
	patterns, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		paths = []m.Path{m.Path(filepath.Join(string(root), "..."))}
	}

	seen := make(map[string]struct{})

	var sources []m.Source

	for _, target := range paths {
		dir, recursive := splitRecursive(string(target))

		dir, err = filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", target, err)
		}

		files, err := a.collect(ctx, string(root), dir, recursive, func(name string) bool {
			return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") && name != HelperFileName
		})
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			if _, ok := seen[file]; ok {
				continue
			}

			seen[file] = struct{}{}

			source, err := a.source(ctx, string(root), file)
			if err != nil {
				return nil, err
			}

			if excluded(patterns, string(source.Origin.ShortPath)) {
				slog.Debug("Excluded source", "path", source.Origin.ShortPath)
				continue
			}

			sources = append(sources, source)
		}
	}

	sortSources(sources)

	return sources, nil
}

// GetTests returns every _test.go file of the module.
func (a *LocalSourceFSAdapter) GetTests(ctx context.Context, root m.Path) ([]m.Source, error) {
	files, err := a.collect(ctx, string(root), string(root), true, func(name string) bool {
		return strings.HasSuffix(name, "_test.go")
	})
	if err != nil {
		return nil, err
	}

	sources := make([]m.Source, 0, len(files))

	for _, file := range files {
		source, err := a.source(ctx, string(root), file)
		if err != nil {
			return nil, err
		}

		sources = append(sources, source)
	}

	sortSources(sources)

	return sources, nil
}

func (a *LocalSourceFSAdapter) collect(ctx context.Context, root, dir string, recursive bool, keep func(name string) bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	if !info.IsDir() {
		if keep(filepath.Base(dir)) {
			return []string{dir}, nil
		}

		return nil, nil
	}

	var files []string

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if path == dir {
				return nil
			}

			if !recursive || skipDir(root, path, d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if keep(d.Name()) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return files, nil
}

// skipDir drops directories the go tool ignores as well as nested modules.
func skipDir(root, path, name string) bool {
	if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}

	if filepath.Clean(path) == filepath.Clean(root) {
		return false
	}

	_, err := os.Stat(filepath.Join(path, "go.mod"))

	return err == nil
}

func (a *LocalSourceFSAdapter) source(ctx context.Context, root, file string) (m.Source, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return m.Source{}, fmt.Errorf("failed to relativize %s: %w", file, err)
	}

	hash, err := a.HashFile(ctx, m.Path(file))
	if err != nil {
		return m.Source{}, err
	}

	short := filepath.ToSlash(rel)

	return m.Source{
		Origin: &m.File{
			ShortPath: m.Path(short),
			FullPath:  m.Path(file),
			Hash:      hash,
		},
		Package: m.Path(filepath.ToSlash(filepath.Dir(rel))),
	}, nil
}

func splitRecursive(target string) (string, bool) {
	if target == "..." {
		return ".", true
	}

	if trimmed, ok := strings.CutSuffix(target, "/..."); ok {
		if trimmed == "" {
			trimmed = "/"
		}

		return trimmed, true
	}

	return target, false
}

func compileExcludes(exclude []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(exclude))

	for _, expr := range exclude {
		if expr == "" {
			continue
		}

		pattern, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", expr, err)
		}

		patterns = append(patterns, pattern)
	}

	return patterns, nil
}

func excluded(patterns []*regexp.Regexp, path string) bool {
	return slices.ContainsFunc(patterns, func(p *regexp.Regexp) bool {
		return p.MatchString(path)
	})
}

func sortSources(sources []m.Source) {
	slices.SortFunc(sources, func(x, y m.Source) int {
		return strings.Compare(string(x.Origin.ShortPath), string(y.Origin.ShortPath))
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(_ context.Context, path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FindProjectRoot walks up from startPath to the first go.mod with a module directive.
func (a *LocalSourceFSAdapter) FindProjectRoot(_ context.Context, startPath m.Path) (m.Path, error) {
	dir, err := filepath.Abs(string(startPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startPath, err)
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if _, err := readModulePath(dir); err == nil {
			return m.Path(dir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory of %s", startPath)
		}

		dir = parent
	}
}

// ModulePath returns the module path declared in root/go.mod.
func (a *LocalSourceFSAdapter) ModulePath(_ context.Context, root m.Path) (string, error) {
	return readModulePath(string(root))
}

func readModulePath(dir string) (string, error) {
	goModPath := filepath.Join(dir, "go.mod")

	// #nosec G304 - go.mod of the module under test
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return "", err
	}

	file, err := modfile.ParseLax(goModPath, data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", goModPath, err)
	}

	if file.Module == nil || file.Module.Mod.Path == "" {
		return "", errors.New(goModPath + " has no module directive")
	}

	return file.Module.Mod.Path, nil
}

// CreateTempDir creates a temporary directory for mutation testing.
func (a *LocalSourceFSAdapter) CreateTempDir(_ context.Context, pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSourceFSAdapter) RemoveAll(_ context.Context, path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyDir recursively copies a directory tree, skipping VCS metadata and
// helper files left over from an interrupted run.
func (a *LocalSourceFSAdapter) CopyDir(ctx context.Context, src, dst m.Path) error {
	return filepath.Walk(string(src), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		relPath, err := filepath.Rel(string(src), path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			baseName := filepath.Base(path)
			if baseName == ".git" || baseName == "node_modules" {
				return filepath.SkipDir
			}
		}

		targetPath := filepath.Join(string(dst), relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode()|0o700)
		}

		if info.Name() == HelperFileName || !info.Mode().IsRegular() {
			return nil
		}

		return a.copyFile(path, targetPath, info.Mode())
	})
}

// copyFile copies a single file.
func (a *LocalSourceFSAdapter) copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src is internal project file path, not user input
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is internal destination path, not user input
	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	defer func() { _ = destFile.Close() }()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return os.Chmod(dst, mode|0o600)
}
