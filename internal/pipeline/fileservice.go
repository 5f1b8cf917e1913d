// Package pipeline orchestrates per-file analysis and fixing: it builds
// the shared rule context once per file, runs every enabled rule's analyze
// against it, and composes rule fixes in sequence.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/stepdown/internal/syntax"
)

// FileService is the narrow file access interface the pipeline depends
// on. Tests inject an in-memory implementation.
type FileService interface {
	ResolvePaths(patterns []string) ([]string, error)
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
	ParseFile(path string) (*syntax.ParsedFile, error)
}

// DefaultIgnorePatterns are skipped during discovery unless overridden.
var DefaultIgnorePatterns = []string{
	"**/node_modules/**",
	"**/dist/**",
	"**/build/**",
	"**/.git/**",
	"**/*.min.js",
}

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// osFileService is the OS-backed FileService with glob-based discovery.
type osFileService struct {
	include []compiledPattern
	ignore  []compiledPattern
}

// NewFileService creates the default FileService. Patterns use gobwas/glob
// syntax with '/' as separator. An empty include list admits every source
// file; a nil ignore list selects the defaults.
func NewFileService(includePatterns, ignorePatterns []string) (FileService, error) {
	if ignorePatterns == nil {
		ignorePatterns = DefaultIgnorePatterns
	}

	fs := &osFileService{}
	for _, pattern := range includePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		fs.include = append(fs.include, compiledPattern{pattern: pattern, glob: g})
	}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		fs.ignore = append(fs.ignore, compiledPattern{pattern: pattern, glob: g})
	}
	return fs, nil
}

// ResolvePaths expands each pattern into source file paths: a file path is
// taken as-is, a directory is walked recursively, anything else is
// treated as a glob matched against the tree under the current directory.
// Results are deduplicated and sorted.
func (fs *osFileService) ResolvePaths(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	seen := map[string]bool{}
	var paths []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	for _, pattern := range patterns {
		info, err := os.Stat(pattern)
		switch {
		case err == nil && !info.IsDir():
			add(pattern)
		case err == nil && info.IsDir():
			if err := fs.walkDir(pattern, nil, add); err != nil {
				return nil, err
			}
		default:
			g, err := glob.Compile(filepath.ToSlash(pattern), '/')
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if err := fs.walkDir(".", g, add); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func (fs *osFileService) walkDir(root string, match glob.Glob, add func(string)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(filepath.ToSlash(path), "./")
		for _, p := range fs.ignore {
			if p.glob.Match(rel) {
				return nil
			}
		}

		if !syntax.IsSourceFile(path) {
			return nil
		}
		if len(fs.include) > 0 && !matchesAny(fs.include, rel) {
			return nil
		}
		if match != nil && !match.Match(rel) {
			return nil
		}
		add(path)
		return nil
	})
}

func matchesAny(patterns []compiledPattern, rel string) bool {
	for _, p := range patterns {
		if p.glob.Match(rel) {
			return true
		}
	}
	return false
}

// Read reads a file's content.
func (fs *osFileService) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Write writes new content to a file, preserving its permissions.
func (fs *osFileService) Write(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	return os.WriteFile(path, data, mode)
}

// ParseFile reads and parses a file.
func (fs *osFileService) ParseFile(path string) (*syntax.ParsedFile, error) {
	source, err := fs.Read(path)
	if err != nil {
		return nil, err
	}
	return syntax.Parse(source, path)
}
