// Package rewrite applies idempotent whitespace normalization to Python
// sources without going through any external tool.
package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lucasnoah/lintpipe/internal/pipeline"
)

const (
	sourceExt = ".py"
	initFile  = "__init__.py"
	docMarker = `"""`
)

// skipDirs are never descended into while collecting candidates.
var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"build":        true,
	"dist":         true,
	"node_modules": true,
}

// FileRecord is one candidate file moving through a normalization pass.
type FileRecord struct {
	Path      string
	Original  []byte
	Rewritten []byte
}

// Changed reports whether the rewrite differs from what is on disk.
func (r *FileRecord) Changed() bool {
	return !bytes.Equal(r.Original, r.Rewritten)
}

// Rewriter normalizes files under a project root.
type Rewriter struct {
	root string
	log  zerolog.Logger
}

// New creates a Rewriter; roots passed to Normalize are relative to root.
func New(root string, log zerolog.Logger) *Rewriter {
	return &Rewriter{root: root, log: log}
}

// Normalize rewrites every .py file under roots that needs it and returns how
// many files were written. Per-file failures are logged and skipped.
func (w *Rewriter) Normalize(roots []string) int {
	changed := 0
	for _, path := range w.collect(roots) {
		rec, err := w.process(path)
		if err != nil {
			w.log.Error().Err(err).Str("path", w.rel(path)).Msg("error processing file")
			continue
		}
		if rec.Changed() {
			changed++
		}
	}
	return changed
}

// collect walks roots and returns candidate files in walk order. A root may be
// a single file.
func (w *Rewriter) collect(roots []string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, root := range roots {
		start := filepath.Join(w.root, root)
		err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == start {
					return err
				}
				w.log.Warn().Err(err).Str("path", w.rel(path)).Msg("skipping unreadable path")
				return nil
			}
			if d.IsDir() {
				if path != start && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && filepath.Ext(path) == sourceExt && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if errors.Is(err, fs.ErrNotExist) {
			w.log.Info().Str("root", root).Msg("root does not exist, skipping")
		} else if err != nil {
			w.log.Warn().Err(err).Str("root", root).Msg("error walking root")
		}
	}
	return files
}

func (w *Rewriter) process(path string) (*FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	rec := &FileRecord{
		Path:      path,
		Original:  data,
		Rewritten: []byte(Normalize(filepath.Base(path), filepath.Base(filepath.Dir(path)), string(data))),
	}
	if !rec.Changed() {
		return rec, nil
	}
	if err := pipeline.WriteAtomic(path, rec.Rewritten, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	w.log.Debug().Str("path", w.rel(path)).Msg("normalized")
	return rec, nil
}

func (w *Rewriter) rel(path string) string {
	if rel, err := filepath.Rel(w.root, path); err == nil {
		return rel
	}
	return path
}

// Normalize returns content with trailing whitespace stripped from every line
// and exactly one final newline. An __init__.py without a docstring gains a
// placeholder naming its package directory. Content that is empty after
// stripping stays empty unless it is an __init__.py.
func Normalize(name, parentDir, content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r\f\v")
	}
	body := strings.TrimRight(strings.Join(lines, "\n"), "\n")

	if name == initFile && !strings.Contains(body, docMarker) {
		doc := fmt.Sprintf(`"""Package %s."""`, parentDir)
		if body == "" {
			body = doc
		} else {
			body = doc + "\n" + body
		}
	}

	if body == "" {
		return ""
	}
	return body + "\n"
}
