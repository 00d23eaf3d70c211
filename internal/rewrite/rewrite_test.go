package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "app/__init__.py", "")
	writeFile(t, root, "app/core.py", "import os   \n\ndef f():\t\n    return 1   \n\n\n")
	writeFile(t, root, "app/clean.py", "x = 1\n")
	writeFile(t, root, "app/sub/__init__.py", "\"\"\"Documented.\"\"\"\n")
	writeFile(t, root, "app/notes.txt", "trailing   \n")
	writeFile(t, root, "tests/test_core.py", "def test_f():\n    assert True")
	writeFile(t, root, "setup.py", "from setuptools import setup  \nsetup()\n")
	return root
}

var roots = []string{"app", "tests", "setup.py"}

func TestNormalize_RewritesTree(t *testing.T) {
	root := newTree(t)
	w := New(root, zerolog.Nop())

	changed := w.Normalize(roots)

	// app/__init__.py, app/core.py, tests/test_core.py, setup.py
	assert.Equal(t, 4, changed)
	assert.Equal(t, "\"\"\"Package app.\"\"\"\n", readFile(t, filepath.Join(root, "app/__init__.py")))
	assert.Equal(t, "import os\n\ndef f():\n    return 1\n", readFile(t, filepath.Join(root, "app/core.py")))
	assert.Equal(t, "def test_f():\n    assert True\n", readFile(t, filepath.Join(root, "tests/test_core.py")))
	assert.Equal(t, "from setuptools import setup\nsetup()\n", readFile(t, filepath.Join(root, "setup.py")))
	assert.Equal(t, "\"\"\"Documented.\"\"\"\n", readFile(t, filepath.Join(root, "app/sub/__init__.py")))
	assert.Equal(t, "trailing   \n", readFile(t, filepath.Join(root, "app/notes.txt")), "non-Python files are untouched")
}

func TestNormalize_Idempotent(t *testing.T) {
	root := newTree(t)
	w := New(root, zerolog.Nop())

	require.NotZero(t, w.Normalize(roots))
	before := readFile(t, filepath.Join(root, "app/core.py"))
	info, err := os.Stat(filepath.Join(root, "app/core.py"))
	require.NoError(t, err)

	assert.Zero(t, w.Normalize(roots), "second pass must write nothing")

	after, err := os.Stat(filepath.Join(root, "app/core.py"))
	require.NoError(t, err)
	assert.Equal(t, before, readFile(t, filepath.Join(root, "app/core.py")))
	assert.Equal(t, info.ModTime(), after.ModTime())
}

func TestNormalize_NoTrailingWhitespaceAfterwards(t *testing.T) {
	root := newTree(t)
	New(root, zerolog.Nop()).Normalize(roots)

	for _, rel := range []string{"app/core.py", "tests/test_core.py", "setup.py", "app/__init__.py"} {
		content := readFile(t, filepath.Join(root, rel))
		for i, line := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
			assert.Equal(t, strings.TrimRight(line, " \t"), line, "%s line %d", rel, i+1)
		}
		assert.True(t, strings.HasSuffix(content, "\n"), rel)
		assert.False(t, strings.HasSuffix(content, "\n\n"), rel)
	}
}

func TestNormalize_PreservesPermissions(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "app/run.py", "print(1)  \n")
	require.NoError(t, os.Chmod(path, 0o755))

	assert.Equal(t, 1, New(root, zerolog.Nop()).Normalize([]string{"app"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestNormalize_MissingRootsAreSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/a.py", "a = 1 \n")

	assert.Equal(t, 1, New(root, zerolog.Nop()).Normalize([]string{"app", "tests", "setup.py"}))
}

func TestNormalize_SkipsVendorDirectories(t *testing.T) {
	root := t.TempDir()
	vendored := writeFile(t, root, "app/.venv/lib/x.py", "x = 1   \n")
	cached := writeFile(t, root, "app/__pycache__/y.py", "y = 1   \n")

	assert.Zero(t, New(root, zerolog.Nop()).Normalize([]string{"app"}))
	assert.Equal(t, "x = 1   \n", readFile(t, vendored))
	assert.Equal(t, "y = 1   \n", readFile(t, cached))
}

func TestNormalize_UnreadableFileDoesNotAbortBatch(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	locked := writeFile(t, root, "app/locked.py", "a = 1  \n")
	writeFile(t, root, "app/open.py", "b = 2  \n")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o644) })

	assert.Equal(t, 1, New(root, zerolog.Nop()).Normalize([]string{"app"}))
}

func TestNormalizeContent(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"strips trailing spaces", "a.py", "x = 1   \ny = 2\t\n", "x = 1\ny = 2\n"},
		{"adds final newline", "a.py", "x = 1", "x = 1\n"},
		{"collapses trailing newlines", "a.py", "x = 1\n\n\n", "x = 1\n"},
		{"crlf becomes lf", "a.py", "x = 1\r\ny = 2\r\n", "x = 1\ny = 2\n"},
		{"keeps inner blank lines", "a.py", "x = 1\n\n\ny = 2\n", "x = 1\n\n\ny = 2\n"},
		{"empty stays empty", "a.py", "", ""},
		{"blank stays empty", "a.py", "  \n\n", ""},
		{"empty init gains doc", "__init__.py", "", "\"\"\"Package pkg.\"\"\"\n"},
		{"init with code gains doc", "__init__.py", "from .x import y\n", "\"\"\"Package pkg.\"\"\"\nfrom .x import y\n"},
		{"documented init unchanged", "__init__.py", "\"\"\"Docs.\"\"\"\nimport x\n", "\"\"\"Docs.\"\"\"\nimport x\n"},
		{"only exact init name", "my__init__.py", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.file, "pkg", tt.content)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(tt.file, "pkg", got), "not idempotent")
		})
	}
}
