package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasnoah/lintpipe/internal/checks"
	"github.com/lucasnoah/lintpipe/internal/pipeline"
)

// fakeRunner answers the probe from Capture and gives each tool a fixed exit code.
type fakeRunner struct {
	probeJSON string
	exits     map[string]int
	ran       []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, command string) (string, int) {
	f.ran = append(f.ran, command)
	tool := strings.Fields(command)[0]
	return "", f.exits[tool]
}

func (f *fakeRunner) Capture(_ context.Context, _ string, _ string) (string, string, int) {
	return f.probeJSON, "", 0
}

const readyProbe = `{"version":"3.11.4","venv":true,"missing":[],"fixer_version":"2.0.4","fixer_error":""}`

func useRunner(t *testing.T, f *fakeRunner) {
	t.Helper()
	prev := newRunner
	newRunner = func(*cobra.Command, zerolog.Logger) checks.CommandRunner { return f }
	t.Cleanup(func() { newRunner = prev })
}

func executeCommand(args ...string) (string, error) {
	rootDir, configFile, verbosity, autofix, reportFile = "", "", 0, false, ""
	historyCmd.Flags().Set("limit", "20")
	historyCmd.Flags().Set("all", "false")
	resetHelp(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetHelp clears --help left set by an earlier Execute.
func resetHelp(c *cobra.Command) {
	if f := c.Flags().Lookup("help"); f != nil {
		f.Value.Set("false")
		f.Changed = false
	}
	for _, sub := range c.Commands() {
		resetHelp(sub)
	}
}

func projectDir(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "demo-app")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "demo_app"), 0o755))
	t.Setenv("LINTPIPE_PYTHON", "")
	t.Setenv("LINTPIPE_PACKAGE", "")
	t.Setenv("LINTPIPE_DATABASE_URL", "")
	return root
}

func TestVersionCommand(t *testing.T) {
	SetVersion("test-version")
	out, err := executeCommand("version")
	require.NoError(t, err)
	assert.Contains(t, out, "test-version")
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	require.NoError(t, err)
	for _, want := range []string{"doctor", "config", "history", "version", "--autofix", "--report", "--root"} {
		assert.Contains(t, out, want)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := executeCommand("nonexistent")
	assert.Error(t, err)
}

func TestConfigShow_Defaults(t *testing.T) {
	root := projectDir(t)
	out, err := executeCommand("config", "show", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "python: python3")
	assert.Contains(t, out, "package: demo_app")
}

func TestConfigValidate(t *testing.T) {
	root := projectDir(t)
	out, err := executeCommand("config", "validate", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")

	require.NoError(t, os.WriteFile(filepath.Join(root, ".lintpipe.yaml"), []byte("package: src/app\n"), 0o644))
	out, err = executeCommand("config", "validate", "--root", root)
	require.Error(t, err)
	assert.Contains(t, out, "Validation errors:")
}

func TestRun_CheckPasses(t *testing.T) {
	root := projectDir(t)
	f := &fakeRunner{probeJSON: readyProbe}
	useRunner(t, f)

	out, err := executeCommand("--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "All linting checks passed!")
	require.Len(t, f.ran, 2)
	assert.True(t, strings.HasPrefix(f.ran[0], "isort "))
	assert.True(t, strings.HasPrefix(f.ran[1], "flake8 "))
	assert.Contains(t, f.ran[1], "demo_app/ tests/")
}

func TestRun_CheckFailsOnStyle(t *testing.T) {
	root := projectDir(t)
	useRunner(t, &fakeRunner{probeJSON: readyProbe, exits: map[string]int{"flake8": 1}})

	out, err := executeCommand("--root", root)
	var exit *ExitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 1, exit.Code)
	assert.Contains(t, out, "Linting issues found.")
}

func TestRun_AutofixAlwaysZero(t *testing.T) {
	root := projectDir(t)
	probe := `{"version":"3.11.4","venv":true,"missing":["autoflake"],"fixer_version":"2.0.4","fixer_error":""}`
	f := &fakeRunner{probeJSON: probe, exits: map[string]int{"flake8": 1, "isort": 1}}
	useRunner(t, f)

	out, err := executeCommand("--root", root, "--autofix")
	require.NoError(t, err)
	assert.Contains(t, out, "autoflake not found")
	assert.Contains(t, out, "Auto-fix completed!")
	for _, c := range f.ran {
		assert.False(t, strings.HasPrefix(c, "autoflake"), "autoflake should not run: %s", c)
	}
}

func TestRun_NotReadyAborts(t *testing.T) {
	root := projectDir(t)
	probe := `{"version":"3.11.4","venv":false,"missing":["flake8"],"fixer_version":"","fixer_error":""}`
	f := &fakeRunner{probeJSON: probe}
	useRunner(t, f)

	out, err := executeCommand("--root", root)
	var exit *ExitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 1, exit.Code)
	assert.Contains(t, out, "flake8")
	assert.Empty(t, f.ran)
}

func TestRun_WritesReport(t *testing.T) {
	root := projectDir(t)
	useRunner(t, &fakeRunner{probeJSON: readyProbe})

	_, err := executeCommand("--root", root, "--report", "lint-report.json")
	require.NoError(t, err)

	report, err := pipeline.LoadReport(filepath.Join(root, "lint-report.json"))
	require.NoError(t, err)
	require.NotNil(t, report.Outcome)
	assert.True(t, report.Outcome.Success)
	assert.Equal(t, pipeline.ModeCheck, report.Outcome.Mode)
	assert.Equal(t, "3.11.4", report.Outcome.Runtime)
}

func TestRun_InvalidConfigAbortsBeforeProbe(t *testing.T) {
	root := projectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".lintpipe.yaml"), []byte("python: \"\"\npackage: \"..\"\n"), 0o644))
	f := &fakeRunner{probeJSON: readyProbe}
	useRunner(t, f)

	_, err := executeCommand("--root", root)
	require.Error(t, err)
	assert.Empty(t, f.ran)
}

func TestDoctor(t *testing.T) {
	root := projectDir(t)
	probe := `{"version":"3.11.4","venv":true,"missing":["autoflake"],"fixer_version":"2.0.4","fixer_error":""}`
	useRunner(t, &fakeRunner{probeJSON: probe})

	out, err := executeCommand("doctor", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Runtime:     3.11.4 (virtual environment)")
	assert.Contains(t, out, "not installed (optional)")
	assert.Contains(t, out, "All required tools are installed.")
}

func TestDoctor_Missing(t *testing.T) {
	root := projectDir(t)
	probe := `{"version":"3.12.1","venv":true,"missing":["pycodestyle"],"fixer_version":"","fixer_error":""}`
	useRunner(t, &fakeRunner{probeJSON: probe})

	out, err := executeCommand("doctor", "--root", root)
	var exit *ExitError
	require.True(t, errors.As(err, &exit))
	assert.Contains(t, out, "pycodestyle")
}

func TestHistory_Disabled(t *testing.T) {
	root := projectDir(t)
	_, err := executeCommand("history", "--root", root)
	assert.ErrorIs(t, err, errNoHistory)
}
