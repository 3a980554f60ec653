package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"gptloader/pkg/combine"
	"gptloader/pkg/errors"
	"gptloader/pkg/version"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const programDir = "/opt/gptloader"

func newTestCmd(t *testing.T, fs afero.Fs, args ...string) (*bytes.Buffer, error) {
	t.Helper()

	var stdout bytes.Buffer
	root := NewRootCmd(&Options{
		Fs:         fs,
		ProgramDir: programDir,
		Logger:     zap.NewNop(),
		Stdout:     &stdout,
	})
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	return &stdout, root.Execute()
}

func read(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestRootNoInput(t *testing.T) {
	t.Parallel()

	stdout, err := newTestCmd(t, afero.NewMemMapFs())
	require.Error(t, err)
	assert.Equal(t, usageLine+"\n", stdout.String())
	assert.Equal(t, 1, errors.ExitCode(err))
	assert.True(t, errors.IsSilent(err))
}

func TestRootWritesDocument(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/repo/a.txt", []byte("hello"), 0644))

	stdout, err := newTestCmd(t, fs, "/work/repo")
	require.NoError(t, err)

	output := filepath.Join("/work", combine.DefaultOutputName)
	assert.Equal(t, "Repository contents written to "+output+".\n", stdout.String())
	assert.Equal(t, combine.DefaultPreamble+"\n----\na.txt\nhello\n--END--", read(t, fs, output))
}

func TestRootFlags(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/repo/a.txt", []byte("hello"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/repo/skip.log", []byte("noise"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/repo/.llmignore", []byte("*.log\n.llmignore\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/home/p.txt", []byte("Custom:"), 0644))

	stdout, err := newTestCmd(t, fs, "/work/repo", "-p", "/home/p.txt", "-o", "/out/doc.txt",
		"--ignore-file", ".llmignore", "--tree", "/out/tree.txt")
	require.NoError(t, err)
	assert.Equal(t, "Repository contents written to /out/doc.txt.\n", stdout.String())

	assert.Equal(t, "Custom:\n----\na.txt\nhello\n--END--", read(t, fs, "/out/doc.txt"))
	assert.Equal(t, "repo/\n└── a.txt\n", read(t, fs, "/out/tree.txt"))
}

func TestRootFlagsAfterInput(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/repo/a.txt", []byte("hello"), 0644))

	_, err := newTestCmd(t, fs, "-o", "/first.txt", "/work/repo")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(read(t, fs, "/first.txt"), "--END--"))
}

func TestRootConfigFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/repo/a.txt", []byte("hello"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/repo/big.txt", bytes.Repeat([]byte("b"), 4096), 0644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(programDir, "gptloader.toml"),
		[]byte("output = \"out/from-config.txt\"\nmax_size_kb = 1\n"), 0644))

	stdout, err := newTestCmd(t, fs, "/work/repo")
	require.NoError(t, err)

	output := filepath.Join(programDir, "out", "from-config.txt")
	assert.Equal(t, "Repository contents written to "+output+".\n", stdout.String())
	assert.Contains(t, read(t, fs, output), "----\nbig.txt (Binary file, not included in content)\n")

	// Flags that were set win over the settings file.
	_, err = newTestCmd(t, fs, "/work/repo", "-o", "/flag.txt", "--max-size-kb", "0")
	require.NoError(t, err)
	assert.Contains(t, read(t, fs, "/flag.txt"), "----\nbig.txt\nbbbb")
}

func TestRootExplicitConfigMissing(t *testing.T) {
	t.Parallel()

	_, err := newTestCmd(t, afero.NewMemMapFs(), "/work/repo", "--config", "/etc/gptloader.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
	assert.Equal(t, 1, errors.ExitCode(err))
	assert.False(t, errors.IsSilent(err))
}

func TestRootFallbackIgnoreFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/repo/a.txt", []byte("hello"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/repo/b.md", []byte("# b"), 0644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(programDir, ".gptignore"), []byte("*.md\n"), 0644))

	_, err := newTestCmd(t, fs, "/work/repo", "-o", "/out.txt")
	require.NoError(t, err)
	assert.NotContains(t, read(t, fs, "/out.txt"), "b.md")
}

func TestRootMissingPreamble(t *testing.T) {
	t.Parallel()

	_, err := newTestCmd(t, afero.NewMemMapFs(), "/work/repo", "-p", "/missing.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read preamble file")
	assert.NotEmpty(t, errors.StackTrace(err))
}

func TestRootTooManyArgs(t *testing.T) {
	t.Parallel()

	_, err := newTestCmd(t, afero.NewMemMapFs(), "/a", "/b")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, err := newTestCmd(t, afero.NewMemMapFs(), "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout.String())

	stdout, err = newTestCmd(t, afero.NewMemMapFs(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Get().String()+"\n", stdout.String())
}
