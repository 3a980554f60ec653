// Package config resolves the values gptloader needs before a run starts: the directory
// holding the running program and the optional TOML settings file.
package config

import (
	"os"
	"path/filepath"

	"gptloader/pkg/errors"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const (
	// FileName is the settings file looked up in the program directory.
	FileName = "gptloader.toml"

	// ExtractDirName is the default archive extraction directory inside the program directory.
	ExtractDirName = "extracted_repo"
)

// File holds the settings that may be stored in gptloader.toml. Empty values leave the
// built-in defaults in place.
type File struct {
	Preamble   string `toml:"preamble"`
	Output     string `toml:"output"`
	IgnoreFile string `toml:"ignore_file"`
	ExtractDir string `toml:"extract_dir"`
	Tree       string `toml:"tree"`
	MaxSizeKB  int    `toml:"max_size_kb"`
	Debug      bool   `toml:"debug"`
}

// ProgramDir returns the directory containing the running executable, with symlinks
// resolved. It is computed once at startup and passed to whatever needs it.
func ProgramDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.WithStackTraceAndPrefix(err, "failed to locate executable")
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Dir(exe), nil
}

// Load reads a settings file. When required is false a missing file yields an empty
// File and no error. Relative paths inside the file are resolved against its directory.
func Load(fs afero.Fs, path string, required bool) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return &File{}, nil
		}
		return nil, errors.WithStackTraceAndPrefix(err, "failed to read config file %s", path)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "failed to parse config file %s", path)
	}

	dir := filepath.Dir(path)
	f.Preamble = resolve(dir, f.Preamble)
	f.Output = resolve(dir, f.Output)
	f.ExtractDir = resolve(dir, f.ExtractDir)
	f.Tree = resolve(dir, f.Tree)

	return &f, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
