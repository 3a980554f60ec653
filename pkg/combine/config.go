// File: pkg/combine/config.go
package combine

import (
	"path/filepath"

	"gptloader/pkg/errors"
)

// DefaultOutputName is the document written next to the input when no output is given.
const DefaultOutputName = "output.txt"

// Arguments holds the resolved parameters of one run.
type Arguments struct {
	Input              string // Directory or zip archive to load.
	Output             string // Destination of the generated document.
	PreambleFile       string // Optional file whose contents replace DefaultPreamble.
	ExtractDir         string // Where a zip input is extracted; empty for a fresh temporary directory.
	IgnoreFileName     string // Ignore file name looked up in the scan root.
	FallbackIgnoreFile string // Ignore file used when the scan root has none.
	Tree               string // Optional destination for a directory tree of the included files.
	MaxFileSizeKB      int    // Files larger than this are recorded as binary; 0 means no limit.
}

// DefaultOutputPath returns output.txt in the directory that contains input.
func DefaultOutputPath(input string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", errors.WithStackTraceAndPrefix(err, "failed to resolve %s", input)
	}
	return filepath.Join(filepath.Dir(abs), DefaultOutputName), nil
}
