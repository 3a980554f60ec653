package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gptloader/cmd"
	"gptloader/pkg/errors"
	"gptloader/pkg/logging"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	err := cmd.Execute()

	if logging.Logger != nil {
		if err != nil && !errors.IsSilent(err) {
			logging.Logger.Debug("gptloader exited with error", zap.String("stack", errors.StackTrace(err)))
		}
		syncLogger(logging.Logger)
	}

	if err != nil {
		if !errors.IsSilent(err) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", errors.ErrorStack(err))
		}
		os.Exit(errors.ExitCode(err))
	}
}

// syncLogger flushes the logger when stderr is a terminal or a regular file; syncing a
// pipe fails with EINVAL on some platforms.
func syncLogger(logger *zap.Logger) {
	if !term.IsTerminal(int(os.Stderr.Fd())) && !isRegularFile(os.Stderr) {
		return
	}
	if syncErr := logger.Sync(); syncErr != nil {
		lowerErr := strings.ToLower(syncErr.Error())
		if !strings.Contains(lowerErr, "invalid argument") {
			log.Printf("Logger sync failed: %v", syncErr)
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
