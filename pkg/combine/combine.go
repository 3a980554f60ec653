// File: pkg/combine/combine.go
package combine

import (
	"path/filepath"
	"time"

	"gptloader/pkg/archive"
	"gptloader/pkg/errors"
	"gptloader/pkg/ignore"
	"gptloader/pkg/logging"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// RunCombine resolves the scan root, loads the ignore list, and writes the output
// document for args. It returns the path of the document.
//
// Per-file read and decode problems never fail the run. Any other error does, and if it
// happens after the document was created the document is left without its terminator.
func RunCombine(fs afero.Fs, args *Arguments, logger *zap.Logger) (string, error) {
	logger = logging.OrNop(logger)
	startTime := time.Now()
	logger.Info("Starting combination process", zap.String("input", args.Input))

	output := args.Output
	if output == "" {
		var err error
		if output, err = DefaultOutputPath(args.Input); err != nil {
			return "", err
		}
	}

	root, err := archive.Resolve(fs, args.Input, args.ExtractDir, logger)
	if err != nil {
		logger.Error("Failed to resolve input", zap.Error(err))
		return "", err
	}

	ignoreName := args.IgnoreFileName
	if ignoreName == "" {
		ignoreName = ignore.DefaultFileName
	}
	gi, ignoreFile, err := ignore.Load(fs, []string{filepath.Join(root, ignoreName), args.FallbackIgnoreFile}, logger)
	if err != nil {
		logger.Error("Failed to load ignore patterns", zap.Error(err))
		return "", err
	}
	logger.Debug("Loaded ignore patterns",
		zap.String("file", ignoreFile),
		zap.Int("totalPatterns", gi.Len()),
		zap.Strings("patterns", gi.Patterns()))

	preamble := DefaultPreamble
	if args.PreambleFile != "" {
		data, err := afero.ReadFile(fs, args.PreambleFile)
		if err != nil {
			logger.Error("Failed to read preamble file", zap.String("file", args.PreambleFile), zap.Error(err))
			return "", errors.WithStackTraceAndPrefix(err, "failed to read preamble file %s", args.PreambleFile)
		}
		preamble = string(data)
	}

	files, err := CollectFiles(fs, root, gi, []string{output, args.Tree}, logger)
	if err != nil {
		return "", errors.WithStackTraceAndPrefix(err, "failed to collect files")
	}

	if err := writeDocument(fs, output, preamble, root, files, args.MaxFileSizeKB, logger); err != nil {
		return "", err
	}

	if args.Tree != "" {
		if err := WriteTree(fs, args.Tree, root, files, logger); err != nil {
			return "", err
		}
	}

	logger.Info("Combination process completed",
		zap.String("outputFile", output),
		zap.Int("totalFiles", len(files)),
		zap.Duration("elapsed", time.Since(startTime)))
	return output, nil
}

func writeDocument(fs afero.Fs, output, preamble, root string, files []string, maxFileSizeKB int, logger *zap.Logger) error {
	doc, err := CreateDocument(fs, output, logger)
	if err != nil {
		return err
	}

	if err := doc.WritePreamble(preamble); err != nil {
		doc.Close()
		return err
	}

	processor := NewFileProcessor(fs, root, maxFileSizeKB, logger)
	binaries := 0
	for _, file := range files {
		rec := processor.ProcessSingleFile(file)
		if rec.Kind == Binary {
			binaries++
		}
		if err := doc.WriteRecord(rec); err != nil {
			doc.Close()
			return err
		}
	}

	if err := doc.Close(); err != nil {
		return err
	}

	if err := AppendTerminator(fs, output, logger); err != nil {
		return err
	}

	logger.Debug("Wrote output document",
		zap.String("file", output),
		zap.Int("records", doc.Records()),
		zap.Int("binaryRecords", binaries))
	return nil
}
