// File: pkg/combine/writer.go
package combine

import (
	"bufio"
	"os"

	"gptloader/pkg/errors"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DocumentWriter writes the body of an output document: the preamble followed by one
// record per file. The terminator is appended separately by AppendTerminator once the
// body has been closed.
type DocumentWriter struct {
	path    string
	file    afero.File
	writer  *bufio.Writer
	records int
	logger  *zap.Logger
}

// CreateDocument truncates or creates the document at path.
func CreateDocument(fs afero.Fs, path string, logger *zap.Logger) (*DocumentWriter, error) {
	file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", path), zap.Error(err))
		return nil, errors.WithStackTraceAndPrefix(err, "failed to create output file %s", path)
	}

	logger.Debug("Created output file", zap.String("file", path))
	return &DocumentWriter{
		path:   path,
		file:   file,
		writer: bufio.NewWriter(file),
		logger: logger,
	}, nil
}

// WritePreamble writes text followed by a newline.
func (d *DocumentWriter) WritePreamble(text string) error {
	if _, err := d.writer.WriteString(text + "\n"); err != nil {
		d.logger.Error("Failed to write preamble", zap.String("file", d.path), zap.Error(err))
		return errors.WithStackTraceAndPrefix(err, "failed to write preamble")
	}
	return nil
}

// WriteRecord writes one framed record.
func (d *DocumentWriter) WriteRecord(rec FileRecord) error {
	if _, err := d.writer.WriteString(rec.Format()); err != nil {
		d.logger.Error("Failed to write record",
			zap.String("file", d.path),
			zap.String("contentPath", rec.Path),
			zap.Error(err))
		return errors.WithStackTraceAndPrefix(err, "failed to write record for %s", rec.Path)
	}
	d.records++
	d.logger.Debug("Wrote record",
		zap.String("contentPath", rec.Path),
		zap.Stringer("kind", rec.Kind),
		zap.String("charset", rec.Charset))
	return nil
}

// Records returns the number of records written so far.
func (d *DocumentWriter) Records() int {
	return d.records
}

// Close flushes and closes the document.
func (d *DocumentWriter) Close() error {
	if err := d.writer.Flush(); err != nil {
		d.logger.Error("Failed to flush output file", zap.String("file", d.path), zap.Error(err))
		d.file.Close()
		return errors.WithStackTraceAndPrefix(err, "failed to flush output")
	}
	if err := d.file.Close(); err != nil {
		d.logger.Error("Failed to close output file", zap.String("file", d.path), zap.Error(err))
		return errors.WithStackTraceAndPrefix(err, "failed to close output")
	}
	return nil
}

// AppendTerminator reopens the document in append mode and writes Terminator with no
// trailing newline.
func AppendTerminator(fs afero.Fs, path string, logger *zap.Logger) error {
	file, err := fs.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.Error("Failed to reopen output file", zap.String("file", path), zap.Error(err))
		return errors.WithStackTraceAndPrefix(err, "failed to reopen output file %s", path)
	}

	if _, err := file.WriteString(Terminator); err != nil {
		file.Close()
		logger.Error("Failed to write terminator", zap.String("file", path), zap.Error(err))
		return errors.WithStackTraceAndPrefix(err, "failed to write terminator")
	}

	if err := file.Close(); err != nil {
		return errors.WithStackTraceAndPrefix(err, "failed to close output file %s", path)
	}
	return nil
}
