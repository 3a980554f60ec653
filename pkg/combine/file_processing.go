// File: pkg/combine/file_processing.go
package combine

import (
	"path/filepath"

	"gptloader/pkg/charset"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileProcessor classifies files and produces their records.
type FileProcessor struct {
	fs            afero.Fs
	root          string
	maxFileSizeKB int
	decoder       *charset.Decoder
	logger        *zap.Logger
}

// NewFileProcessor returns a FileProcessor for files under root.
func NewFileProcessor(fs afero.Fs, root string, maxFileSizeKB int, logger *zap.Logger) *FileProcessor {
	return &FileProcessor{
		fs:            fs,
		root:          root,
		maxFileSizeKB: maxFileSizeKB,
		decoder:       charset.NewDecoder(),
		logger:        logger,
	}
}

// ProcessSingleFile builds the record for filePath. It never fails: a file that cannot be
// read, exceeds the size limit, or has no usable encoding becomes a Binary record. The
// decoded text of a Text record is the one written to the document.
func (p *FileProcessor) ProcessSingleFile(filePath string) FileRecord {
	relPath, err := filepath.Rel(p.root, filePath)
	if err != nil {
		p.logger.Warn("Unable to determine relative path, using full path",
			zap.String("filePath", filePath),
			zap.Error(err))
		relPath = filePath
	}

	binary := FileRecord{Path: relPath, Kind: Binary}

	if p.maxFileSizeKB > 0 {
		info, err := p.fs.Stat(filePath)
		if err != nil {
			p.logger.Warn("Failed to stat file", zap.String("filePath", filePath), zap.Error(err))
			return binary
		}
		if info.Size() > int64(p.maxFileSizeKB)*1024 {
			p.logger.Debug("File exceeds size limit, contents omitted",
				zap.String("filePath", filePath),
				zap.Int64("sizeBytes", info.Size()),
				zap.Int("maxSizeKB", p.maxFileSizeKB))
			return binary
		}
	}

	data, err := afero.ReadFile(p.fs, filePath)
	if err != nil {
		p.logger.Warn("Failed to read file", zap.String("filePath", filePath), zap.Error(err))
		return binary
	}

	res, err := p.decoder.Decode(data)
	if err != nil {
		p.logger.Debug("No usable text encoding", zap.String("filePath", filePath))
		return binary
	}

	p.logger.Debug("Decoded file",
		zap.String("filePath", filePath),
		zap.String("charset", res.Charset),
		zap.Int("confidence", res.Confidence),
		zap.Int("contentSizeBytes", len(data)))

	return FileRecord{
		Path:    relPath,
		Kind:    Text,
		Content: res.Text,
		Charset: res.Charset,
	}
}
