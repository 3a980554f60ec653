package ignore

import (
	"bufio"
	"bytes"
	"os"
	"regexp"
	"strings"

	"gptloader/pkg/errors"
	"gptloader/pkg/logging"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultFileName is the ignore file looked up in the scan root and next to the program.
const DefaultFileName = ".gptignore"

// Pattern is one compiled line of an ignore file.
type Pattern struct {
	Regexp *regexp.Regexp // Anchored expression matching the whole relative path.
	Line   string         // Pattern as used for matching, after separator rewriting.
	LineNo int            // Line number in the source (1-based).
}

// List is an ordered set of glob patterns. A path is ignored when any pattern matches it.
type List struct {
	patterns        []*Pattern
	separator       byte
	caseInsensitive bool
	logger          *zap.Logger
}

// Option configures a List.
type Option func(*List)

// WithSeparator sets the host path separator. With '\\' forward slashes in patterns are
// rewritten to backslashes and matching becomes case-insensitive.
func WithSeparator(sep byte) Option {
	return func(l *List) {
		l.separator = sep
		l.caseInsensitive = sep == '\\'
	}
}

// New returns an empty List for the host path separator.
func New(logger *zap.Logger, opts ...Option) *List {
	l := &List{
		separator: os.PathSeparator,
		logger:    logging.OrNop(logger),
	}
	l.caseInsensitive = l.separator == '\\'
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads patterns from the first candidate file that exists. Missing candidates are
// skipped; when none exists the returned List is empty. The path of the file that was
// read is returned, or "" when none was.
func Load(fs afero.Fs, candidates []string, logger *zap.Logger, opts ...Option) (*List, string, error) {
	l := New(logger, opts...)

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}

		if _, err := fs.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				l.logger.Debug("Ignore file does not exist", zap.String("filePath", candidate))
				continue
			}
			l.logger.Error("Failed to stat ignore file", zap.String("filePath", candidate), zap.Error(err))
			return nil, "", errors.WithStackTraceAndPrefix(err, "failed to stat ignore file %s", candidate)
		}

		if err := l.CompileFile(fs, candidate); err != nil {
			return nil, "", err
		}
		return l, candidate, nil
	}

	l.logger.Debug("No ignore file found, nothing will be filtered", zap.Strings("candidates", candidates))
	return l, "", nil
}

// CompileFile reads an ignore file and adds one pattern per line.
func (l *List) CompileFile(fs afero.Fs, filePath string) error {
	content, err := afero.ReadFile(fs, filePath)
	if err != nil {
		l.logger.Error("Failed to read ignore file", zap.String("filePath", filePath), zap.Error(err))
		return errors.WithStackTraceAndPrefix(err, "failed to read ignore file %s", filePath)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.WithStackTraceAndPrefix(err, "failed to scan ignore file %s", filePath)
	}

	before := len(l.patterns)
	l.CompileLines(lines...)
	l.logger.Info("Compiled ignore patterns",
		zap.String("filePath", filePath),
		zap.Int("lineCount", len(lines)),
		zap.Int("patternCount", len(l.patterns)-before))
	return nil
}

// CompileLines adds patterns from raw ignore-file lines. Blank lines and lines starting
// with '#' are skipped.
func (l *List) CompileLines(lines ...string) {
	for i, line := range lines {
		line = strings.TrimRightFunc(line, isSpace)
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if l.separator == '\\' {
			line = strings.ReplaceAll(line, "/", `\`)
		}

		expr := Translate(line)
		if l.caseInsensitive {
			expr = "(?i)" + expr
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			l.logger.Error("Invalid ignore pattern",
				zap.String("pattern", line),
				zap.Int("lineNo", i+1),
				zap.Error(err))
			continue
		}

		l.patterns = append(l.patterns, &Pattern{Regexp: re, Line: line, LineNo: i + 1})
		l.logger.Debug("Compiled ignore pattern", zap.Int("lineNo", i+1), zap.String("pattern", line))
	}
}

// Len returns the number of compiled patterns.
func (l *List) Len() int {
	return len(l.patterns)
}

// Patterns returns the pattern lines in load order.
func (l *List) Patterns() []string {
	out := make([]string, 0, len(l.patterns))
	for _, p := range l.patterns {
		out = append(out, p.Line)
	}
	return out
}

// MatchesPath reports whether relPath matches any pattern.
func (l *List) MatchesPath(relPath string) bool {
	matched, _ := l.MatchesPathWithPattern(relPath)
	return matched
}

// MatchesPathWithPattern reports whether relPath matches any pattern and returns the
// first pattern that did.
func (l *List) MatchesPathWithPattern(relPath string) (bool, *Pattern) {
	for _, p := range l.patterns {
		if p.Regexp.MatchString(relPath) {
			l.logger.Debug("Path matches ignore pattern",
				zap.String("path", relPath),
				zap.String("pattern", p.Line))
			return true, p
		}
	}
	return false, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
