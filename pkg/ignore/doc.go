// Package ignore loads .gptignore files and matches relative paths against their
// patterns.
//
// Patterns use shell-glob semantics over the whole relative path string, not gitignore
// semantics: "*" also matches path separators, so "docs/*" ignores every file below
// docs at any depth, and "*.png" ignores PNG files in every directory. Patterns are
// not anchored to a directory and there is no negation.
package ignore
