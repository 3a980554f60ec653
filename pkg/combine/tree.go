// File: pkg/combine/tree.go
package combine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gptloader/pkg/errors"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type treeNode struct {
	name     string
	children map[string]*treeNode
}

func (n *treeNode) isDir() bool {
	return n.children != nil
}

// GenerateTree renders the relative paths as a directory tree rooted at rootName.
// Directories are listed before files and both are sorted case-insensitively, so only
// directories holding at least one of the paths appear.
func GenerateTree(rootName string, relPaths []string) string {
	root := &treeNode{name: rootName, children: map[string]*treeNode{}}

	for _, relPath := range relPaths {
		node := root
		parts := strings.Split(filepath.ToSlash(relPath), "/")
		for i, part := range parts {
			child, ok := node.children[part]
			if !ok {
				child = &treeNode{name: part}
				if i < len(parts)-1 {
					child.children = map[string]*treeNode{}
				}
				node.children[part] = child
			}
			node = child
		}
	}

	var tree strings.Builder
	tree.WriteString(fmt.Sprintf("%s/\n", rootName))
	writeTreeRecursively(&tree, root, "")
	return tree.String()
}

func writeTreeRecursively(tree *strings.Builder, node *treeNode, prefix string) {
	entries := make([]*treeNode, 0, len(node.children))
	for _, child := range node.children {
		entries = append(entries, child)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].isDir() != entries[j].isDir() {
			return entries[i].isDir()
		}
		return strings.ToLower(entries[i].name) < strings.ToLower(entries[j].name)
	})

	for i, entry := range entries {
		connector := "├── "
		extension := "│   "
		if i == len(entries)-1 {
			connector = "└── "
			extension = "    "
		}

		if entry.isDir() {
			tree.WriteString(fmt.Sprintf("%s%s%s/\n", prefix, connector, entry.name))
			writeTreeRecursively(tree, entry, prefix+extension)
		} else {
			tree.WriteString(fmt.Sprintf("%s%s%s\n", prefix, connector, entry.name))
		}
	}
}

// WriteTree writes the tree of files under root to outputPath.
func WriteTree(fs afero.Fs, outputPath, root string, files []string, logger *zap.Logger) error {
	relPaths := make([]string, 0, len(files))
	for _, file := range files {
		relPath, err := filepath.Rel(root, file)
		if err != nil {
			continue
		}
		relPaths = append(relPaths, relPath)
	}

	content := GenerateTree(filepath.Base(root), relPaths)
	if err := afero.WriteFile(fs, outputPath, []byte(content), 0644); err != nil {
		logger.Error("Failed to write tree structure", zap.String("file", outputPath), zap.Error(err))
		return errors.WithStackTraceAndPrefix(err, "failed to write tree structure to %s", outputPath)
	}

	logger.Debug("Wrote tree structure", zap.String("file", outputPath), zap.Int("files", len(relPaths)))
	return nil
}
