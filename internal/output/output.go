// Package output renders entry trees as tree art and encodes them for export.
package output

import (
	"fmt"
	"io"

	"github.com/temirov/fsviz/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
	simpleLineMarker    = "- "

	directorySuffix  = "/"
	symlinkSeparator = " -> "
)

// RenderOptions controls tree-art rendering.
type RenderOptions struct {
	// Simple renders a flat dash list instead of box-drawing connectors.
	Simple bool
	// Palette decorates directory and link names. The zero value leaves names undecorated.
	Palette Palette
}

// RenderTreeLines returns one display line per entry in depth-first order.
func RenderTreeLines(entries []types.Entry, options RenderOptions) []string {
	lines := make([]string, 0, countEntries(entries))
	renderEntries(&lines, entries, "", options)
	return lines
}

// WriteTreeRaw renders the tree to the provided writer, one line per entry.
func WriteTreeRaw(writer io.Writer, entries []types.Entry, options RenderOptions) error {
	for _, line := range RenderTreeLines(entries, options) {
		if _, writeError := fmt.Fprintln(writer, line); writeError != nil {
			return writeError
		}
	}
	return nil
}

func renderEntries(lines *[]string, entries []types.Entry, prefix string, options RenderOptions) {
	for index, entry := range entries {
		linePrefix, childPrefix := treeNodeLinePrefix(prefix, index == len(entries)-1, options.Simple)
		*lines = append(*lines, linePrefix+entryLabel(entry, options.Palette))
		if directory, isDirectory := entry.(*types.Directory); isDirectory {
			renderEntries(lines, directory.Children, childPrefix, options)
		}
	}
}

// treeNodeLinePrefix returns the prefix for the entry line and the prefix inherited by its children.
func treeNodeLinePrefix(prefix string, isLast bool, simple bool) (string, string) {
	if simple {
		return simpleLineMarker, ""
	}
	if isLast {
		return prefix + treeLastConnector, prefix + treeLastPadding
	}
	return prefix + treeBranchConnector, prefix + treeBranchPadding
}

func entryLabel(entry types.Entry, palette Palette) string {
	switch typedEntry := entry.(type) {
	case *types.Directory:
		return palette.directory(typedEntry.Name) + directorySuffix
	case *types.Symlink:
		return palette.symlink(typedEntry.Name) + symlinkSeparator + typedEntry.Target
	default:
		return entry.EntryName()
	}
}

func countEntries(entries []types.Entry) int {
	total := len(entries)
	for _, entry := range entries {
		if directory, isDirectory := entry.(*types.Directory); isDirectory {
			total += countEntries(directory.Children)
		}
	}
	return total
}
