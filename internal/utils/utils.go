// Package utils contains general helper functions used across the fsviz tool.
package utils

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	// CurrentDirectoryName is the self reference returned by directory listings on some platforms.
	CurrentDirectoryName = "."
	// ParentDirectoryName is the parent reference returned by directory listings on some platforms.
	ParentDirectoryName = ".."

	// JSONExtension is appended to JSON export file names.
	JSONExtension = ".json"
	// CSVExtension is appended to CSV export file names.
	CSVExtension = ".csv"
	// YAMLExtension is appended to YAML export file names.
	YAMLExtension = ".yaml"
	// YMLExtension is accepted in place of YAMLExtension.
	YMLExtension = ".yml"

	// OutputFilePermissions is the mode used when writing output files.
	OutputFilePermissions os.FileMode = 0o644
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// IsSelfOrParentName reports whether a listing name refers to the directory itself or its parent.
func IsSelfOrParentName(name string) bool {
	return name == CurrentDirectoryName || name == ParentDirectoryName
}

// JoinRelativePath joins a slash-separated parent path with a child name.
// An empty parent denotes the traversal root.
func JoinRelativePath(parentPath, name string) string {
	if parentPath == "" || parentPath == CurrentDirectoryName {
		return name
	}
	return path.Join(parentPath, name)
}

// RelativeDepth returns the number of segments in a slash-separated relative path.
func RelativeDepth(relativePath string) int {
	if relativePath == "" || relativePath == CurrentDirectoryName {
		return 0
	}
	return strings.Count(relativePath, "/") + 1
}

// EnsureExtension appends extension to fileName unless fileName already ends with one of
// the accepted extensions (compared case-insensitively). The first accepted
// extension is used when none is supplied.
func EnsureExtension(fileName, extension string, alternatives ...string) string {
	lowerExtension := strings.ToLower(filepath.Ext(fileName))
	if lowerExtension == strings.ToLower(extension) {
		return fileName
	}
	for _, alternative := range alternatives {
		if lowerExtension == strings.ToLower(alternative) {
			return fileName
		}
	}
	return fileName + extension
}

// StripDecoration removes ANSI escape sequences from text destined for files or the clipboard.
func StripDecoration(text string) string {
	return ansi.Strip(text)
}
