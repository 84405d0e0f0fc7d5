package commands

import (
	"go.uber.org/zap"
)

// DefaultMaxDepth bounds recursion when no depth is configured.
const DefaultMaxDepth = 10

// PathMatcher decides whether a root-relative path is excluded from the walk.
// *glob.Matcher satisfies it.
type PathMatcher interface {
	Matches(relativePath string) bool
}

// TreeBuilder builds directory tree entries using configured options.
type TreeBuilder struct {
	// Matcher excludes entries by root-relative path. Nil excludes nothing.
	Matcher PathMatcher
	// DirectoriesOnly drops every entry that is not a directory, symbolic links included.
	DirectoriesOnly bool
	// MaxDepth is the deepest entry level included; values below one use DefaultMaxDepth.
	MaxDepth int
	// Logger receives per-node diagnostics. Nil discards them.
	Logger *zap.Logger
}
