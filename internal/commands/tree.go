// Package commands contains the core logic for data collection for each command.
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/temirov/fsviz/internal/types"
	"github.com/temirov/fsviz/internal/utils"
)

var (
	// ErrRootNotDirectory is returned when the traversal root is not a directory.
	ErrRootNotDirectory = errors.New("root path is not a directory")
	// ErrDirectoryRevisited is reported when a directory is reached a second time.
	ErrDirectoryRevisited = errors.New("directory already visited")
)

const (
	// warningSkipDirectoryMessage is used when a directory cannot be listed.
	warningSkipDirectoryMessage = "skipping unreadable directory"
	// warningStatEntryMessage is used when an entry vanished or cannot be inspected.
	warningStatEntryMessage = "skipping entry that could not be inspected"
	// warningReadLinkMessage is used when a symbolic link cannot be read.
	warningReadLinkMessage = "symbolic link target could not be read"
	debugDanglingLinkMessage = "symbolic link target does not resolve"
	debugIgnoredEntryMessage = "entry excluded by ignore pattern"
	debugDepthLimitMessage   = "depth limit reached, directory contents not listed"

	logFieldPath  = "path"
	logFieldDepth = "depth"

	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	// errorStatRootFormat is used when the root cannot be inspected.
	errorStatRootFormat = "inspecting root %s: %w"
	// errorRootNotDirectoryFormat wraps ErrRootNotDirectory with the offending path.
	errorRootNotDirectoryFormat = "%w: %s"
	// errorReadDirectoryFormat is used when a directory cannot be read.
	errorReadDirectoryFormat = "reading directory %s: %w"
	// errorRevisitedDirectoryFormat wraps ErrDirectoryRevisited with the canonical path.
	errorRevisitedDirectoryFormat = "%w: %s"
)

// walkState carries per-call traversal bookkeeping.
type walkState struct {
	logger   *zap.Logger
	maxDepth int
	visited  map[string]struct{}
}

// GetTreeData walks the directory at rootDirectoryPath and returns its contents
// as an ordered sequence of entries. The root itself is not represented.
// Only a missing or non-directory root is an error; every other failure is
// logged and the affected node is omitted.
func (treeBuilder *TreeBuilder) GetTreeData(rootDirectoryPath string) ([]types.Entry, error) {
	absoluteRootDirPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, rootDirectoryPath, absolutePathError)
	}
	rootInfo, rootStatError := os.Stat(absoluteRootDirPath)
	if rootStatError != nil {
		return nil, fmt.Errorf(errorStatRootFormat, rootDirectoryPath, rootStatError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorRootNotDirectoryFormat, ErrRootNotDirectory, rootDirectoryPath)
	}

	maxDepth := treeBuilder.MaxDepth
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	state := &walkState{
		logger:   utils.LoggerOrNop(treeBuilder.Logger),
		maxDepth: maxDepth,
		visited:  make(map[string]struct{}),
	}

	entries, buildError := treeBuilder.buildEntries(state, absoluteRootDirPath, "")
	if buildError != nil {
		state.logger.Warn(warningSkipDirectoryMessage, zap.String(logFieldPath, absoluteRootDirPath), zap.Error(buildError))
		return []types.Entry{}, nil
	}
	return entries, nil
}

// buildEntries lists one directory and returns its children, directories first.
func (treeBuilder *TreeBuilder) buildEntries(state *walkState, directoryPath string, relativeDirectoryPath string) ([]types.Entry, error) {
	canonicalPath := canonicalDirectoryPath(directoryPath)
	if _, visited := state.visited[canonicalPath]; visited {
		return nil, fmt.Errorf(errorRevisitedDirectoryFormat, ErrDirectoryRevisited, canonicalPath)
	}
	state.visited[canonicalPath] = struct{}{}

	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return nil, fmt.Errorf(errorReadDirectoryFormat, directoryPath, readDirectoryError)
	}

	names := make([]string, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		names = append(names, directoryEntry.Name())
	}
	sort.Strings(names)

	directories := make([]types.Entry, 0, len(names))
	others := make([]types.Entry, 0, len(names))
	for _, name := range names {
		if utils.IsSelfOrParentName(name) {
			continue
		}
		childRelativePath := utils.JoinRelativePath(relativeDirectoryPath, name)
		if treeBuilder.Matcher != nil && treeBuilder.Matcher.Matches(childRelativePath) {
			state.logger.Debug(debugIgnoredEntryMessage, zap.String(logFieldPath, childRelativePath))
			continue
		}

		childPath := filepath.Join(directoryPath, name)
		childInfo, lstatError := os.Lstat(childPath)
		if lstatError != nil {
			state.logger.Warn(warningStatEntryMessage, zap.String(logFieldPath, childPath), zap.Error(lstatError))
			continue
		}

		childMode := childInfo.Mode()
		switch {
		case childMode&os.ModeSymlink != 0:
			if treeBuilder.DirectoriesOnly {
				continue
			}
			target := resolveLinkTarget(state.logger, childPath)
			others = append(others, types.NewSymlink(name, childRelativePath, target))
		case childMode.IsDir():
			directory, included := treeBuilder.buildDirectory(state, childPath, childRelativePath, name)
			if included {
				directories = append(directories, directory)
			}
		default:
			if treeBuilder.DirectoriesOnly {
				continue
			}
			others = append(others, types.NewFile(name, childRelativePath))
		}
	}

	return append(directories, others...), nil
}

// buildDirectory returns the directory entry for childPath, or false when it must be omitted.
func (treeBuilder *TreeBuilder) buildDirectory(state *walkState, childPath string, childRelativePath string, name string) (*types.Directory, bool) {
	depth := utils.RelativeDepth(childRelativePath)
	if depth >= state.maxDepth {
		state.logger.Debug(debugDepthLimitMessage, zap.String(logFieldPath, childRelativePath), zap.Int(logFieldDepth, depth))
		return types.NewDirectory(name, childRelativePath, nil), true
	}

	children, buildError := treeBuilder.buildEntries(state, childPath, childRelativePath)
	if buildError != nil {
		state.logger.Warn(warningSkipDirectoryMessage, zap.String(logFieldPath, childPath), zap.Error(buildError))
		return nil, false
	}
	return types.NewDirectory(name, childRelativePath, children), true
}

// resolveLinkTarget reads a link without following it. Links that cannot be
// read, or whose target does not exist, resolve to types.UnresolvedTarget.
func resolveLinkTarget(logger *zap.Logger, linkPath string) string {
	target, readLinkError := os.Readlink(linkPath)
	if readLinkError != nil {
		logger.Warn(warningReadLinkMessage, zap.String(logFieldPath, linkPath), zap.Error(readLinkError))
		return types.UnresolvedTarget
	}
	if _, statError := os.Stat(linkPath); statError != nil {
		logger.Debug(debugDanglingLinkMessage, zap.String(logFieldPath, linkPath), zap.Error(statError))
		return types.UnresolvedTarget
	}
	return target
}

// canonicalDirectoryPath resolves symbolic links in directoryPath so that the
// same directory reached by different spellings shares one visited key.
func canonicalDirectoryPath(directoryPath string) string {
	resolvedPath, evalError := filepath.EvalSymlinks(directoryPath)
	if evalError != nil {
		return filepath.Clean(directoryPath)
	}
	return resolvedPath
}
