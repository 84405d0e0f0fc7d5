package commands_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/fsviz/internal/commands"
	"github.com/temirov/fsviz/internal/glob"
	"github.com/temirov/fsviz/internal/types"
)

const (
	textFileName     = "file1.txt"
	secondFileName   = "file2.txt"
	directoryName    = "subdir"
	secondDirName    = "subdir2"
	linkName         = "symlink"
	missingTargetRef = "missing.txt"
)

func writeTestFile(testingHandle *testing.T, filePath string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte("x"), 0o644); writeError != nil {
		testingHandle.Fatalf("write %s: %v", filePath, writeError)
	}
}

func makeTestDirectory(testingHandle *testing.T, directoryPath string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(directoryPath, 0o755); makeDirError != nil {
		testingHandle.Fatalf("mkdir %s: %v", directoryPath, makeDirError)
	}
}

func makeTestSymlink(testingHandle *testing.T, target string, linkPath string) {
	testingHandle.Helper()
	if runtime.GOOS == "windows" {
		testingHandle.Skip("symbolic links require elevated privileges on windows")
	}
	if symlinkError := os.Symlink(target, linkPath); symlinkError != nil {
		testingHandle.Skipf("symlink unsupported: %v", symlinkError)
	}
}

func entryNames(entries []types.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.EntryName())
	}
	return names
}

func observedBuilder(level zapcore.Level) (*commands.TreeBuilder, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &commands.TreeBuilder{Logger: zap.New(core)}, logs
}

// TestGetTreeDataOrdersDirectoriesFirst verifies name sorting and directory partitioning.
func TestGetTreeDataOrdersDirectoriesFirst(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, secondFileName))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, secondDirName))
	makeTestSymlink(testingHandle, textFileName, filepath.Join(rootDirectory, linkName))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, textFileName))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, directoryName))

	treeBuilder := &commands.TreeBuilder{}
	entries, treeError := treeBuilder.GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}

	expected := []string{directoryName, secondDirName, textFileName, secondFileName, linkName}
	actual := entryNames(entries)
	if strings.Join(actual, ",") != strings.Join(expected, ",") {
		testingHandle.Fatalf("expected order %v, got %v", expected, actual)
	}
	link, isLink := entries[4].(*types.Symlink)
	if !isLink {
		testingHandle.Fatalf("expected symlink entry, got %T", entries[4])
	}
	if link.Target != textFileName {
		testingHandle.Fatalf("expected target %q, got %q", textFileName, link.Target)
	}
}

// TestGetTreeDataEmptyDirectory verifies empty directories have an empty, non-nil child list.
func TestGetTreeDataEmptyDirectory(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, directoryName))

	entries, treeError := (&commands.TreeBuilder{}).GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	if len(entries) != 1 {
		testingHandle.Fatalf("expected 1 entry, got %d", len(entries))
	}
	directory, isDirectory := entries[0].(*types.Directory)
	if !isDirectory {
		testingHandle.Fatalf("expected directory, got %T", entries[0])
	}
	if directory.Children == nil || len(directory.Children) != 0 {
		testingHandle.Fatalf("expected empty non-nil children, got %#v", directory.Children)
	}

	emptyRootEntries, emptyRootError := (&commands.TreeBuilder{}).GetTreeData(filepath.Join(rootDirectory, directoryName))
	if emptyRootError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", emptyRootError)
	}
	if emptyRootEntries == nil || len(emptyRootEntries) != 0 {
		testingHandle.Fatalf("expected empty non-nil root sequence, got %#v", emptyRootEntries)
	}
}

// TestGetTreeDataRelativePaths verifies each path equals its parent's path joined with its name.
func TestGetTreeDataRelativePaths(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, directoryName, "inner")
	makeTestDirectory(testingHandle, nestedDirectory)
	writeTestFile(testingHandle, filepath.Join(nestedDirectory, textFileName))

	entries, treeError := (&commands.TreeBuilder{}).GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	outer := entries[0].(*types.Directory)
	inner := outer.Children[0].(*types.Directory)
	file := inner.Children[0]
	if outer.Path != directoryName || inner.Path != directoryName+"/inner" || file.EntryPath() != directoryName+"/inner/"+textFileName {
		testingHandle.Fatalf("unexpected paths: %s, %s, %s", outer.Path, inner.Path, file.EntryPath())
	}
}

// TestGetTreeDataDanglingSymlink verifies a broken link yields the unresolved sentinel without aborting.
func TestGetTreeDataDanglingSymlink(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	targetPath := filepath.Join(rootDirectory, missingTargetRef)
	writeTestFile(testingHandle, targetPath)
	makeTestSymlink(testingHandle, missingTargetRef, filepath.Join(rootDirectory, linkName))
	if removeError := os.Remove(targetPath); removeError != nil {
		testingHandle.Fatalf("remove target: %v", removeError)
	}
	writeTestFile(testingHandle, filepath.Join(rootDirectory, textFileName))

	entries, treeError := (&commands.TreeBuilder{}).GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	if len(entries) != 2 {
		testingHandle.Fatalf("expected 2 entries, got %v", entryNames(entries))
	}
	link, isLink := entries[1].(*types.Symlink)
	if !isLink {
		testingHandle.Fatalf("expected symlink entry, got %T", entries[1])
	}
	if link.Target != types.UnresolvedTarget {
		testingHandle.Fatalf("expected unresolved target, got %q", link.Target)
	}
}

// TestGetTreeDataDoesNotFollowDirectoryLinks verifies linked directories are leaves, preventing cycles.
func TestGetTreeDataDoesNotFollowDirectoryLinks(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	loopDirectory := filepath.Join(rootDirectory, directoryName)
	makeTestDirectory(testingHandle, loopDirectory)
	makeTestSymlink(testingHandle, "..", filepath.Join(loopDirectory, "parent"))

	entries, treeError := (&commands.TreeBuilder{}).GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	directory := entries[0].(*types.Directory)
	if len(directory.Children) != 1 {
		testingHandle.Fatalf("expected a single child, got %v", entryNames(directory.Children))
	}
	if directory.Children[0].Kind() != types.KindSymlink {
		testingHandle.Fatalf("expected symlink kind, got %s", directory.Children[0].Kind())
	}
}

// TestGetTreeDataDirectoriesOnly verifies files and links are dropped recursively.
func TestGetTreeDataDirectoriesOnly(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, directoryName, "nested"))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, secondDirName))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, textFileName))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, secondFileName))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "file3.txt"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, directoryName, "inside.txt"))

	treeBuilder := &commands.TreeBuilder{DirectoriesOnly: true}
	entries, treeError := treeBuilder.GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	if got := strings.Join(entryNames(entries), ","); got != directoryName+","+secondDirName {
		testingHandle.Fatalf("unexpected entries: %s", got)
	}
	first := entries[0].(*types.Directory)
	if got := strings.Join(entryNames(first.Children), ","); got != "nested" {
		testingHandle.Fatalf("unexpected nested entries: %s", got)
	}
}

// TestGetTreeDataIgnorePatterns verifies root-relative matching and pruning of ignored directories.
func TestGetTreeDataIgnorePatterns(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "src", "lib"))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "node_modules", "pkg"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "src", "index.js"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "src", "index.ts"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "src", "lib", "util.js"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "app.js"))

	treeBuilder := &commands.TreeBuilder{Matcher: glob.MustCompile("src/**/*.js,node_modules")}
	entries, treeError := treeBuilder.GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	if got := strings.Join(entryNames(entries), ","); got != "src,app.js" {
		testingHandle.Fatalf("unexpected root entries: %s", got)
	}
	source := entries[0].(*types.Directory)
	if got := strings.Join(entryNames(source.Children), ","); got != "lib,index.ts" {
		testingHandle.Fatalf("unexpected src entries: %s", got)
	}
	library := source.Children[0].(*types.Directory)
	if len(library.Children) != 0 {
		testingHandle.Fatalf("expected src/lib to be empty, got %v", entryNames(library.Children))
	}
}

// TestGetTreeDataDepthBound verifies deep chains are truncated at the configured depth.
func TestGetTreeDataDepthBound(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	chainPath := rootDirectory
	for level := 0; level < 15; level++ {
		chainPath = filepath.Join(chainPath, "d")
	}
	makeTestDirectory(testingHandle, chainPath)

	treeBuilder, logs := observedBuilder(zapcore.DebugLevel)
	treeBuilder.MaxDepth = 3
	entries, treeError := treeBuilder.GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}

	depth := 0
	current := entries
	for len(current) > 0 {
		directory, isDirectory := current[0].(*types.Directory)
		if !isDirectory {
			testingHandle.Fatalf("expected directory at depth %d", depth+1)
		}
		depth++
		current = directory.Children
	}
	if depth != 3 {
		testingHandle.Fatalf("expected chain truncated at depth 3, got %d", depth)
	}
	if logs.FilterMessageSnippet("depth limit").Len() != 1 {
		testingHandle.Fatalf("expected one depth limit diagnostic, got %d", logs.FilterMessageSnippet("depth limit").Len())
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 0 {
		testingHandle.Fatalf("depth truncation must not warn")
	}
}

// TestGetTreeDataDefaultDepth verifies the default bound applies when MaxDepth is unset.
func TestGetTreeDataDefaultDepth(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	chainPath := rootDirectory
	for level := 0; level < commands.DefaultMaxDepth+5; level++ {
		chainPath = filepath.Join(chainPath, "d")
	}
	makeTestDirectory(testingHandle, chainPath)

	entries, treeError := (&commands.TreeBuilder{}).GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	depth := 0
	for current := entries; len(current) > 0; current = current[0].(*types.Directory).Children {
		depth++
	}
	if depth != commands.DefaultMaxDepth {
		testingHandle.Fatalf("expected depth %d, got %d", commands.DefaultMaxDepth, depth)
	}
}

// TestGetTreeDataUnreadableDirectory verifies unreadable directories are logged and omitted.
func TestGetTreeDataUnreadableDirectory(testingHandle *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		testingHandle.Skip("permission bits are not enforced for this user")
	}
	rootDirectory := testingHandle.TempDir()
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	makeTestDirectory(testingHandle, lockedDirectory)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, textFileName))
	if chmodError := os.Chmod(lockedDirectory, 0o000); chmodError != nil {
		testingHandle.Fatalf("chmod: %v", chmodError)
	}
	testingHandle.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	treeBuilder, logs := observedBuilder(zapcore.WarnLevel)
	entries, treeError := treeBuilder.GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	if got := strings.Join(entryNames(entries), ","); got != textFileName {
		testingHandle.Fatalf("expected locked directory omitted, got %s", got)
	}
	if logs.Len() != 1 {
		testingHandle.Fatalf("expected one warning, got %d", logs.Len())
	}
}

// removingMatcher deletes the named entries from disk when the walker asks about them,
// simulating nodes that disappear between listing and inspection.
type removingMatcher struct {
	testingHandle *testing.T
	rootDirectory string
	removedPaths  map[string]bool
}

func (matcher *removingMatcher) Matches(relativePath string) bool {
	if _, tracked := matcher.removedPaths[relativePath]; tracked {
		if removeError := os.RemoveAll(filepath.Join(matcher.rootDirectory, filepath.FromSlash(relativePath))); removeError != nil {
			matcher.testingHandle.Fatalf("remove %s: %v", relativePath, removeError)
		}
		matcher.removedPaths[relativePath] = true
	}
	return false
}

// TestGetTreeDataSkipsVanishedEntries verifies entries removed mid-walk are logged and omitted.
func TestGetTreeDataSkipsVanishedEntries(testingHandle *testing.T) {
	const (
		keptFileName      = "kept.txt"
		vanishedFileName  = "gone.txt"
		vanishedDirectory = "gonedir"
	)
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, keptFileName))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, vanishedFileName))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, vanishedDirectory, directoryName))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, vanishedDirectory, textFileName))

	matcher := &removingMatcher{
		testingHandle: testingHandle,
		rootDirectory: rootDirectory,
		removedPaths:  map[string]bool{vanishedFileName: false, vanishedDirectory: false},
	}
	treeBuilder, logs := observedBuilder(zapcore.WarnLevel)
	treeBuilder.Matcher = matcher

	entries, treeError := treeBuilder.GetTreeData(rootDirectory)
	if treeError != nil {
		testingHandle.Fatalf("GetTreeData error: %v", treeError)
	}
	for removedPath, removed := range matcher.removedPaths {
		if !removed {
			testingHandle.Fatalf("walker never consulted the matcher for %s", removedPath)
		}
	}
	if got := strings.Join(entryNames(entries), ","); got != keptFileName {
		testingHandle.Fatalf("expected only %s, got %s", keptFileName, got)
	}
	if logs.Len() != 2 {
		testingHandle.Fatalf("expected one warning per vanished entry, got %d", logs.Len())
	}
	for _, logEntry := range logs.All() {
		if _, hasError := logEntry.ContextMap()["error"]; !hasError {
			testingHandle.Fatalf("warning %q lacks an error field", logEntry.Message)
		}
	}
}

// TestGetTreeDataRootValidation verifies missing and non-directory roots are rejected.
func TestGetTreeDataRootValidation(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	filePath := filepath.Join(rootDirectory, textFileName)
	writeTestFile(testingHandle, filePath)

	_, fileRootError := (&commands.TreeBuilder{}).GetTreeData(filePath)
	if !errors.Is(fileRootError, commands.ErrRootNotDirectory) {
		testingHandle.Fatalf("expected ErrRootNotDirectory, got %v", fileRootError)
	}

	_, missingRootError := (&commands.TreeBuilder{}).GetTreeData(filepath.Join(rootDirectory, "absent"))
	if missingRootError == nil || !errors.Is(missingRootError, os.ErrNotExist) {
		testingHandle.Fatalf("expected not-exist error, got %v", missingRootError)
	}
}
