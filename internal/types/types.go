// Package types defines every cross‑package data structure used by the fsviz CLI.
package types

// Kind identifies the on-disk type of an Entry.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindSymlink   Kind = "symlink"

	// UnresolvedTarget replaces the target of a symbolic link that cannot be read or resolved.
	UnresolvedTarget = "unresolved"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// Entry is one filesystem node captured during traversal.
// It is implemented only by *File, *Directory and *Symlink.
type Entry interface {
	EntryName() string
	EntryPath() string
	Kind() Kind
	sealed()
}

// Node holds the fields shared by every entry kind.
// Path is slash separated and relative to the traversal root.
type Node struct {
	Name string
	Path string
}

// EntryName returns the base name of the node.
func (node Node) EntryName() string { return node.Name }

// EntryPath returns the root-relative path of the node.
func (node Node) EntryPath() string { return node.Path }

// File is a regular file or any other non-directory, non-link node.
type File struct {
	Node
}

// Directory is a directory with its fully populated children.
type Directory struct {
	Node
	Children []Entry
}

// Symlink is a symbolic link. Target is the raw link text or UnresolvedTarget.
type Symlink struct {
	Node
	Target string
}

func (*File) Kind() Kind      { return KindFile }
func (*Directory) Kind() Kind { return KindDirectory }
func (*Symlink) Kind() Kind   { return KindSymlink }

func (*File) sealed()      {}
func (*Directory) sealed() {}
func (*Symlink) sealed()   {}

// NewFile constructs a file entry.
func NewFile(name, path string) *File {
	return &File{Node: Node{Name: name, Path: path}}
}

// NewDirectory constructs a directory entry. A nil children slice is replaced by an empty one.
func NewDirectory(name, path string, children []Entry) *Directory {
	if children == nil {
		children = []Entry{}
	}
	return &Directory{Node: Node{Name: name, Path: path}, Children: children}
}

// NewSymlink constructs a symbolic link entry. An empty target is recorded as UnresolvedTarget.
func NewSymlink(name, path, target string) *Symlink {
	if target == "" {
		target = UnresolvedTarget
	}
	return &Symlink{Node: Node{Name: name, Path: path}, Target: target}
}
