package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/temirov/fsviz/internal/types"
)

// ErrInvalidRecord is returned when decoded data does not describe a valid entry.
var ErrInvalidRecord = errors.New("invalid entry record")

const (
	csvTargetColumnIndex = 3
	yamlIndentSpaces     = 2

	errorUnknownTypeFormat  = "%w: %q has unknown type %q"
	errorMissingNameFormat  = "%w: entry at %q has no name"
	errorUnexpectedChildren = "%w: %s %q cannot have children"
	errorDecodeJSONFormat   = "decoding JSON export: %w"
	errorEncodeYAMLFormat   = "encoding YAML export: %w"
	errorEncodeCSVFormat    = "encoding CSV export: %w"
)

var csvHeader = []string{"path", "name", "type", "target"}

// entryRecord is the wire shape shared by the JSON and YAML encoders.
// Directories always carry Children and symbolic links always carry Target.
type entryRecord struct {
	Path     string         `json:"path" yaml:"path"`
	Name     string         `json:"name" yaml:"name"`
	Type     types.Kind     `json:"type" yaml:"type"`
	Target   string         `json:"target,omitempty" yaml:"target,omitempty"`
	Children *[]entryRecord `json:"children,omitempty" yaml:"children,omitempty"`
}

// Flatten returns the entries in depth-first pre-order, each parent before its children.
func Flatten(entries []types.Entry) []types.Entry {
	flattened := make([]types.Entry, 0, countEntries(entries))
	var visit func([]types.Entry)
	visit = func(level []types.Entry) {
		for _, entry := range level {
			flattened = append(flattened, entry)
			if directory, isDirectory := entry.(*types.Directory); isDirectory {
				visit(directory.Children)
			}
		}
	}
	visit(entries)
	return flattened
}

// NonUTF8Paths returns, in pre-order, the paths of entries whose name, path or link
// target is not valid UTF-8. EncodeJSON replaces such bytes with U+FFFD.
func NonUTF8Paths(entries []types.Entry) []string {
	var paths []string
	for _, entry := range Flatten(entries) {
		invalid := !utf8.ValidString(entry.EntryName()) || !utf8.ValidString(entry.EntryPath())
		if link, isLink := entry.(*types.Symlink); isLink && !utf8.ValidString(link.Target) {
			invalid = true
		}
		if invalid {
			paths = append(paths, entry.EntryPath())
		}
	}
	return paths
}

// EncodeJSON serializes the nested tree as an indented JSON array.
func EncodeJSON(entries []types.Entry) ([]byte, error) {
	return json.MarshalIndent(toRecords(entries), indentPrefix, indentSpacer)
}

// DecodeJSON reconstructs the entry tree produced by EncodeJSON.
func DecodeJSON(data []byte) ([]types.Entry, error) {
	var records []entryRecord
	if decodeError := json.Unmarshal(data, &records); decodeError != nil {
		return nil, fmt.Errorf(errorDecodeJSONFormat, decodeError)
	}
	return fromRecords(records)
}

// EncodeYAML serializes the nested tree as a YAML sequence using the JSON record shape.
func EncodeYAML(entries []types.Entry) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndentSpaces)
	if encodeError := encoder.Encode(toRecords(entries)); encodeError != nil {
		return nil, fmt.Errorf(errorEncodeYAMLFormat, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return nil, fmt.Errorf(errorEncodeYAMLFormat, closeError)
	}
	return buffer.Bytes(), nil
}

// EncodeCSV writes a header row followed by one row per flattened entry.
func EncodeCSV(entries []types.Entry) ([]byte, error) {
	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)
	if writeError := writer.Write(csvHeader); writeError != nil {
		return nil, fmt.Errorf(errorEncodeCSVFormat, writeError)
	}
	for _, entry := range Flatten(entries) {
		row := make([]string, len(csvHeader))
		row[0] = entry.EntryPath()
		row[1] = entry.EntryName()
		row[2] = string(entry.Kind())
		if link, isLink := entry.(*types.Symlink); isLink {
			row[csvTargetColumnIndex] = link.Target
		}
		if writeError := writer.Write(row); writeError != nil {
			return nil, fmt.Errorf(errorEncodeCSVFormat, writeError)
		}
	}
	writer.Flush()
	if flushError := writer.Error(); flushError != nil {
		return nil, fmt.Errorf(errorEncodeCSVFormat, flushError)
	}
	return buffer.Bytes(), nil
}

func toRecords(entries []types.Entry) []entryRecord {
	records := make([]entryRecord, 0, len(entries))
	for _, entry := range entries {
		record := entryRecord{
			Path: entry.EntryPath(),
			Name: entry.EntryName(),
			Type: entry.Kind(),
		}
		switch typedEntry := entry.(type) {
		case *types.Directory:
			children := toRecords(typedEntry.Children)
			record.Children = &children
		case *types.Symlink:
			record.Target = typedEntry.Target
		}
		records = append(records, record)
	}
	return records
}

func fromRecords(records []entryRecord) ([]types.Entry, error) {
	entries := make([]types.Entry, 0, len(records))
	for _, record := range records {
		if record.Name == "" {
			return nil, fmt.Errorf(errorMissingNameFormat, ErrInvalidRecord, record.Path)
		}
		switch record.Type {
		case types.KindDirectory:
			var children []types.Entry
			if record.Children != nil {
				decodedChildren, childError := fromRecords(*record.Children)
				if childError != nil {
					return nil, childError
				}
				children = decodedChildren
			}
			entries = append(entries, types.NewDirectory(record.Name, record.Path, children))
		case types.KindFile, types.KindSymlink:
			if record.Children != nil {
				return nil, fmt.Errorf(errorUnexpectedChildren, ErrInvalidRecord, record.Type, record.Path)
			}
			if record.Type == types.KindFile {
				entries = append(entries, types.NewFile(record.Name, record.Path))
			} else {
				entries = append(entries, types.NewSymlink(record.Name, record.Path, record.Target))
			}
		default:
			return nil, fmt.Errorf(errorUnknownTypeFormat, ErrInvalidRecord, record.Path, record.Type)
		}
	}
	return entries, nil
}
