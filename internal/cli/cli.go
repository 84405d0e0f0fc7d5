// Package cli provides the command line interface.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/fsviz/internal/commands"
	"github.com/temirov/fsviz/internal/config"
	"github.com/temirov/fsviz/internal/glob"
	"github.com/temirov/fsviz/internal/output"
	"github.com/temirov/fsviz/internal/services/clipboard"
	"github.com/temirov/fsviz/internal/types"
	"github.com/temirov/fsviz/internal/utils"
)

const (
	simpleFlagName   = "simple"
	dirsOnlyFlagName = "dirs-only"
	ignoreFlagName   = "ignore"
	rawFlagName      = "raw"
	jsonFlagName     = "json"
	csvFlagName      = "csv"
	yamlFlagName     = "yaml"
	copyFlagName     = "copy"

	simpleFlagShorthand   = "s"
	dirsOnlyFlagShorthand = "d"
	ignoreFlagShorthand   = "i"
	rawFlagShorthand      = "r"
	jsonFlagShorthand     = "j"
	csvFlagShorthand      = "c"
	yamlFlagShorthand     = "y"

	simpleFlagDescription   = "render a flat list instead of tree connectors"
	dirsOnlyFlagDescription = "list directories only"
	ignoreFlagDescription   = "glob patterns to exclude, separated by ',' or '|' (repeatable)"
	rawFlagDescription      = "write the tree to FILE instead of the console, overwriting it"
	jsonFlagDescription     = "write the tree as JSON to FILE (.json appended when missing)"
	csvFlagDescription      = "write the tree as CSV to FILE (.csv appended when missing)"
	yamlFlagDescription     = "write the tree as YAML to FILE (.yaml appended when missing)"
	maxDepthFlagDescription = "maximum directory depth to descend (env FSVIZ_MAX_DEPTH)"
	noColorFlagDescription  = "disable colored console output (env FSVIZ_NO_COLOR, NO_COLOR)"
	copyFlagDescription     = "also copy the rendered tree to the system clipboard"

	defaultPath          = "."
	rootUse              = "fsviz [path]"
	versionTemplate      = "{{.Version}}\n"
	rootShortDescription = "visualize a directory tree"
	rootLongDescription  = `fsviz walks a directory and renders its structure as a tree.
Entries matching --ignore patterns are left out, and excluded directories are not descended.
Symbolic links are listed with their targets and never followed.
Use --raw, --json, --csv or --yaml to write the result to a file instead of the console.`
	rootUsageExample = `  # Render the current directory
  fsviz

  # Skip dependencies and build output
  fsviz ./project -i "node_modules|dist/**"

  # Export directories only as JSON
  fsviz -d --json tree`

	errorInvalidIgnoreFormat = "invalid ignore pattern: %w"
	errorSettingsFormat      = "resolving settings: %w"
	errorBuildTreeFormat     = "building tree for %s: %w"
	errorEncodeFormat        = "encoding %s output: %w"
	errorWriteFileFormat     = "writing %s output to %s: %w"
	errorWriteConsoleFormat  = "writing tree to console: %w"
	errorClipboardFormat     = "copying tree to clipboard: %w"
	debugWroteFileMessage    = "output written"
	debugPatternsMessage     = "ignore patterns compiled"
	warningLossyNameMessage  = "name is not valid UTF-8, invalid bytes replaced in export"
	logFieldPath             = "path"
	logFieldPatterns         = "patterns"
	logFieldFile             = "file"
	logFieldFormat           = "format"
	logFieldEntries          = "entries"
)

// Dependencies supplies the side-effecting collaborators of the root command.
type Dependencies struct {
	Logger     *zap.Logger
	Stdout     io.Writer
	Stderr     io.Writer
	Clipboard  clipboard.Copier
	IsTerminal func() bool
}

// rootOptions stores the values of the root command flags.
type rootOptions struct {
	simple          bool
	dirsOnly        bool
	ignorePatterns  []string
	rawFile         string
	jsonFile        string
	csvFile         string
	yamlFile        string
	maxDepth        int
	noColor         bool
	copyToClipboard bool
}

// exportTarget pairs a structured encoder with its destination file.
// replacesInvalidUTF8 marks encoders that rewrite invalid UTF-8 as U+FFFD.
type exportTarget struct {
	format              string
	fileName            string
	extension           string
	accepted            []string
	encodeTree          func([]types.Entry) ([]byte, error)
	replacesInvalidUTF8 bool
}

// Execute runs the fsviz application against the process streams.
func Execute(logger *zap.Logger) error {
	rootCommand := NewRootCommand(Dependencies{
		Logger:     logger,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Clipboard:  clipboard.NewService(),
		IsTerminal: stdoutIsTerminal,
	})
	return rootCommand.Execute()
}

// NewRootCommand builds the fsviz Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies = withDefaults(dependencies)
	options := &rootOptions{}

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Version:       utils.GetApplicationVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			rootPath := defaultPath
			if len(arguments) == 1 {
				rootPath = arguments[0]
			}
			return runTree(command, dependencies, options, rootPath)
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)
	rootCommand.CompletionOptions.DisableDefaultCmd = true

	flags := rootCommand.Flags()
	flags.BoolVarP(&options.simple, simpleFlagName, simpleFlagShorthand, false, simpleFlagDescription)
	flags.BoolVarP(&options.dirsOnly, dirsOnlyFlagName, dirsOnlyFlagShorthand, false, dirsOnlyFlagDescription)
	flags.StringArrayVarP(&options.ignorePatterns, ignoreFlagName, ignoreFlagShorthand, nil, ignoreFlagDescription)
	flags.StringVarP(&options.rawFile, rawFlagName, rawFlagShorthand, "", rawFlagDescription)
	flags.StringVarP(&options.jsonFile, jsonFlagName, jsonFlagShorthand, "", jsonFlagDescription)
	flags.StringVarP(&options.csvFile, csvFlagName, csvFlagShorthand, "", csvFlagDescription)
	flags.StringVarP(&options.yamlFile, yamlFlagName, yamlFlagShorthand, "", yamlFlagDescription)
	flags.IntVar(&options.maxDepth, config.MaxDepthFlagName, config.DefaultMaxDepth, maxDepthFlagDescription)
	flags.BoolVar(&options.noColor, config.NoColorFlagName, false, noColorFlagDescription)
	flags.BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	rootCommand.MarkFlagsMutuallyExclusive(jsonFlagName, csvFlagName, yamlFlagName)

	return rootCommand
}

func withDefaults(dependencies Dependencies) Dependencies {
	dependencies.Logger = utils.LoggerOrNop(dependencies.Logger)
	if dependencies.Stdout == nil {
		dependencies.Stdout = io.Discard
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = io.Discard
	}
	if dependencies.Clipboard == nil {
		dependencies.Clipboard = clipboard.NewService()
	}
	if dependencies.IsTerminal == nil {
		dependencies.IsTerminal = func() bool { return false }
	}
	return dependencies
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// runTree validates the invocation, walks rootPath and delivers every requested output.
func runTree(command *cobra.Command, dependencies Dependencies, options *rootOptions, rootPath string) error {
	settings, settingsError := config.LoadSettings(command.Flags())
	if settingsError != nil {
		return fmt.Errorf(errorSettingsFormat, settingsError)
	}

	var matcher commands.PathMatcher
	if len(options.ignorePatterns) > 0 {
		compiledMatcher, compileError := glob.Compile(options.ignorePatterns...)
		if compileError != nil {
			return fmt.Errorf(errorInvalidIgnoreFormat, compileError)
		}
		dependencies.Logger.Debug(debugPatternsMessage, zap.Strings(logFieldPatterns, compiledMatcher.Patterns()))
		matcher = compiledMatcher
	}

	treeBuilder := &commands.TreeBuilder{
		Matcher:         matcher,
		DirectoriesOnly: options.dirsOnly,
		MaxDepth:        settings.MaxDepth,
		Logger:          dependencies.Logger,
	}
	entries, buildError := treeBuilder.GetTreeData(rootPath)
	if buildError != nil {
		return fmt.Errorf(errorBuildTreeFormat, rootPath, buildError)
	}

	plainText := renderText(entries, output.RenderOptions{Simple: options.simple})
	writesFiles := false

	if options.rawFile != "" {
		writesFiles = true
		if writeError := writeOutputFile(dependencies.Logger, types.FormatRaw, options.rawFile, []byte(utils.StripDecoration(plainText)), len(entries)); writeError != nil {
			return writeError
		}
	}
	for _, target := range exportTargets(options) {
		writesFiles = true
		if target.replacesInvalidUTF8 {
			for _, lossyPath := range output.NonUTF8Paths(entries) {
				dependencies.Logger.Warn(warningLossyNameMessage, zap.String(logFieldFormat, target.format), zap.ByteString(logFieldPath, []byte(lossyPath)))
			}
		}
		encoded, encodeError := target.encodeTree(entries)
		if encodeError != nil {
			return fmt.Errorf(errorEncodeFormat, target.format, encodeError)
		}
		fileName := utils.EnsureExtension(target.fileName, target.extension, target.accepted...)
		if writeError := writeOutputFile(dependencies.Logger, target.format, fileName, encoded, len(entries)); writeError != nil {
			return writeError
		}
	}

	if !writesFiles {
		colorEnabled := !settings.NoColor && dependencies.IsTerminal()
		consoleOptions := output.RenderOptions{Simple: options.simple, Palette: output.NewPalette(colorEnabled)}
		if writeError := output.WriteTreeRaw(dependencies.Stdout, entries, consoleOptions); writeError != nil {
			return fmt.Errorf(errorWriteConsoleFormat, writeError)
		}
	}

	if options.copyToClipboard {
		if copyError := dependencies.Clipboard.Copy(plainText); copyError != nil {
			return fmt.Errorf(errorClipboardFormat, copyError)
		}
	}
	return nil
}

// exportTargets returns the requested structured exports in flag order.
func exportTargets(options *rootOptions) []exportTarget {
	candidates := []exportTarget{
		{format: types.FormatJSON, fileName: options.jsonFile, extension: utils.JSONExtension, encodeTree: output.EncodeJSON, replacesInvalidUTF8: true},
		{format: types.FormatCSV, fileName: options.csvFile, extension: utils.CSVExtension, encodeTree: output.EncodeCSV},
		{format: types.FormatYAML, fileName: options.yamlFile, extension: utils.YAMLExtension, accepted: []string{utils.YMLExtension}, encodeTree: output.EncodeYAML},
	}
	requested := make([]exportTarget, 0, 1)
	for _, candidate := range candidates {
		if candidate.fileName != "" {
			requested = append(requested, candidate)
		}
	}
	return requested
}

func renderText(entries []types.Entry, options output.RenderOptions) string {
	var buffer bytes.Buffer
	for _, line := range output.RenderTreeLines(entries, options) {
		buffer.WriteString(line)
		buffer.WriteByte('\n')
	}
	return buffer.String()
}

// writeOutputFile creates or truncates fileName with content.
func writeOutputFile(logger *zap.Logger, format string, fileName string, content []byte, entryCount int) error {
	if writeError := os.WriteFile(fileName, content, utils.OutputFilePermissions); writeError != nil {
		return fmt.Errorf(errorWriteFileFormat, strings.ToUpper(format), fileName, writeError)
	}
	logger.Debug(debugWroteFileMessage, zap.String(logFieldFormat, format), zap.String(logFieldFile, fileName), zap.Int(logFieldEntries, entryCount))
	return nil
}
