// Package glob compiles shell-style ignore patterns into a path predicate.
//
// Patterns are matched against slash-separated paths relative to the traversal
// root. A pattern that contains a slash is anchored at the root; a pattern
// without one matches its final segment at any depth.
package glob

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/temirov/fsviz/internal/utils"
)

const (
	patternSeparators  = ",|"
	currentDirPrefix   = "./"
	pathSeparator      = "/"
	alternationJoin    = "|"
	anchoredPrefix     = "^(?:"
	anchoredSuffix     = ")$"
	anyDirectoryPrefix = "(?:[^/]+/)*"
)

// Matcher is a compiled set of ignore patterns.
type Matcher struct {
	patterns   []string
	expression *regexp.Regexp
}

// Compile builds a Matcher from one or more pattern arguments. Every argument
// may contain several patterns separated by commas or pipes outside braces.
func Compile(arguments ...string) (*Matcher, error) {
	var patterns []string
	for _, argument := range arguments {
		splitPatterns, splitError := SplitPatterns(argument)
		if splitError != nil {
			return nil, splitError
		}
		patterns = append(patterns, splitPatterns...)
	}
	patterns = utils.DeduplicatePatterns(patterns)
	if len(patterns) == 0 {
		return nil, fmt.Errorf(errorEmptyPatternListFormat, ErrInvalidPattern)
	}

	bodies := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		body, translateError := translatePattern(pattern)
		if translateError != nil {
			return nil, translateError
		}
		bodies = append(bodies, body)
	}

	source := anchoredPrefix + strings.Join(bodies, alternationJoin) + anchoredSuffix
	expression, compileError := regexp.Compile(source)
	if compileError != nil {
		return nil, fmt.Errorf(errorRegularExpressionFormat, ErrInvalidPattern, strings.Join(patterns, alternationJoin), compileError)
	}
	return &Matcher{patterns: patterns, expression: expression}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and constants.
func MustCompile(arguments ...string) *Matcher {
	matcher, compileError := Compile(arguments...)
	if compileError != nil {
		panic(compileError)
	}
	return matcher
}

// Matches reports whether the root-relative path is excluded by any pattern.
// A nil Matcher matches nothing.
func (matcher *Matcher) Matches(relativePath string) bool {
	if matcher == nil || matcher.expression == nil {
		return false
	}
	return matcher.expression.MatchString(normalizeCandidate(relativePath))
}

// Patterns returns the individual patterns the matcher was compiled from.
func (matcher *Matcher) Patterns() []string {
	if matcher == nil {
		return nil
	}
	return append([]string(nil), matcher.patterns...)
}

// SplitPatterns splits a delimited argument into individual patterns.
// Separators inside braces, character classes or after an escape are kept.
func SplitPatterns(argument string) ([]string, error) {
	var patterns []string
	var current strings.Builder
	braceDepth := 0
	runes := []rune(argument)

	flush := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			patterns = append(patterns, trimmed)
		}
		current.Reset()
	}

	for index := 0; index < len(runes); index++ {
		character := runes[index]
		switch {
		case character == '\\':
			current.WriteRune(character)
			if index+1 < len(runes) {
				index++
				current.WriteRune(runes[index])
			}
		case character == '[':
			closing := findClassEnd(runes, index)
			if closing < 0 {
				current.WriteRune(character)
				continue
			}
			current.WriteString(string(runes[index : closing+1]))
			index = closing
		case character == '{':
			braceDepth++
			current.WriteRune(character)
		case character == '}':
			braceDepth--
			if braceDepth < 0 {
				return nil, fmt.Errorf(errorUnbalancedBraceFormat, ErrInvalidPattern, argument)
			}
			current.WriteRune(character)
		case braceDepth == 0 && strings.ContainsRune(patternSeparators, character):
			flush()
		default:
			current.WriteRune(character)
		}
	}
	if braceDepth != 0 {
		return nil, fmt.Errorf(errorUnbalancedBraceFormat, ErrInvalidPattern, argument)
	}
	flush()
	return patterns, nil
}

func normalizeCandidate(relativePath string) string {
	normalized := filepath.ToSlash(relativePath)
	for strings.HasPrefix(normalized, currentDirPrefix) {
		normalized = strings.TrimPrefix(normalized, currentDirPrefix)
	}
	return strings.TrimSuffix(normalized, pathSeparator)
}
