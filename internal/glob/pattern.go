package glob

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const (
	segmentStarExpression     = `[^/]+`
	innerStarExpression       = `[^/]*`
	anySequenceExpression     = `.*`
	singleCharacterExpression = `[^/]`
	groupOpen                 = "(?:"
	groupClose                = ")"
)

// translatePattern converts one glob pattern into an unanchored regular expression body.
func translatePattern(pattern string) (string, error) {
	trimmed := pattern
	for strings.HasPrefix(trimmed, currentDirPrefix) {
		trimmed = strings.TrimPrefix(trimmed, currentDirPrefix)
	}
	anchored := strings.HasPrefix(trimmed, pathSeparator)
	trimmed = strings.Trim(trimmed, pathSeparator)
	if trimmed == "" {
		return "", fmt.Errorf(errorEmptyAfterTrimmingFormat, ErrInvalidPattern, pattern)
	}
	if strings.Contains(trimmed, pathSeparator) {
		anchored = true
	}

	var builder strings.Builder
	if !anchored {
		builder.WriteString(anyDirectoryPrefix)
	}

	runes := []rune(trimmed)
	segmentStart := true
	var braceSegmentStarts []bool

	for index := 0; index < len(runes); index++ {
		character := runes[index]
		switch character {
		case '\\':
			if index+1 >= len(runes) {
				return "", fmt.Errorf(errorTrailingEscapeFormat, ErrInvalidPattern, pattern)
			}
			index++
			builder.WriteString(regexp.QuoteMeta(string(runes[index])))
			segmentStart = false
		case '*':
			runEnd := index
			for runEnd+1 < len(runes) && runes[runEnd+1] == '*' {
				runEnd++
			}
			if runEnd == index {
				// A star opening a segment must consume at least one character.
				if segmentStart {
					builder.WriteString(segmentStarExpression)
				} else {
					builder.WriteString(innerStarExpression)
				}
				segmentStart = false
				continue
			}
			index = runEnd
			if segmentStart && index+1 < len(runes) && runes[index+1] == '/' {
				builder.WriteString(anyDirectoryPrefix)
				index++
				continue
			}
			builder.WriteString(anySequenceExpression)
			segmentStart = false
		case '?':
			builder.WriteString(singleCharacterExpression)
			segmentStart = false
		case '[':
			closing := findClassEnd(runes, index)
			if closing < 0 {
				return "", fmt.Errorf(errorUnterminatedClassFormat, ErrInvalidPattern, pattern)
			}
			if slices.Contains(runes[index+1:closing], '/') {
				return "", fmt.Errorf(errorSeparatorInClassFormat, ErrInvalidPattern, pattern)
			}
			builder.WriteString(translateClass(runes[index+1 : closing]))
			index = closing
			segmentStart = false
		case '{':
			braceSegmentStarts = append(braceSegmentStarts, segmentStart)
			builder.WriteString(groupOpen)
		case ',', '|':
			if len(braceSegmentStarts) == 0 {
				builder.WriteString(regexp.QuoteMeta(string(character)))
				segmentStart = false
				continue
			}
			builder.WriteString(alternationJoin)
			segmentStart = braceSegmentStarts[len(braceSegmentStarts)-1]
		case '}':
			if len(braceSegmentStarts) == 0 {
				return "", fmt.Errorf(errorUnbalancedBraceFormat, ErrInvalidPattern, pattern)
			}
			braceSegmentStarts = braceSegmentStarts[:len(braceSegmentStarts)-1]
			builder.WriteString(groupClose)
			segmentStart = false
		case '/':
			builder.WriteRune(character)
			segmentStart = true
		default:
			builder.WriteString(regexp.QuoteMeta(string(character)))
			segmentStart = false
		}
	}

	if len(braceSegmentStarts) != 0 {
		return "", fmt.Errorf(errorUnbalancedBraceFormat, ErrInvalidPattern, pattern)
	}
	return builder.String(), nil
}

// findClassEnd returns the index of the bracket closing the class opened at start, or -1.
func findClassEnd(runes []rune, start int) int {
	index := start + 1
	if index < len(runes) && (runes[index] == '!' || runes[index] == '^') {
		index++
	}
	// A leading ']' is a literal member of the class.
	if index < len(runes) && runes[index] == ']' {
		index++
	}
	for ; index < len(runes); index++ {
		if runes[index] == ']' {
			return index
		}
	}
	return -1
}

// translateClass converts the members of a glob character class into a regexp class.
// Negated classes never match the path separator.
func translateClass(members []rune) string {
	var builder strings.Builder
	builder.WriteByte('[')
	index := 0
	if len(members) > 0 && (members[0] == '!' || members[0] == '^') {
		builder.WriteString("^/")
		index = 1
	}
	for ; index < len(members); index++ {
		switch member := members[index]; member {
		case '\\', '[', ']', '^':
			builder.WriteByte('\\')
			builder.WriteRune(member)
		default:
			builder.WriteRune(member)
		}
	}
	builder.WriteByte(']')
	return builder.String()
}
