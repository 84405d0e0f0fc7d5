package glob

import "errors"

// ErrInvalidPattern indicates a malformed ignore pattern.
var ErrInvalidPattern = errors.New("invalid pattern")

const (
	errorEmptyPatternListFormat   = "%w: no patterns provided"
	errorUnbalancedBraceFormat    = "%w: unbalanced braces in %q"
	errorUnterminatedClassFormat  = "%w: unterminated character class in %q"
	errorTrailingEscapeFormat     = "%w: trailing escape in %q"
	errorSeparatorInClassFormat   = "%w: path separator inside character class in %q"
	errorRegularExpressionFormat  = "%w: %q: %v"
	errorEmptyAfterTrimmingFormat = "%w: %q is empty after normalization"
)
