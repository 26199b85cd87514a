package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Two kinds of text reach the engine from outside. Run input is free text
// that ends up inside prompts, so it is cleaned. Workflow documents are
// authored code, so they are checked and rejected instead of rewritten.
var (
	// DefaultMaxInputSize is 64KB, enough for a pasted document.
	DefaultMaxInputSize = 64 * 1024
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "ARBOR_MAX_INPUT_SIZE"

	// DefaultMaxDefinitionSize is 1MB, far above any hand-written graph.
	DefaultMaxDefinitionSize = 1 << 20
	// EnvMaxDefinitionSize overrides DefaultMaxDefinitionSize.
	EnvMaxDefinitionSize = "ARBOR_MAX_DEFINITION_SIZE"
)

var (
	ErrInputTooLarge      = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8        = errors.New("input contains invalid UTF-8 sequences")
	ErrDefinitionTooLarge = errors.New("workflow document exceeds maximum allowed size")
	ErrDefinitionControl  = errors.New("workflow document contains a control character")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SanitizeInput cleans run input by enforcing the input size limit,
// validating UTF-8 and stripping control characters other than newline,
// tab and carriage return.
func SanitizeInput(input string) (string, error) {
	limit := MaxInputSize()
	if len(input) > limit {
		// Rejected rather than truncated: a cut prompt changes the run's meaning.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// SanitizeDefinition checks a JSON or YAML workflow document before it is
// parsed. A leading byte order mark, common in files saved by Windows
// editors, is dropped. Oversized documents, invalid UTF-8 and stray control
// characters are errors; the error names the offending line.
func SanitizeDefinition(data []byte) ([]byte, error) {
	limit := MaxDefinitionSize()
	if len(data) > limit {
		return nil, fmt.Errorf("%w: size=%d limit=%d", ErrDefinitionTooLarge, len(data), limit)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	if i := bytes.IndexFunc(data, isUnsafeControl); i >= 0 {
		line := bytes.Count(data[:i], []byte{'\n'}) + 1
		r, _ := utf8.DecodeRune(data[i:])
		return nil, fmt.Errorf("%w: %U on line %d", ErrDefinitionControl, r, line)
	}
	return data, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// MaxInputSize returns the active run input limit in bytes.
func MaxInputSize() int {
	return limitFromEnv(EnvMaxInputSize, DefaultMaxInputSize)
}

// MaxDefinitionSize returns the active workflow document limit in bytes.
func MaxDefinitionSize() int {
	return limitFromEnv(EnvMaxDefinitionSize, DefaultMaxDefinitionSize)
}

func limitFromEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return fallback
}
