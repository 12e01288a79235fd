package bc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedLabel is returned for labels not of the form "text (code)"
var ErrMalformedLabel = errors.New("malformed concept label")

// SplitLabel splits a CMAP label of the form "Display Text (CODE)" into its
// display text and concept code. The split happens on the first "(".
func SplitLabel(label string) (text, code string, err error) {
	open := strings.Index(label, "(")
	if open < 0 {
		return "", "", fmt.Errorf("%w: %q has no concept code", ErrMalformedLabel, label)
	}

	text = strings.TrimSpace(label[:open])
	rest := strings.TrimSpace(label[open+1:])
	if !strings.HasSuffix(rest, ")") {
		return "", "", fmt.Errorf("%w: %q is missing the closing parenthesis", ErrMalformedLabel, label)
	}
	code = strings.TrimSpace(strings.TrimSuffix(rest, ")"))

	if text == "" || code == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedLabel, label)
	}
	return text, code, nil
}

// Designation turns display text into a BC designation: lower case with
// spaces replaced by underscores.
func Designation(text string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), " ", "_")
}
