// Package report formats translated labels into the plain-text response.
package report

import (
	"fmt"
	"strings"

	"github.com/pricofy/image-labeler/internal/domain"
)

// lineFormat renders one label; the confidence always has two decimals.
const lineFormat = "%.2f%% de ser do tipo %s"

// Names returns the label names in order.
func Names(labels []domain.Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}

// Join concatenates names with sep. No names yields the empty string.
func Join(names []string, sep string) string {
	return strings.Join(names, sep)
}

// Split breaks text on sep. The empty string yields no segments.
func Split(text, sep string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, sep)
}

// Format pairs each translated name with the confidence of the label at
// the same index and joins the lines with newlines. The counts must match.
func Format(labels []domain.Label, names []string) (string, error) {
	if len(labels) != len(names) {
		return "", fmt.Errorf("got %d translated names for %d labels", len(names), len(labels))
	}

	lines := make([]string, len(labels))
	for i, l := range labels {
		lines[i] = fmt.Sprintf(lineFormat, l.Confidence, names[i])
	}
	return strings.Join(lines, "\n"), nil
}
