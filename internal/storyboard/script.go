package storyboard

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SplitScript turns raw script text into ordered scene lines. Input is
// NFC-normalized, carriage returns are stripped, each line is trimmed, and
// blank lines are dropped. The result preserves script order.
func SplitScript(script string) []string {
	normalized := norm.NFC.String(strings.ReplaceAll(script, "\r\n", "\n"))
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
