package convertd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var reBlankRuns = regexp.MustCompile(`\n{3,}`)

// normalizeMarkdown cleans text produced by the document converters:
// LF line endings, no trailing blanks, at most one empty line in a row, no
// control characters other than tab and newline, valid UTF-8.
func normalizeMarkdown(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(func(r rune) rune {
		if r != '\n' && r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t")
	}
	s = reBlankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}

// readInput reads a staged input file.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// writeOutput writes converter output to the staged output path.
func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// writeText writes text output, normalizing it first when the target is a
// Markdown or plain text file. Text that normalizes to nothing leaves an empty
// file.
func writeText(path string, text string) error {
	switch NormalizeFormat(filepath.Ext(path)) {
	case ".md", ".txt":
		if text = normalizeMarkdown(text); text != "" {
			text += "\n"
		}
	}
	return writeOutput(path, []byte(text))
}
