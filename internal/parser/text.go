package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles plain text reports. Scanning line by line normalizes
// CRLF endings and bounds line length.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, _ string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
