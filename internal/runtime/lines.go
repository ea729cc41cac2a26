// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bufio"
	"bytes"
	"io"
)

// maxLineBytes bounds a single LogEvent; longer lines are split.
const maxLineBytes = 64 * 1024

// scanLines is a bufio.SplitFunc that keeps terminators. It ends a line at "\n",
// "\r\n" or a bare "\r" (progress bars redraw with carriage returns), and
// returns whatever is left at EOF as a final unterminated line.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i+1], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i+2], nil
		case i+1 < len(data), atEOF, len(data) >= maxLineBytes:
			return i + 1, data[:i+1], nil
		default:
			// A trailing '\r' may be the first half of "\r\n".
			return 0, nil, nil
		}
	}

	if len(data) >= maxLineBytes {
		return maxLineBytes, data[:maxLineBytes], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// newLineScanner returns a scanner over r using scanLines.
func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	sc.Split(scanLines)
	return sc
}

// SplitLines splits text the same way the runner splits process output.
func SplitLines(text string) []string {
	var lines []string
	sc := newLineScanner(bytes.NewReader([]byte(text)))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}
