package frontend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

var ErrPatch = errors.New("frontend: patch does not apply")

// ApplyPatch applies a single-file unified diff to original and returns the
// patched contents. Context and removed lines must match the original.
func ApplyPatch(original, patch []byte) ([]byte, error) {
	fd, err := diff.ParseFileDiff(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPatch, err)
	}
	if fd.NewName == "/dev/null" {
		return nil, nil
	}

	var orig []string
	if len(original) > 0 {
		orig = strings.SplitAfter(string(original), "\n")
		if orig[len(orig)-1] == "" {
			orig = orig[:len(orig)-1]
		}
	}

	var out []string
	idx := 0
	for _, h := range fd.Hunks {
		start := int(h.OrigStartLine) - 1
		if h.OrigLines == 0 {
			// Pure insertions name the line after which to insert.
			start = int(h.OrigStartLine)
		}
		if start < idx || start > len(orig) {
			return nil, fmt.Errorf("%w: hunk at line %d is out of range", ErrPatch, h.OrigStartLine)
		}
		out = append(out, orig[idx:start]...)
		idx = start

		body := strings.SplitAfter(string(h.Body), "\n")
		for n, line := range body {
			if line == "" {
				continue
			}
			text := line[1:]
			switch line[0] {
			case '+':
				out = append(out, text)
			case '-', ' ':
				if idx >= len(orig) || strings.TrimSuffix(orig[idx], "\n") != strings.TrimSuffix(text, "\n") {
					return nil, fmt.Errorf("%w: line %d does not match", ErrPatch, idx+1)
				}
				if line[0] == ' ' {
					out = append(out, orig[idx])
				}
				idx++
			case '\\':
				// "\ No newline at end of file" applies to the preceding line.
				if n > 0 && len(out) > 0 && body[n-1][0] != '-' {
					out[len(out)-1] = strings.TrimSuffix(out[len(out)-1], "\n")
				}
			default:
				return nil, fmt.Errorf("%w: malformed hunk line %q", ErrPatch, line)
			}
		}
	}
	out = append(out, orig[idx:]...)
	return []byte(strings.Join(out, "")), nil
}
