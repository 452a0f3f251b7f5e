package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/zjrosen/citemark/internal/citation"
)

// readDocument reads path, or stdin for "-". Documents from stdin get a
// random source id so spans from separate runs never collide.
func readDocument(path string, stdin io.Reader) (text, sourceID string, err error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin-" + uuid.NewString(), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: user supplied document
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), path, nil
}

// parseRange parses a "from:to" byte range. Either side may be empty:
// ":100" starts at 0 and "100:" runs to the end of the document.
func parseRange(s string, size int) (citation.Range, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return citation.Range{}, fmt.Errorf("invalid range %q: want from:to", s)
	}

	r := citation.Range{From: 0, To: size}
	if from != "" {
		n, err := strconv.Atoi(from)
		if err != nil || n < 0 {
			return citation.Range{}, fmt.Errorf("invalid range %q: bad start", s)
		}
		r.From = n
	}
	if to != "" {
		n, err := strconv.Atoi(to)
		if err != nil || n < 0 {
			return citation.Range{}, fmt.Errorf("invalid range %q: bad end", s)
		}
		r.To = n
	}
	return r, nil
}

// parseRanges parses every --range value; none means the whole document.
func parseRanges(values []string, size int) ([]citation.Range, error) {
	if len(values) == 0 {
		return []citation.Range{{From: 0, To: size}}, nil
	}
	ranges := make([]citation.Range, 0, len(values))
	for _, v := range values {
		r, err := parseRange(v, size)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}
