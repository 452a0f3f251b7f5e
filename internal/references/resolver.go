// Package references renders the bibliography for the citation keys a
// document uses. Rendering is delegated to pandoc's citeproc; results are
// memoized in memory and, optionally, in a sqlite store.
package references

import (
	"context"
	"errors"
	"strings"

	"github.com/zjrosen/citemark/internal/citation"
)

var (
	// ErrPandocNotConfigured is returned when no pandoc executable is set.
	ErrPandocNotConfigured = errors.New("pandoc path not configured")
	// ErrBibliographyNotConfigured is returned when no bibliography file is set.
	ErrBibliographyNotConfigured = errors.New("bibliography not configured")
	// ErrNoCitations is returned for documents without citation keys.
	ErrNoCitations = errors.New("no citations in document")
	// ErrTimeout is returned when pandoc does not finish in time.
	ErrTimeout = errors.New("pandoc timed out")
)

// Resolver turns a set of citation keys into a rendered bibliography.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (*Bibliography, error)
}

// Fingerprinter is implemented by resolvers whose output depends on state
// outside the request, such as the bibliography file on disk. The
// fingerprint is folded into memoization keys.
type Fingerprinter interface {
	Fingerprint() string
}

// Request names a document and the keys it cites.
type Request struct {
	File string
	Keys []string
}

// NewRequest scans content and collects its distinct citation keys.
func NewRequest(file, content string) Request {
	return RequestForKeys(file, citation.Keys(citation.ScanText(content, file)))
}

// RequestForKeys builds a request from already scanned keys. Keys are
// normalized and deduplicated, keeping first appearance order.
func RequestForKeys(file string, keys []string) Request {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = NormalizeKey(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return Request{File: file, Keys: out}
}

// NormalizeKey strips the leading '@' and the trailing punctuation pandoc
// does not treat as part of a key.
func NormalizeKey(key string) string {
	key = strings.TrimPrefix(key, "@")
	return strings.TrimRight(key, ".:")
}
