package references

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/citemark/internal/config"
	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/tracing"
)

// runFunc executes a program with stdin and returns its stdout.
type runFunc func(ctx context.Context, path string, args []string, stdin string) (string, error)

// Pandoc renders bibliographies by running pandoc with citeproc.
type Pandoc struct {
	path         string
	bibliography string
	csl          string
	timeout      time.Duration
	run          runFunc
}

var (
	_ Resolver      = (*Pandoc)(nil)
	_ Fingerprinter = (*Pandoc)(nil)
)

// NewPandoc creates a resolver from the pandoc configuration.
func NewPandoc(cfg config.PandocConfig) *Pandoc {
	return &Pandoc{
		path:         cfg.Path,
		bibliography: cfg.Bibliography,
		csl:          cfg.CSL,
		timeout:      cfg.Timeout,
		run:          execPandoc,
	}
}

// Args returns pandoc's command line arguments.
func (p *Pandoc) Args() []string {
	args := []string{
		"--citeproc",
		"--bibliography", p.bibliography,
	}
	if p.csl != "" {
		args = append(args, "--csl", p.csl)
	}
	return append(args, "-f", "markdown", "-t", "markdown", "--wrap=none")
}

// Fingerprint identifies the bibliography and style files in their current
// state, so edits to them invalidate memoized results.
func (p *Pandoc) Fingerprint() string {
	parts := []string{p.path, p.bibliography, p.csl}
	for _, f := range []string{p.bibliography, p.csl} {
		if f == "" {
			continue
		}
		if info, err := os.Stat(f); err == nil {
			parts = append(parts, fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size()))
		}
	}
	return strings.Join(parts, "\x00")
}

// Resolve renders the bibliography for req's keys.
func (p *Pandoc) Resolve(ctx context.Context, req Request) (bib *Bibliography, err error) {
	if p.path == "" {
		return nil, ErrPandocNotConfigured
	}
	if p.bibliography == "" {
		return nil, ErrBibliographyNotConfigured
	}
	if len(req.Keys) == 0 {
		return nil, ErrNoCitations
	}

	ctx, span := tracing.Start(ctx, tracing.SpanPandocExec,
		attribute.String(tracing.AttrPandocPath, p.path),
		attribute.Int(tracing.AttrKeyCount, len(req.Keys)),
	)
	defer func() { tracing.End(span, err) }()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	log.Debug(log.CatRefs, "Running pandoc", "file", req.File, "keys", len(req.Keys), "args", strings.Join(p.Args(), " "))

	out, err := p.run(ctx, p.path, p.Args(), nociteDocument(req.Keys))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn(log.CatRefs, "pandoc timed out", "file", req.File, "timeout", p.timeout)
			return nil, fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
		}
		log.ErrorErr(log.CatRefs, "pandoc failed", err, "file", req.File)
		return nil, err
	}

	bib = ParseBibliography(req.File, req.Keys, out)
	log.Debug(log.CatRefs, "pandoc finished", "file", req.File, "entries", len(bib.Entries), "took", time.Since(start))
	return bib, nil
}

// nociteDocument builds a body-less document listing keys under nocite,
// so pandoc emits only the reference list.
func nociteDocument(keys []string) string {
	var b strings.Builder
	b.WriteString("---\nnocite: |\n  ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("@" + k)
	}
	b.WriteString("\n---\n")
	return b.String()
}

func execPandoc(ctx context.Context, path string, args []string, stdin string) (string, error) {
	// #nosec G204 -- path and args come from the user's own configuration
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("running pandoc: %w: %s", err, msg)
		}
		return "", fmt.Errorf("running pandoc: %w", err)
	}
	return stdout.String(), nil
}
