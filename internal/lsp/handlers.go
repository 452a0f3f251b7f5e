package lsp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/references"
	"github.com/zjrosen/citemark/internal/tracing"
)

func (s *Server) initialize(
	_ *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	if params.ClientInfo != nil {
		log.Info(log.CatLSP, "Initialize", "client", params.ClientInfo.Name)
	}

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: legend(),
		Full:   true,
		Range:  true,
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	log.Debug(log.CatLSP, "Client initialized")
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	log.Info(log.CatLSP, "Shutdown")
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(
	_ *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	s.docs[uri] = newDocument(uri, params.TextDocument.Text)
	s.mu.Unlock()

	log.Debug(log.CatLSP, "DidOpen", "uri", uri, "bytes", len(params.TextDocument.Text))
	return nil
}

func (s *Server) textDocumentDidChange(
	_ *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[uri]
	if !ok {
		return fmt.Errorf("change for unopened document %s", uri)
	}
	for _, change := range params.ContentChanges {
		next, ok := d.apply(change)
		if !ok {
			return fmt.Errorf("unexpected change event type %T", change)
		}
		d = next
	}
	s.docs[uri] = d
	log.Debug(log.CatLSP, "DidChange", "uri", uri, "changes", len(params.ContentChanges))
	return nil
}

func (s *Server) textDocumentDidClose(
	_ *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()

	log.Debug(log.CatLSP, "DidClose", "uri", params.TextDocument.URI)
	return nil
}

func (s *Server) textDocumentSemanticTokensFull(
	_ *glsp.Context,
	params *protocol.SemanticTokensParams,
) (*protocol.SemanticTokens, error) {
	d, ok := s.document(params.TextDocument.URI)
	if !ok {
		return &protocol.SemanticTokens{Data: []protocol.UInteger{}}, nil
	}
	r := citation.Range{From: 0, To: d.Len()}
	return s.semanticTokens(d, "semanticTokens/full", r, 0, d.idx.Lines()-1), nil
}

func (s *Server) textDocumentSemanticTokensRange(
	_ *glsp.Context,
	params *protocol.SemanticTokensRangeParams,
) (any, error) {
	d, ok := s.document(params.TextDocument.URI)
	if !ok {
		return &protocol.SemanticTokens{Data: []protocol.UInteger{}}, nil
	}
	r, first, last := d.lineRange(params.Range)
	return s.semanticTokens(d, "semanticTokens/range", r, first, last), nil
}

// semanticTokens runs one scan pass over r and encodes lines first..last.
func (s *Server) semanticTokens(d *document, method string, r citation.Range, first, last int) *protocol.SemanticTokens {
	_, span := tracing.Start(context.Background(), tracing.SpanLSPPrefix+method,
		attribute.String(tracing.AttrLSPMethod, method),
		attribute.String(tracing.AttrLSPURI, d.uri),
		attribute.Int(tracing.AttrScanBytes, r.To-r.From),
	)
	spans := s.scanner.Scan(d, []citation.Range{r}, d.uri)
	data := encodeTokens(d, spans, first, last)
	span.SetAttributes(attribute.Int(tracing.AttrSpanCount, len(spans)))
	tracing.End(span, nil)

	log.Debug(log.CatLSP, "Semantic tokens", "method", method, "uri", d.uri, "range", r, "spans", len(spans))
	return &protocol.SemanticTokens{Data: data}
}

func (s *Server) textDocumentHover(
	_ *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	d, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	// Bracketed citations may wrap, so hover sees the same spans as a
	// full token request rather than those of the hovered line alone.
	offset := d.offsetAt(params.Position)
	spans := s.scanner.Scan(d, []citation.Range{{From: 0, To: d.Len()}}, d.uri)
	hit, ok := citation.SpanAt(spans, offset)
	if !ok || hit.Kind != citation.KindCitationKey {
		return nil, nil
	}

	ctx, span := tracing.Start(context.Background(), tracing.SpanLSPPrefix+"hover",
		attribute.String(tracing.AttrLSPMethod, "hover"),
		attribute.String(tracing.AttrLSPURI, d.uri),
	)
	defer tracing.End(span, nil)

	start, end := d.positionAt(hit.Start), d.positionAt(hit.End)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: s.hoverText(ctx, d.uri, hit.Key),
		},
		Range: &protocol.Range{Start: start, End: end},
	}, nil
}

// hoverText renders the key and, when a resolver is set, its entry.
func (s *Server) hoverText(ctx context.Context, uri, key string) string {
	var b strings.Builder
	b.WriteString("`" + key + "`")
	if s.resolver == nil {
		return b.String()
	}

	ctx, cancel := context.WithTimeout(ctx, s.hoverTimeout)
	defer cancel()

	bib, err := s.resolver.Resolve(ctx, references.RequestForKeys(uri, []string{key}))
	switch {
	case errors.Is(err, references.ErrBibliographyNotConfigured):
		return b.String()
	case err != nil:
		log.ErrorErr(log.CatLSP, "Hover resolve failed", err, "key", key)
		b.WriteString("\n\n_Could not render entry: " + err.Error() + "_")
	default:
		if e, ok := bib.Entry(key); ok {
			b.WriteString("\n\n" + e.Markdown)
		} else {
			b.WriteString("\n\n_Not found in bibliography._")
		}
	}
	return b.String()
}
