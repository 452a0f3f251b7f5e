// Package lsp serves citation highlighting to editors over the Language
// Server Protocol: semantic tokens for every citation span and hover
// on citation keys.
package lsp

import (
	"fmt"
	"sync"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/zjrosen/citemark/internal/citation"
	"github.com/zjrosen/citemark/internal/references"
)

// DefaultHoverTimeout bounds how long hover waits for a bibliography entry.
const DefaultHoverTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	// Resolver renders entries shown on hover. Nil shows the key only.
	Resolver     references.Resolver
	HoverTimeout time.Duration
}

// Server holds the open documents and the protocol handler.
type Server struct {
	name         string
	version      string
	handler      *protocol.Handler
	scanner      *citation.Scanner
	resolver     references.Resolver
	hoverTimeout time.Duration

	mu   sync.RWMutex
	docs map[protocol.DocumentUri]*document
}

// New creates a language server.
func New(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "citemark"
	}
	if opts.HoverTimeout <= 0 {
		opts.HoverTimeout = DefaultHoverTimeout
	}

	ls := &Server{
		name:         opts.Name,
		version:      opts.Version,
		scanner:      citation.NewScanner(citation.NewGrammar()),
		resolver:     opts.Resolver,
		hoverTimeout: opts.HoverTimeout,
		docs:         make(map[protocol.DocumentUri]*document),
	}
	ls.handler = &protocol.Handler{
		Initialize:                      ls.initialize,
		Initialized:                     ls.initialized,
		Shutdown:                        ls.shutdown,
		SetTrace:                        ls.setTrace,
		TextDocumentDidOpen:             ls.textDocumentDidOpen,
		TextDocumentDidChange:           ls.textDocumentDidChange,
		TextDocumentDidClose:            ls.textDocumentDidClose,
		TextDocumentSemanticTokensFull:  ls.textDocumentSemanticTokensFull,
		TextDocumentSemanticTokensRange: ls.textDocumentSemanticTokensRange,
		TextDocumentHover:               ls.textDocumentHover,
	}
	return ls
}

// RunStdio serves the protocol on stdin and stdout until the client exits.
func (s *Server) RunStdio() error {
	srv := server.NewServer(s.handler, s.name, false)
	if err := srv.RunStdio(); err != nil {
		return fmt.Errorf("running language server: %w", err)
	}
	return nil
}

func (s *Server) document(uri protocol.DocumentUri) (*document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	return d, ok
}
