// Copyright © 2024 The ELPS authors

// Package lsp implements a Language Server Protocol server for Twee 3
// stories written for SugarCube 2.  It provides diagnostics, semantic
// tokens, hover, go-to-definition, references, completion, document and
// workspace symbols, folding and quick fixes.
package lsp

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/sgranade/twine-twee-language-sub001/sugarcube"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const serverName = "tweels"

var log = commonlog.GetLogger("tweels.lsp")

// Settings configures analysis for every document the server sees.
type Settings struct {
	// Format and FormatVersion are used unless a document's StoryData
	// passage names a format.
	Format        string
	FormatVersion string

	// WarnUnknownMacros reports macros missing from the registry.
	WarnUnknownMacros bool

	// Definitions are macro definition files loaded in addition to the
	// *.twee-config.yaml files found in the workspace.
	Definitions []string

	// Watch enables the file system watcher on the workspace root.
	Watch bool
}

// Server is the Twee language server.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	docs     *DocumentStore
	rootURI  string
	rootPath string

	settings  Settings
	workspace *analysis.Workspace
	indexOnce sync.Once

	// registry holds the builtin macros merged with the loaded definition
	// files.
	registryMu sync.RWMutex
	base       *sugarcube.Registry
	registry   *sugarcube.Registry

	watcher *fsnotify.Watcher

	// Debouncer for didChange notifications.
	debounceMu sync.Mutex
	debounce   map[string]*time.Timer

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	// Overridable for testing.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithSettings sets the analysis settings.
func WithSettings(st Settings) Option {
	return func(s *Server) { s.settings = st }
}

// WithRegistry replaces the builtin SugarCube macros as the base registry.
func WithRegistry(reg *sugarcube.Registry) Option {
	return func(s *Server) { s.base = reg }
}

// New creates a new Twee LSP server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:      NewDocumentStore(),
		workspace: analysis.NewWorkspace(),
		debounce:  make(map[string]*time.Timer),
		exitFn:    os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	if s.base == nil {
		s.base = sugarcube.BuiltinMacros()
	}
	s.registry = s.base

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:              s.textDocumentHover,
		TextDocumentDefinition:         s.textDocumentDefinition,
		TextDocumentCompletion:         s.textDocumentCompletion,
		TextDocumentReferences:         s.textDocumentReferences,
		TextDocumentDocumentSymbol:     s.textDocumentDocumentSymbol,
		TextDocumentFoldingRange:       s.textDocumentFoldingRange,
		TextDocumentSemanticTokensFull: s.textDocumentSemanticTokensFull,
		TextDocumentCodeAction:         s.textDocumentCodeAction,

		WorkspaceSymbol:                s.workspaceSymbol,
		WorkspaceDidChangeWatchedFiles: s.workspaceDidChangeWatchedFiles,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if params.RootURI != nil {
		s.rootURI = *params.RootURI
		s.rootPath = uriToPath(s.rootURI)
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
		s.rootURI = pathToURI(s.rootPath)
	}
	log.Infof("initializing workspace %q", s.rootPath)

	capabilities := s.handler.CreateServerCapabilities()

	// Override text document sync to full.
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"<", "[", "$", "_", "|", ">"},
	}

	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: semanticTokenLegend(),
		Full:   true,
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// initialized handles the initialized notification by building the
// workspace index in the background.
func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	go func() {
		defer func() { _ = recover() }() // don't crash the server on scan panic
		s.ensureWorkspaceIndex()
		s.reanalyzeOpenDocuments()
	}()
	return nil
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	// Cancel any pending debounce timers.
	s.debounceMu.Lock()
	for _, t := range s.debounce {
		t.Stop()
	}
	s.debounce = make(map[string]*time.Timer)
	s.debounceMu.Unlock()

	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// ensureWorkspaceIndex guarantees the workspace index is built at least
// once.  The index is built on the initialized notification or on the
// first request that needs analysis, whichever comes first.
func (s *Server) ensureWorkspaceIndex() {
	s.indexOnce.Do(func() {
		s.loadDefinitions()
		s.buildWorkspaceIndex()
		if s.settings.Watch && s.rootPath != "" {
			if err := s.watch(s.rootPath); err != nil {
				log.Warningf("cannot watch %s: %v", s.rootPath, err)
			}
		}
	})
}

// buildWorkspaceIndex analyzes every Twee file below the workspace root.
func (s *Server) buildWorkspaceIndex() {
	defer func() { _ = recover() }() // don't crash the server on scan panic
	if s.rootPath == "" {
		return
	}
	ws, err := analysis.ScanWorkspace(context.Background(), s.rootPath, s.analysisConfig())
	if err != nil {
		log.Errorf("scanning workspace: %v", err)
		return
	}
	for _, uri := range ws.URIs() {
		if s.docs.Get(uri) == nil {
			s.workspace.Update(ws.Get(uri))
		}
	}
	log.Infof("indexed %d files", len(ws.URIs()))
}

// definitionFiles returns the configured macro definition files and those
// found in the workspace.
func (s *Server) definitionFiles() []string {
	paths := append([]string(nil), s.settings.Definitions...)
	if s.rootPath != "" {
		found, err := analysis.FindFiles(s.rootPath, isDefinitionsFile)
		if err == nil {
			paths = append(paths, found...)
		}
	}
	return paths
}

func isDefinitionsFile(path string) bool {
	return strings.HasSuffix(path, sugarcube.DefinitionsSuffix)
}

// loadDefinitions rebuilds the registry from the definition files.
// Files which fail to load are reported to the client and skipped.
func (s *Server) loadDefinitions() {
	defs, err := sugarcube.LoadDefinitionFiles(s.definitionFiles()...)
	if err != nil {
		log.Warningf("loading macro definitions: %v", err)
		s.sendNotification(protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeWarning,
			Message: err.Error(),
		})
	}
	reg := s.base
	if defs != nil && defs.Len() > 0 {
		reg = reg.Merge(defs)
	}
	s.registryMu.Lock()
	s.registry = reg
	s.registryMu.Unlock()
}

// macros returns the registry merged with the widgets defined anywhere in
// the workspace.
func (s *Server) macros() *sugarcube.Registry {
	s.registryMu.RLock()
	reg := s.registry
	s.registryMu.RUnlock()
	if widgets := s.workspace.Widgets(); len(widgets) > 0 {
		reg = reg.Merge(sugarcube.NewRegistry(widgets...))
	}
	return reg
}

// analysisConfig returns the configuration used to analyze documents.
func (s *Server) analysisConfig() *analysis.Config {
	return &analysis.Config{
		Registry:          s.macros(),
		Format:            s.settings.Format,
		FormatVersion:     s.settings.FormatVersion,
		WarnUnknownMacros: s.settings.WarnUnknownMacros,
	}
}

// reanalyzeOpenDocuments invalidates cached analysis for all open documents
// and re-publishes diagnostics with the current configuration.
func (s *Server) reanalyzeOpenDocuments() {
	for _, doc := range s.docs.All() {
		doc.mu.Lock()
		doc.analysis = nil
		doc.mu.Unlock()
		s.analyzeAndPublish(doc)
	}
}

// ensureAnalysis ensures the document has a current analysis result and
// returns it.
func (s *Server) ensureAnalysis(doc *Document) *analysis.Result {
	// Build the workspace index before locking doc; building it may
	// analyze documents.
	s.ensureWorkspaceIndex()

	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.analysis != nil {
		return doc.analysis
	}
	res := doc.analyze(context.Background(), s.analysisConfig())
	if res != nil {
		s.workspace.Update(res)
	}
	return res
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a debounce).
func (s *Server) captureNotify(ctx *glsp.Context) {
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
