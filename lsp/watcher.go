// Copyright © 2024 The ELPS authors

package lsp

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// watch starts watching root and its directories for changes to Twee and
// macro definition files.
func (s *Server) watch(root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && analysis.ShouldSkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
	if err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w
	go s.watchLoop(w)
	return nil
}

func (s *Server) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if !analysis.ShouldSkipDir(fi.Name()) {
						_ = w.Add(ev.Name)
					}
					continue
				}
			}
			removed := ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
			s.fileChanged(ev.Name, removed)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warningf("file watcher: %v", err)
		}
	}
}

// fileChanged updates the server after a file in the workspace changed.
// Changed definition files reload the registry and re-analyze open
// documents.
func (s *Server) fileChanged(path string, removed bool) {
	defer func() { _ = recover() }() // don't crash the server on update panic
	switch {
	case isDefinitionsFile(path):
		log.Infof("reloading macro definitions after change to %s", path)
		s.loadDefinitions()
		s.reanalyzeOpenDocuments()
	case analysis.IsTweeFile(path):
		if removed {
			s.workspace.Remove(analysis.PathURI(path))
			return
		}
		s.indexFile(path)
	}
}

// workspaceDidChangeWatchedFiles handles file change notifications from
// clients which watch files themselves.
func (s *Server) workspaceDidChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	s.captureNotify(ctx)
	for _, change := range params.Changes {
		s.fileChanged(uriToPath(change.URI), change.Type == protocol.FileChangeTypeDeleted)
	}
	return nil
}
