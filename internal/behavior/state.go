// Package behavior provides the shared, thread-safe state container every
// language Behavior embeds: four indices over imports and file<->module
// mappings, guarded by a single RWMutex, write-mostly during ingestion
// and read-mostly during resolve.
package behavior

import (
	"sync"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// State is the per-language mutable state every Behavior owns. It is
// explicit and injectable (one instance per language, constructed by that
// language's MakeBehavior) rather than a global.
type State struct {
	mu sync.RWMutex

	importsByFile map[symbol.FileID][]symbol.Import
	fileToModule  map[symbol.FileID]string
	moduleToFile  map[string]symbol.FileID
	pathToFileID  map[string]symbol.FileID
}

// NewState creates an empty state container.
func NewState() *State {
	return &State{
		importsByFile: make(map[symbol.FileID][]symbol.Import),
		fileToModule:  make(map[symbol.FileID]string),
		moduleToFile:  make(map[string]symbol.FileID),
		pathToFileID:  make(map[string]symbol.FileID),
	}
}

// RegisterFile records path/fileID/modulePath across all four indices.
func (s *State) RegisterFile(path string, fileID symbol.FileID, modulePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileToModule[fileID] = modulePath
	s.moduleToFile[modulePath] = fileID
	s.pathToFileID[path] = fileID
}

// AddImport appends an import to its file's import list.
func (s *State) AddImport(imp symbol.Import) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.importsByFile[imp.FileID] = append(s.importsByFile[imp.FileID], imp)
}

// GetImportsForFile returns every import registered for fileID.
func (s *State) GetImportsForFile(fileID symbol.FileID) []symbol.Import {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]symbol.Import(nil), s.importsByFile[fileID]...)
}

// GetModulePath returns the module path registered for fileID.
func (s *State) GetModulePath(fileID symbol.FileID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mp, ok := s.fileToModule[fileID]
	return mp, ok
}

// ResolveModuleToFile maps a module path back to the FileID that declared it.
func (s *State) ResolveModuleToFile(modulePath string) (symbol.FileID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.moduleToFile[modulePath]
	return id, ok
}

// GetFileID returns the FileID registered for path.
func (s *State) GetFileID(path string) (symbol.FileID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pathToFileID[path]
	return id, ok
}

// RemoveFile clears every index entry owned by fileID, used when a file is
// re-indexed or removed.
func (s *State) RemoveFile(fileID symbol.FileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mp, ok := s.fileToModule[fileID]; ok {
		delete(s.moduleToFile, mp)
	}
	delete(s.fileToModule, fileID)
	delete(s.importsByFile, fileID)
	for path, id := range s.pathToFileID {
		if id == fileID {
			delete(s.pathToFileID, path)
		}
	}
}

// Clear resets all state, used when the whole index is cleared.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.importsByFile = make(map[symbol.FileID][]symbol.Import)
	s.fileToModule = make(map[symbol.FileID]string)
	s.moduleToFile = make(map[string]symbol.FileID)
	s.pathToFileID = make(map[string]symbol.FileID)
}

// RLock/RUnlock expose the read side of the state's lock to callers that
// want to hold it across several reads. The indexer's resolution phase does
// not call them; each accessor above takes the read lock on its own.
func (s *State) RLock()   { s.mu.RLock() }
func (s *State) RUnlock() { s.mu.RUnlock() }
