package testutil

import (
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"
)

// MockFilesystem tracks file presence in memory and records every mutation,
// so executor and restorer behavior can be asserted without touching disk.
type MockFilesystem struct {
	mu    sync.Mutex
	files map[string]int64
	moves []MoveCall

	// FailMove makes Move fail for the given source paths.
	FailMove map[string]error
}

// MoveCall records one Move invocation.
type MoveCall struct {
	Source      string
	Destination string
}

// NewMockFilesystem creates an empty MockFilesystem.
func NewMockFilesystem() *MockFilesystem {
	return &MockFilesystem{
		files:    make(map[string]int64),
		FailMove: make(map[string]error),
	}
}

// AddFile places a file of the given size at path.
func (m *MockFilesystem) AddFile(path string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = size
}

func (m *MockFilesystem) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	size, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return mockFileInfo{name: path, size: size}, nil
}

func (m *MockFilesystem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *MockFilesystem) Move(source, destination string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailMove[source]; ok {
		return err
	}
	size, ok := m.files[source]
	if !ok {
		return fmt.Errorf("source does not exist: %s", source)
	}
	if _, occupied := m.files[destination]; occupied {
		return fmt.Errorf("destination already exists: %s", destination)
	}
	delete(m.files, source)
	m.files[destination] = size
	m.moves = append(m.moves, MoveCall{Source: source, Destination: destination})
	return nil
}

func (m *MockFilesystem) RemoveDir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

// Moves returns the recorded Move calls in order.
func (m *MockFilesystem) Moves() []MoveCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MoveCall, len(m.moves))
	copy(out, m.moves)
	return out
}

// Paths returns every present path, sorted.
func (m *MockFilesystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type mockFileInfo struct {
	name string
	size int64
}

func (i mockFileInfo) Name() string       { return i.name }
func (i mockFileInfo) Size() int64        { return i.size }
func (i mockFileInfo) Mode() fs.FileMode  { return 0o644 }
func (i mockFileInfo) ModTime() time.Time { return time.Time{} }
func (i mockFileInfo) IsDir() bool        { return false }
func (i mockFileInfo) Sys() any           { return nil }
