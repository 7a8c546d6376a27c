// Package scratch provides short-lived storage for intermediate files.
//
// A Store hands out uniquely named files that live only as long as the
// operation that created them. DirStore keeps them in a directory on disk;
// MemStore keeps them in memory so callers can be tested without touching
// the filesystem.
package scratch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned when writing to a file that was already closed.
var ErrClosed = errors.New("scratch file closed")

// File is a scratch file open for writing.
type File interface {
	io.WriteCloser
	// Name returns the handle used to Open or Remove the file.
	Name() string
}

// Store creates, reads and removes scratch files.
type Store interface {
	// Create returns a new empty file whose name starts with prefix and
	// ends with suffix. Names never collide.
	Create(prefix, suffix string) (File, error)
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
}

// DirStore keeps scratch files in a directory.
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir, creating it if needed.
// An empty dir means os.TempDir().
func NewDirStore(dir string) (*DirStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the directory files are created in.
func (s *DirStore) Dir() string {
	return s.dir
}

// Create implements Store.
func (s *DirStore) Create(prefix, suffix string) (File, error) {
	f, err := os.CreateTemp(s.dir, prefix+"*"+suffix)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Open implements Store.
func (s *DirStore) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove implements Store.
func (s *DirStore) Remove(name string) error {
	return os.Remove(name)
}

// System returns a Store creating files in os.TempDir(). The directory is
// resolved on every Create, so changes to TMPDIR are honored.
func System() Store {
	return systemStore{}
}

type systemStore struct{}

func (systemStore) Create(prefix, suffix string) (File, error) {
	return (&DirStore{dir: os.TempDir()}).Create(prefix, suffix)
}

func (systemStore) Open(name string) (io.ReadCloser, error) {
	return (&DirStore{}).Open(name)
}

func (systemStore) Remove(name string) error {
	return os.Remove(name)
}

// MemStore is a thread-safe in-memory Store.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

// Create implements Store.
func (s *MemStore) Create(prefix, suffix string) (File, error) {
	name := prefix + uuid.New().String() + suffix

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = nil
	return &memFile{store: s, name: name}, nil
}

// Open implements Store. The returned reader sees the contents at the time
// of the call.
func (s *MemStore) Open(name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Remove implements Store.
func (s *MemStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(s.files, name)
	return nil
}

// Len returns the number of files currently held.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Names returns the names of the files currently held, sorted.
func (s *MemStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *MemStore) append(name string, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrNotExist}
	}
	s.files[name] = append(data, p...)
	return nil
}

type memFile struct {
	store  *MemStore
	name   string
	closed bool
}

func (f *memFile) Name() string { return f.name }

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if err := f.store.append(f.name, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (f *memFile) Close() error {
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	return nil
}
