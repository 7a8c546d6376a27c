// Package scratchtest provides a fault-injecting scratch.Store for tests.
package scratchtest

import (
	"errors"
	"io"
	"sync"

	"github.com/TanyaEf/rest-client/pkg/scratch"
)

// ErrInjected is the error returned by injected faults.
var ErrInjected = errors.New("injected scratch fault")

// FaultStore wraps a Store and fails selected calls.
// Zero values disable the corresponding fault.
type FaultStore struct {
	scratch.Store

	// FailCreateAt fails the Nth call to Create (1-based).
	FailCreateAt int
	// FailWriteAfter fails writes once a file has received this many bytes.
	FailWriteAfter int64
	// FailOpen fails every Open.
	FailOpen bool
	// FailRemove fails every Remove without removing anything.
	FailRemove bool

	mu      sync.Mutex
	creates int
}

// Create implements scratch.Store.
func (s *FaultStore) Create(prefix, suffix string) (scratch.File, error) {
	s.mu.Lock()
	s.creates++
	n := s.creates
	s.mu.Unlock()

	if s.FailCreateAt > 0 && n == s.FailCreateAt {
		return nil, ErrInjected
	}
	f, err := s.Store.Create(prefix, suffix)
	if err != nil {
		return nil, err
	}
	if s.FailWriteAfter > 0 {
		return &faultFile{File: f, limit: s.FailWriteAfter}, nil
	}
	return f, nil
}

// Open implements scratch.Store.
func (s *FaultStore) Open(name string) (io.ReadCloser, error) {
	if s.FailOpen {
		return nil, ErrInjected
	}
	return s.Store.Open(name)
}

// Remove implements scratch.Store.
func (s *FaultStore) Remove(name string) error {
	if s.FailRemove {
		return ErrInjected
	}
	return s.Store.Remove(name)
}

// Creates returns how many times Create was called.
func (s *FaultStore) Creates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

type faultFile struct {
	scratch.File
	limit   int64
	written int64
}

func (f *faultFile) Write(p []byte) (int, error) {
	if f.written+int64(len(p)) > f.limit {
		return 0, ErrInjected
	}
	n, err := f.File.Write(p)
	f.written += int64(n)
	return n, err
}
