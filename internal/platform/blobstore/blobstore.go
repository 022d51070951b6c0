// Package blobstore provides object storage for lab report files. It
// defines the Store interface, an in-memory implementation for testing and
// development, and a MinIO-backed implementation for production.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// ErrBlobNotFound is returned by Get and Delete for unknown keys.
var ErrBlobNotFound = errors.New("blob not found")

// MaxFileSize is the maximum allowed blob size in bytes (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// ErrFileTooLarge is returned by Put when content exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

// Store is the contract for blob storage backends. Keys are patient-scoped
// paths of the form "{patientID}/{uuid}{ext}".
type Store interface {
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a thread-safe, in-memory Store for testing and dev.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, key string, content io.Reader, size int64, _ string) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > MaxFileSize {
		return ErrFileTooLarge
	}

	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}
