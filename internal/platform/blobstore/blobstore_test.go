package blobstore

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	content := []byte("%PDF-1.4 fake report")
	err := s.Put(ctx, "p1/r1.pdf", bytes.NewReader(content), int64(len(content)), "application/pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := s.Get(ctx, "p1/r1.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: got %q", got)
	}

	if err := s.Delete(ctx, "p1/r1.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "p1/r1.pdf"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "nope"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestMemoryStore_DeleteMissing(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Delete(context.Background(), "nope"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestMemoryStore_RejectsOversizedDeclaredSize(t *testing.T) {
	s := NewMemoryStore()
	err := s.Put(context.Background(), "big", strings.NewReader("x"), MaxFileSize+1, "text/plain")
	if err != ErrFileTooLarge {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}
