package storage

import (
	"context"
	"sync"

	"hirenest/application/ports"
	pkgerrors "hirenest/pkg/errors"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps blobs in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	refs    refFormat
}

// NewMemoryStore creates an empty in-memory blob store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		refs:    refFormat{scheme: "mem", bucket: "local"},
	}
}

var _ ports.BlobStore = (*MemoryStore)(nil)

// Put stores a copy of data under key
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return s.refs.ref(key), nil
}

// Get returns a copy of the object behind ref
func (s *MemoryStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	key, err := s.refs.key(ref)
	if err != nil {
		return nil, "", pkgerrors.NewValidationError(err.Error())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, "", pkgerrors.NewNotFoundError("Blob")
	}
	return append([]byte(nil), obj.data...), obj.contentType, nil
}

// Delete removes the object behind ref; absent objects are ignored
func (s *MemoryStore) Delete(ctx context.Context, ref string) error {
	key, err := s.refs.key(ref)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len reports the number of stored objects
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
