package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
)

// FileStore keeps secrets in a JSON object on disk, rewritten on every
// change. With an empty path it only keeps them in memory.
type FileStore struct {
	mu          sync.RWMutex
	persistPath string
	secrets     map[string]string
}

var _ SecretStore = (*FileStore)(nil)

// NewFileStore creates a FileStore, loading from disk if path provided.
func NewFileStore(persistPath string) (*FileStore, error) {
	s := &FileStore{
		persistPath: persistPath,
		secrets:     make(map[string]string),
	}
	if persistPath == "" {
		return s, nil
	}

	f, err := os.Open(persistPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("File %s doesn't exist, but will be created on first write", persistPath)

			return s, nil
		}

		return nil, fmt.Errorf("os.Open failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(&s.secrets); err != nil {
		return nil, fmt.Errorf("json.NewDecoder.Decode failed: %w", err)
	}
	if s.secrets == nil {
		s.secrets = make(map[string]string)
	}

	return s, nil
}

// Get returns the secret stored under name.
func (s *FileStore) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.secrets[name]
	if !ok {
		return "", ErrSecretNotFound
	}

	return v, nil
}

// Set stores value under name and persists the store.
func (s *FileStore) Set(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.secrets[name]
	s.secrets[name] = value

	if err := s.persist(); err != nil {
		if had {
			s.secrets[name] = prev
		} else {
			delete(s.secrets, name)
		}
		return err
	}

	return nil
}

// Delete removes name and persists the store.
func (s *FileStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[name]; !ok {
		return nil
	}
	delete(s.secrets, name)

	return s.persist()
}

// persist must be called with mu held.
func (s *FileStore) persist() error {
	if s.persistPath == "" {
		return nil
	}

	f, err := os.OpenFile(s.persistPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("os.OpenFile failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(s.secrets); err != nil {
		return fmt.Errorf("json.NewEncoder.Encode failed: %w", err)
	}

	return nil
}
