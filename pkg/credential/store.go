// Package credential implements the encrypted single-file credential
// store used by interactive (SSH-backed) connection strategies.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

// ErrNotFound is returned by Get/Update/Delete/MarkUsed for an unknown id.
var ErrNotFound = errors.New("credential: not found")

// Store is a single-writer credential store backed by one encrypted
// file. Every mutation rewrites the whole file, matching the store's
// "single writer, full-file rewrite" shared-resource policy.
type Store struct {
	path           string
	masterPassword model.SensitiveString

	mu          sync.Mutex
	credentials map[string]model.Credential
}

// Open loads an existing store at path, decrypting it with
// masterPassword, or initializes an empty one if the file does not yet
// exist. A wrong password or corrupted file surfaces ErrDecryptionFailed.
func Open(path string, masterPassword string) (*Store, error) {
	s := &Store{
		path:           path,
		masterPassword: model.NewSensitiveString(masterPassword),
		credentials:    make(map[string]model.Credential),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("credential: create data directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("credential: stat store file: %w", err)
	}

	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("credential: read store file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	plaintext, err := decrypt(s.masterPassword.String(), raw)
	if err != nil {
		return err
	}

	var creds map[string]model.Credential
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return fmt.Errorf("credential: decode store contents: %w", err)
	}
	s.credentials = creds
	return nil
}

func (s *Store) save() error {
	plaintext, err := json.Marshal(s.credentials)
	if err != nil {
		return fmt.Errorf("credential: encode store contents: %w", err)
	}
	ciphertext, err := encrypt(s.masterPassword.String(), plaintext)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, ciphertext, 0600); err != nil {
		return fmt.Errorf("credential: write store file: %w", err)
	}
	return nil
}

// Add stores a new credential and returns its assigned id.
func (s *Store) Add(name string, description *string, secret model.Secret) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := generateID(s.credentials)
	cred := model.Credential{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Secret:      secret,
	}
	s.credentials[id] = cred

	if err := s.save(); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the full credential, including secret material.
func (s *Store) Get(id string) (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return model.Credential{}, ErrNotFound
	}
	return cred, nil
}

// List returns every stored credential's summary, without secret
// material, ordered by name.
func (s *Store) List() []model.CredentialSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]model.CredentialSummary, 0, len(s.credentials))
	for _, cred := range s.credentials {
		c := cred
		summaries = append(summaries, model.Summarize(&c))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries
}

// Update overwrites name, description, and secret material for an
// existing credential, preserving CreatedAt and LastUsedAt.
func (s *Store) Update(id string, name string, description *string, secret model.Secret) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return ErrNotFound
	}
	cred.Name = name
	cred.Description = description
	cred.Secret = secret
	s.credentials[id] = cred

	return s.save()
}

// Delete removes a credential.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.credentials[id]; !ok {
		return ErrNotFound
	}
	delete(s.credentials, id)

	return s.save()
}

// MarkUsed stamps a credential's last-used time to now.
func (s *Store) MarkUsed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	cred.LastUsedAt = &now
	s.credentials[id] = cred

	return s.save()
}
