// Package file provides file-based persistence for journeys and executions.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/journeys/pkg/lease"
	"github.com/dukex/journeys/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
// Journeys are stored as YAML documents under journeys/ and executions as JSON
// under executions/.
type Persistence struct {
	*JourneyRepository
	*ExecutionRepository

	root string
}

type Option func(*Persistence)

// WithLocker guards execution writes with locker so several processes can
// share one directory.
func WithLocker(locker lease.Locker) Option {
	return func(fp *Persistence) {
		fp.ExecutionRepository.locker = locker
	}
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string, opts ...Option) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	fp := &Persistence{
		JourneyRepository:   NewJourneyRepository(cleanRoot),
		ExecutionRepository: NewExecutionRepository(cleanRoot),
		root:                cleanRoot,
	}

	for _, opt := range opts {
		opt(fp)
	}

	return fp
}

var _ persistence.Persistence = (*Persistence)(nil)

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// validateID rejects identifiers that could escape the storage directory.
func validateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("id %q contains invalid characters", id)
	}

	return nil
}

// writeAtomic replaces path with data so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(path), 0750)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}

	_, err = tmp.Write(data)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	err = tmp.Close()
	if err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	err = os.Chmod(tmp.Name(), 0600)
	if err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), path)
}
