package reports

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PreviewArtifact is a rendered preview document and the handle it is served under
type PreviewArtifact struct {
	Handle      string
	Data        []byte
	FileName    string
	ContentType string
	CreatedAt   time.Time
}

// HandleRegistry holds revocable preview handles. Every created handle stays
// live until revoked.
type HandleRegistry struct {
	mu        sync.RWMutex
	artifacts map[string]*PreviewArtifact
}

// NewHandleRegistry creates an empty registry
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{artifacts: make(map[string]*PreviewArtifact)}
}

// Create registers a payload and returns its artifact with a fresh handle
func (r *HandleRegistry) Create(data []byte, fileName, contentType string) *PreviewArtifact {
	artifact := &PreviewArtifact{
		Handle:      uuid.NewString(),
		Data:        data,
		FileName:    fileName,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.artifacts[artifact.Handle] = artifact
	return artifact
}

// Get returns the artifact behind a live handle
func (r *HandleRegistry) Get(handle string) (*PreviewArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artifact, ok := r.artifacts[handle]
	if !ok {
		return nil, ErrHandleNotFound
	}
	return artifact, nil
}

// Revoke releases a handle. Revoking an unknown handle is a no-op.
func (r *HandleRegistry) Revoke(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.artifacts[handle]; !ok {
		return false
	}
	delete(r.artifacts, handle)
	return true
}

// Live returns the number of unreleased handles
func (r *HandleRegistry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.artifacts)
}
