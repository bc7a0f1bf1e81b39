package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	appPortBase = 8000
	dbPortBase  = 9000
	maxPort     = 65535
)

// Store is the single-file JSON document backing every Deployment and
// PortAllocation. Reads are served from an in-memory cache kept in sync
// with the file; writes rewrite the whole document atomically (temp file
// plus rename), matching the teacher's state-file persistence.
type Store struct {
	mu   sync.RWMutex
	doc  *document
	path string
}

// Open loads path into memory, if it exists, and returns a ready Store. A
// missing file is not an error: the store starts with an empty document
// and the file is created on first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: newDocument()}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("tracker: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tracker: parse %s: %w", path, err)
	}
	if doc.Deployments == nil {
		doc.Deployments = make(map[string]*Deployment)
	}
	if doc.PortAllocations == nil {
		doc.PortAllocations = make(map[string]*PortAllocation)
	}
	s.doc = &doc
	return s, nil
}

// GetDeployment returns a copy of the deployment record for id.
func (s *Store) GetDeployment(id string) (*Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doc.Deployments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// GetAllDeployments returns a copy of every tracked deployment.
func (s *Store) GetAllDeployments() []*Deployment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Deployment, 0, len(s.doc.Deployments))
	for _, d := range s.doc.Deployments {
		cp := *d
		out = append(out, &cp)
	}
	return out
}

// GetDeploymentAge returns the number of whole days since createdAt.
func (s *Store) GetDeploymentAge(id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doc.Deployments[id]
	if !ok {
		return 0, ErrNotFound
	}
	return int(time.Since(d.CreatedAt).Hours() / 24), nil
}

// SaveDeployment upserts d, stamping UpdatedAt (and CreatedAt if unset).
func (s *Store) SaveDeployment(d *Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	cp := *d
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.doc.Deployments[cp.DeploymentID] = &cp
	return s.persistLocked()
}

// DeleteDeployment removes id's deployment record. It does not release
// ports; callers call ReleasePorts separately per spec.md's cleanup order.
func (s *Store) DeleteDeployment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Deployments[id]; !ok {
		return ErrNotFound
	}
	delete(s.doc.Deployments, id)
	return s.persistLocked()
}

// UpdateDeploymentStatus transitions id's status and bumps UpdatedAt.
func (s *Store) UpdateDeploymentStatus(id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doc.Deployments[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = time.Now().UTC()
	return s.persistLocked()
}

// UpdateDeploymentComment records the PR comment id owned by this
// deployment.
func (s *Store) UpdateDeploymentComment(id string, commentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doc.Deployments[id]
	if !ok {
		return ErrNotFound
	}
	d.CommentID = commentID
	d.UpdatedAt = time.Now().UTC()
	return s.persistLocked()
}

// ReleasePorts drops id's port allocation, if any.
func (s *Store) ReleasePorts(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.PortAllocations, id)
	return s.persistLocked()
}

// AllocatePorts returns id's existing allocation if one exists (idempotent),
// else picks the smallest available app/db ports not in excludePorts or
// already assigned to another deployment, writes the allocation, and
// returns it.
func (s *Store) AllocatePorts(id string, excludePorts []int) (*PortAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.doc.PortAllocations[id]; ok {
		cp := *existing
		return &cp, nil
	}

	excluded := make(map[int]bool, len(excludePorts))
	for _, p := range excludePorts {
		excluded[p] = true
	}

	usedApp := make(map[int]bool)
	usedDB := make(map[int]bool)
	for _, alloc := range s.doc.PortAllocations {
		usedApp[alloc.ExposedAppPort] = true
		usedDB[alloc.ExposedDBPort] = true
	}

	appPort, err := pickPort(appPortBase, usedApp, excluded)
	if err != nil {
		return nil, err
	}
	dbPort, err := pickPort(dbPortBase, usedDB, excluded)
	if err != nil {
		return nil, err
	}

	alloc := &PortAllocation{ExposedAppPort: appPort, ExposedDBPort: dbPort}
	s.doc.PortAllocations[id] = alloc
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	cp := *alloc
	return &cp, nil
}

func pickPort(base int, used, excluded map[int]bool) (int, error) {
	for p := base; p <= maxPort; p++ {
		if used[p] || excluded[p] {
			continue
		}
		return p, nil
	}
	return 0, ErrPortsExhausted
}

// persistLocked writes the document atomically. Caller must hold s.mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("tracker: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("tracker: mkdir %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, "deployments-*.json.tmp")
	if err != nil {
		return fmt.Errorf("tracker: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("tracker: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("tracker: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tracker: close temp: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tracker: rename: %w", err)
	}
	return nil
}
