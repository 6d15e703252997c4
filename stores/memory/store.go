package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"designer-pro/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type asset struct {
	contentType string
	data        []byte
}

// memStore implements both DesignStore and AssetStore in process memory.
type memStore struct {
	mu sync.RWMutex
	// designs is keyed by userID, then by design id.
	designs map[string]map[string]*core.Design
	assets  map[string]asset
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		designs: make(map[string]map[string]*core.Design),
		assets:  make(map[string]asset),
	}
}

func (s *memStore) List(ctx context.Context, userID string, limit int) ([]*core.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userDesigns := s.designs[userID]
	designs := make([]*core.Design, 0, len(userDesigns))
	for _, d := range userDesigns {
		designs = append(designs, d.Clone())
	}
	designs = core.NewestFirst(designs, limit)

	logrus.WithField("user_id", userID).Infof("Listed %d designs", len(designs))
	return designs, nil
}

func (s *memStore) Get(ctx context.Context, userID, id string) (*core.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "design_id": id})
	d, ok := s.designs[userID][id]
	if !ok {
		log.Warn("Design not found for user")
		return nil, fmt.Errorf("design %s: %w", id, core.ErrNotFound)
	}
	log.Info("Design retrieved successfully")
	return d.Clone(), nil
}

func (s *memStore) Create(ctx context.Context, design *core.Design) error {
	if design.UserID == "" {
		return fmt.Errorf("UserID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	design.ID = ulid.Make().String()
	design.CreatedAt = time.Now().UTC()

	userDesigns, ok := s.designs[design.UserID]
	if !ok {
		userDesigns = make(map[string]*core.Design)
		s.designs[design.UserID] = userDesigns
	}
	userDesigns[design.ID] = design.Clone()

	logrus.WithFields(logrus.Fields{
		"user_id":   design.UserID,
		"design_id": design.ID,
		"elements":  len(design.Elements),
	}).Info("Design created successfully")
	return nil
}

func (s *memStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "design_id": id})
	if _, ok := s.designs[userID][id]; !ok {
		log.Warn("Design not found for deletion")
		return fmt.Errorf("design %s: %w", id, core.ErrNotFound)
	}
	delete(s.designs[userID], id)
	log.Info("Design deleted successfully")
	return nil
}

func (s *memStore) Put(ctx context.Context, name, contentType string, data []byte) error {
	if !core.ValidKey(name) {
		return fmt.Errorf("asset %q: %w", name, core.ErrInvalidKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[name] = asset{contentType: contentType, data: append([]byte(nil), data...)}
	logrus.WithFields(logrus.Fields{"asset": name, "data_length": len(data)}).Info("Asset stored")
	return nil
}

func (s *memStore) Open(ctx context.Context, name string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[name]
	if !ok {
		return nil, "", fmt.Errorf("asset %s: %w", name, core.ErrNotFound)
	}
	return append([]byte(nil), a.data...), a.contentType, nil
}
