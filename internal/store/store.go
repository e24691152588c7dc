// Package store implements the authoritative in-memory feature
// database spec.md §4.B describes: create/updateGeometry/
// updateProperty/delete plus copy-returning readers, with mutation
// scopes that coalesce nested store calls into a single change batch
// per top-level mode handler.
package store

import (
	"fmt"
	"sync"

	"github.com/mohammed-shakir/terradraw-core/internal/model"
)

// CreateEntry is one feature to create; ID is optional — an empty ID
// asks the store to assign a collision-free one.
type CreateEntry struct {
	ID         string
	Geometry   model.Geometry
	Properties model.Properties
	// Draft relaxes validation for a shape under construction, per
	// spec.md §9 "draft-polygon invariant relaxation": polygon rings are
	// only checked per point, and a linestring may repeat a vertex (see
	// model.Geometry.Validate).
	Draft bool
}

// GeometryUpdate replaces the geometry for ID.
type GeometryUpdate struct {
	ID       string
	Geometry model.Geometry
	Draft    bool
}

// PropertyUpdate merges Properties into the existing properties for ID.
type PropertyUpdate struct {
	ID         string
	Properties model.Properties
}

// Store is the feature store contract spec.md §4.B names.
type Store interface {
	Create(entries []CreateEntry) ([]string, error)
	UpdateGeometry(updates []GeometryUpdate) error
	UpdateProperty(updates []PropertyUpdate) error
	Delete(ids []string) error
	CopyAll() []model.Feature
	GetGeometryCopy(id string) (model.Geometry, bool)
	GetPropertiesCopy(id string) (model.Properties, bool)
	Has(id string) bool

	// Scope opens a mutation scope: every Create/UpdateGeometry/
	// UpdateProperty/Delete call made via the returned handle is
	// coalesced into one ChangeBatch delivered to onChange when the
	// scope closes. Scopes do not nest; a mode's top-level handler
	// opens exactly one.
	Scope(onChange func(model.ChangeBatch)) *Scope
}

type memStore struct {
	mu       sync.RWMutex
	features map[string]model.Feature
	nextID   uint64
}

// New returns an empty in-memory feature store.
func New() Store {
	return &memStore{features: make(map[string]model.Feature)}
}

func (s *memStore) Scope(onChange func(model.ChangeBatch)) *Scope {
	return &Scope{store: s, onChange: onChange}
}

func (s *memStore) assignID() string {
	for {
		s.nextID++
		id := fmt.Sprintf("td-%d", s.nextID)
		if _, taken := s.features[id]; !taken {
			return id
		}
	}
}

func (s *memStore) create(entries []CreateEntry) ([]string, model.ChangeBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if err := e.Geometry.Validate(e.Draft); err != nil {
			return nil, model.ChangeBatch{}, err
		}
	}

	ids := make([]string, len(entries))
	var batch model.ChangeBatch
	for i, e := range entries {
		id := e.ID
		if id == "" {
			id = s.assignID()
		}
		props := e.Properties.Clone()
		if props == nil {
			props = model.Properties{}
		}
		if e.Draft {
			props[model.PropDraft] = true
		}
		s.features[id] = model.Feature{ID: id, Geometry: e.Geometry.Clone(), Properties: props}
		ids[i] = id
		batch.Created = append(batch.Created, id)
	}
	return ids, batch, nil
}

func (s *memStore) updateGeometry(updates []GeometryUpdate) (model.ChangeBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		if _, ok := s.features[u.ID]; !ok {
			return model.ChangeBatch{}, model.NewError(model.KindUnknownID, "updateGeometry: unknown id %q", u.ID)
		}
		if err := u.Geometry.Validate(u.Draft); err != nil {
			return model.ChangeBatch{}, err
		}
	}
	var batch model.ChangeBatch
	for _, u := range updates {
		f := s.features[u.ID]
		f.Geometry = u.Geometry.Clone()
		if u.Draft {
			f.Properties[model.PropDraft] = true
		} else {
			delete(f.Properties, model.PropDraft)
		}
		s.features[u.ID] = f
		batch.Updated = append(batch.Updated, u.ID)
	}
	return batch, nil
}

func (s *memStore) updateProperty(updates []PropertyUpdate) (model.ChangeBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		if _, ok := s.features[u.ID]; !ok {
			return model.ChangeBatch{}, model.NewError(model.KindUnknownID, "updateProperty: unknown id %q", u.ID)
		}
	}
	var batch model.ChangeBatch
	for _, u := range updates {
		f := s.features[u.ID]
		if f.Properties == nil {
			f.Properties = model.Properties{}
		}
		for k, v := range u.Properties {
			f.Properties[k] = v
		}
		s.features[u.ID] = f
		batch.Updated = append(batch.Updated, u.ID)
	}
	return batch, nil
}

func (s *memStore) delete(ids []string) (model.ChangeBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.features[id]; !ok {
			return model.ChangeBatch{}, model.NewError(model.KindUnknownID, "delete: unknown id %q", id)
		}
	}
	var batch model.ChangeBatch
	for _, id := range ids {
		delete(s.features, id)
		batch.Deleted = append(batch.Deleted, id)
	}
	return batch, nil
}

func (s *memStore) Create(entries []CreateEntry) ([]string, error) {
	ids, batch, err := s.create(entries)
	if err != nil {
		return nil, err
	}
	_ = batch
	return ids, nil
}

func (s *memStore) UpdateGeometry(updates []GeometryUpdate) error {
	_, err := s.updateGeometry(updates)
	return err
}

func (s *memStore) UpdateProperty(updates []PropertyUpdate) error {
	_, err := s.updateProperty(updates)
	return err
}

func (s *memStore) Delete(ids []string) error {
	_, err := s.delete(ids)
	return err
}

func (s *memStore) CopyAll() []model.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Feature, 0, len(s.features))
	for _, f := range s.features {
		out = append(out, f.Clone())
	}
	return out
}

func (s *memStore) GetGeometryCopy(id string) (model.Geometry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[id]
	if !ok {
		return model.Geometry{}, false
	}
	return f.Geometry.Clone(), true
}

func (s *memStore) GetPropertiesCopy(id string) (model.Properties, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[id]
	if !ok {
		return nil, false
	}
	return f.Properties.Clone(), true
}

func (s *memStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.features[id]
	return ok
}
