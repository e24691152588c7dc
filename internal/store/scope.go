package store

import "github.com/mohammed-shakir/terradraw-core/internal/model"

// Scope is one mutation scope opened by Store.Scope: spec.md §4.B's
// "a mode must open an implicit mutation scope (in practice, one
// top-level handler call); all mutations performed before returning to
// the coordinator are coalesced into a single change batch." Close
// delivers that batch to onChange exactly once.
type Scope struct {
	store    *memStore
	onChange func(model.ChangeBatch)
	batch    model.ChangeBatch
	closed   bool
}

func (s *Scope) Create(entries []CreateEntry) ([]string, error) {
	ids, batch, err := s.store.create(entries)
	if err != nil {
		return nil, err
	}
	s.batch.Merge(batch)
	return ids, nil
}

func (s *Scope) UpdateGeometry(updates []GeometryUpdate) error {
	batch, err := s.store.updateGeometry(updates)
	if err != nil {
		return err
	}
	s.batch.Merge(batch)
	return nil
}

func (s *Scope) UpdateProperty(updates []PropertyUpdate) error {
	batch, err := s.store.updateProperty(updates)
	if err != nil {
		return err
	}
	s.batch.Merge(batch)
	return nil
}

func (s *Scope) Delete(ids []string) error {
	batch, err := s.store.delete(ids)
	if err != nil {
		return err
	}
	s.batch.Merge(batch)
	return nil
}

func (s *Scope) CopyAll() []model.Feature                        { return s.store.CopyAll() }
func (s *Scope) GetGeometryCopy(id string) (model.Geometry, bool) { return s.store.GetGeometryCopy(id) }
func (s *Scope) GetPropertiesCopy(id string) (model.Properties, bool) {
	return s.store.GetPropertiesCopy(id)
}
func (s *Scope) Has(id string) bool { return s.store.Has(id) }

// Close delivers the accumulated batch to onChange, if non-empty, and
// marks the scope closed. Safe to call once per scope; subsequent
// calls are no-ops so a mode's deferred cleanup cannot double-emit.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.onChange != nil && !s.batch.Empty() {
		s.onChange(s.batch)
	}
}
