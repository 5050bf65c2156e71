package store

import (
	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/pool"
)

// Pool exposes the store's connection pool so HistoryStore can borrow
// sessions directly; history writes are not transactional with
// commits and must not share a connection with the write-thread.
func (s *RecordStore) Pool() *pool.Pool { return s.pool }

// ReadRawByID returns the cached record for id without hiding trash,
// for callers (HistoryStore) that must distinguish "absent" from
// "present but trash".
func (s *RecordStore) ReadRawByID(id string) (model.Dict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.cache[id]
	return d, ok
}

// HisHostRecord validates id as a legal history host: present,
// carrying point and his markers, not aux, not trash. It returns the
// cached record or the specific error the history contract requires.
func (s *RecordStore) HisHostRecord(id string) (model.Dict, error) {
	d, ok := s.ReadRawByID(id)
	if !ok {
		return model.Dict{}, model.ErrUnknownRec
	}
	if d.IsTrash() {
		return model.Dict{}, &model.HisConfigError{ID: id, Reason: "host record is trash"}
	}
	if !d.HasMarker(model.TagPoint) || !d.HasMarker(model.TagHis) {
		return model.Dict{}, &model.HisConfigError{ID: id, Reason: "host record missing point/his markers"}
	}
	if d.HasMarker(model.TagAux) {
		return model.Dict{}, &model.HisConfigError{ID: id, Reason: "host record is aux"}
	}
	return d, nil
}

// PatchNeverTags mutates the cached record for id directly, bypassing
// the commit pipeline and version counter. It is used exclusively for
// the "never tag" escape hatch (hisSize, hisStart(+Val), hisEnd(+Val))
// that HistoryStore patches as a side effect of read and write. A nil
// value removes the tag.
func (s *RecordStore) PatchNeverTags(id string, tags map[string]model.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.cache[id]
	if !ok {
		return
	}
	for name, v := range tags {
		if v == nil {
			d = d.WithRemove(name)
		} else {
			d = d.WithSet(name, v)
		}
	}
	s.cache[id] = d
}
