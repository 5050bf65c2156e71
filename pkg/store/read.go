package store

import (
	"sort"
	"strings"

	"github.com/foliodb/folio/pkg/filter"
	"github.com/foliodb/folio/pkg/metrics"
	"github.com/foliodb/folio/pkg/model"
)

// QueryOpts controls ReadAll/ReadCount/ReadAllEachWhile.
type QueryOpts struct {
	// Trash includes soft-deleted records that would otherwise be
	// filtered out.
	Trash bool
	// Limit caps the number of matches returned; zero or negative
	// means DefaultLimit.
	Limit int
	// Sort orders results by display string, case-insensitively.
	Sort bool
}

// DefaultLimit is applied when QueryOpts.Limit is not positive.
const DefaultLimit = 10000

// ReadResult pairs a requested id with its record, if found.
type ReadResult struct {
	ID     string
	Rec    model.Dict
	Exists bool
}

// ReadByID returns the cached record for id. Soft-deleted records are
// reported absent, mirroring the remote trash semantics.
func (s *RecordStore) ReadByID(id string) (model.Dict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.cache[id]
	if !ok || d.IsTrash() {
		metrics.CacheMissesTotal.Inc()
		return model.Dict{}, false
	}
	metrics.CacheHitsTotal.Inc()
	return d, true
}

// ReadByIDs resolves ids in order. The returned firstUnresolved is the
// first id with no non-trash cache entry, or "" if every id resolved.
func (s *RecordStore) ReadByIDs(ids []string) (results []ReadResult, firstUnresolved string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results = make([]ReadResult, 0, len(ids))
	for _, id := range ids {
		d, ok := s.cache[id]
		if ok && d.IsTrash() {
			ok = false
		}
		if ok {
			metrics.CacheHitsTotal.Inc()
		} else {
			metrics.CacheMissesTotal.Inc()
			if firstUnresolved == "" {
				firstUnresolved = id
			}
		}
		results = append(results, ReadResult{ID: id, Rec: d, Exists: ok})
	}
	return results, firstUnresolved
}

// ReadAll returns every cached record matching f, subject to opts.
func (s *RecordStore) ReadAll(f filter.Filter, opts QueryOpts) []model.Dict {
	var out []model.Dict
	s.ReadAllEachWhile(f, opts, func(d model.Dict) bool {
		out = append(out, d)
		return true
	})
	return out
}

// ReadCount reports how many cached records match f, ignoring Limit.
func (s *RecordStore) ReadCount(f filter.Filter, opts QueryOpts) int {
	opts.Limit = 0
	n := 0
	s.readAllEachWhile(f, opts, true, func(model.Dict) bool {
		n++
		return true
	})
	return n
}

// ReadAllEachWhile invokes fn for every matching record in order
// (ascending display string if opts.Sort), stopping early if fn
// returns false. Limit still applies unless unbounded is requested via
// ReadCount.
func (s *RecordStore) ReadAllEachWhile(f filter.Filter, opts QueryOpts, fn func(model.Dict) bool) {
	s.readAllEachWhile(f, opts, false, fn)
}

func (s *RecordStore) readAllEachWhile(f filter.Filter, opts QueryOpts, unbounded bool, fn func(model.Dict) bool) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	candidates := s.planCandidatesLocked(f)
	matches := make([]model.Dict, 0, len(candidates))
	for _, id := range candidates {
		d, ok := s.cache[id]
		if !ok {
			continue
		}
		if d.IsTrash() && !opts.Trash {
			continue
		}
		if f != nil && !f.Matches(d) {
			continue
		}
		matches = append(matches, d)
	}
	s.mu.RUnlock()

	if opts.Sort {
		sort.SliceStable(matches, func(i, j int) bool {
			return strings.ToLower(displayOf(matches[i])) < strings.ToLower(displayOf(matches[j]))
		})
	}

	for i, d := range matches {
		if !unbounded && i >= limit {
			return
		}
		if !fn(d) {
			return
		}
	}
}

// planCandidatesLocked resolves the id set worth evaluating f against.
// A bare tag-presence filter resolves through the tag index; anything
// else, including has(id) and has(mod), which the index does not
// hold, falls back to a full cache scan. Callers must hold s.mu for
// reading.
func (s *RecordStore) planCandidatesLocked(f filter.Filter) []string {
	if f != nil {
		if tag, ok := filter.SimpleHasTag(f); ok && tag != model.TagID && tag != model.TagMod {
			set := s.tagIndex[tag]
			ids := make([]string, 0, len(set))
			for id := range set {
				ids = append(ids, id)
			}
			return ids
		}
	}
	ids := make([]string, 0, len(s.cache))
	for id := range s.cache {
		ids = append(ids, id)
	}
	return ids
}

func displayOf(d model.Dict) string {
	if v, ok := d.Get(model.TagDis); ok {
		return v.String()
	}
	if ref, ok := d.ID(); ok {
		return ref.Dis()
	}
	return ""
}
