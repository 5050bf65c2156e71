package store

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/foliodb/folio/pkg/config"
	"github.com/foliodb/folio/pkg/log"
	"github.com/foliodb/folio/pkg/metrics"
	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/pool"
	"github.com/foliodb/folio/pkg/trio"
	"github.com/foliodb/folio/pkg/wire"
)

// RecordStore is the engine: cache, indexes, commit pipeline, query
// planner, and version counter, all backed by a pool of wire
// sessions against one remote endpoint.
type RecordStore struct {
	cfg      config.Config
	idPrefix string
	pool     *pool.Pool
	hooks    Hooks

	internMu sync.Mutex
	interned map[string]*model.Ref

	mu       sync.RWMutex
	cache    map[string]model.Dict
	tagIndex map[string]map[string]bool // tag name -> set of ids

	version atomic.Int64

	writeCh chan commitJob
	log     zerolog.Logger
}

type commitJob struct {
	diffs  []model.Diff
	cxInfo string
	result chan commitResult
}

type commitResult struct {
	newRecs map[string]model.Dict
	err     error
}

// Open parses cfg's endpoint, dials a bounded pool against it, runs
// the startup sync described in the storage layout section, and
// starts the single commit-serializing write thread.
func Open(cfg config.Config, hooks Hooks) (*RecordStore, error) {
	ep, err := config.ParseEndpoint(cfg.Opts.Endpoint)
	if err != nil {
		return nil, err
	}
	p := pool.New(ep.Host, ep.Password, ep.DB, cfg.Opts.PoolSize, wire.Options{
		ConnectTimeout: cfg.Opts.ConnectTimeout,
		ReceiveTimeout: cfg.Opts.ReceiveTimeout,
	})

	s := &RecordStore{
		cfg:      cfg,
		idPrefix: cfg.IDPrefix,
		pool:     p,
		hooks:    hooks,
		interned: make(map[string]*model.Ref),
		cache:    make(map[string]model.Dict),
		tagIndex: make(map[string]map[string]bool),
		writeCh:  make(chan commitJob, 64),
		log:      log.WithComponent("store"),
	}

	if err := s.startupSync(); err != nil {
		p.Close()
		return nil, err
	}

	go s.runWriter()
	return s, nil
}

// Close closes the underlying connection pool and stops accepting new
// commits. Any commit already enqueued completes or fails normally;
// callers must stop submitting after Close returns.
func (s *RecordStore) Close() {
	close(s.writeCh)
	s.pool.Close()
}

// CurVer returns the current value of the monotonic version counter.
func (s *RecordStore) CurVer() int64 { return s.version.Load() }

// NewID generates a fresh record id, prefixed with idPrefix if one is
// configured. Callers that want human-chosen ids should not use this;
// it exists for "add" paths that are happy to let the store pick one.
func (s *RecordStore) NewID() string {
	return s.idPrefix + uuid.NewString()
}

// InternRef returns the canonical *model.Ref for id, absolutizing it
// against idPrefix first if one is configured and id is not already
// prefixed.
func (s *RecordStore) InternRef(id string) *model.Ref {
	if s.idPrefix != "" && !strings.HasPrefix(id, s.idPrefix) {
		id = s.idPrefix + id
	}
	s.internMu.Lock()
	defer s.internMu.Unlock()
	if r, ok := s.interned[id]; ok {
		return r
	}
	r := model.NewRef(id)
	s.interned[id] = r
	return r
}

func (s *RecordStore) startupSync() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StartupSyncDuration)

	return s.pool.WithConn(func(c *wire.Client) error {
		verStr, ok, err := c.Get("meta:version")
		if err != nil {
			return err
		}
		version := int64(1)
		if ok {
			if v, perr := strconv.ParseInt(verStr, 10, 64); perr == nil {
				version = v
			}
		}
		s.version.Store(version)

		ids, err := c.SMembers("idx:all")
		if err != nil {
			return err
		}
		for _, id := range ids {
			fields, err := c.HGetAll("rec:" + id)
			if err != nil {
				return err
			}
			trioStr, ok := fields["trio"]
			if !ok {
				s.log.Warn().Str("rec_id", id).Msg("store: startup sync dropped record missing trio field")
				metrics.StartupSyncDroppedTotal.Inc()
				continue
			}
			d, err := trio.Decode(bytes.NewReader([]byte(trioStr)))
			if err != nil {
				s.log.Warn().Str("rec_id", id).Err(err).Msg("store: startup sync dropped record with encoding error")
				metrics.StartupSyncDroppedTotal.Inc()
				continue
			}
			d = s.internDict(d)
			s.placeInCache(id, d)
		}
		metrics.CacheRecordsTotal.Set(float64(len(s.cache)))
		metrics.VersionCounter.Set(float64(version))
		return nil
	})
}

// internDict normalizes every nested ref tag through InternRef so the
// store's interning invariant holds for values loaded directly off
// the wire, which otherwise carry freshly allocated *model.Ref
// instances from trio.Decode.
func (s *RecordStore) internDict(d model.Dict) model.Dict {
	out := d
	d.Each(func(name string, v model.Value) bool {
		out = out.WithSet(name, s.internValue(v))
		return true
	})
	return out
}

func (s *RecordStore) internValue(v model.Value) model.Value {
	switch vv := v.(type) {
	case model.RefVal:
		return model.RefVal{Ref: s.InternRef(vv.Ref.ID())}
	case model.ListVal:
		out := make(model.ListVal, len(vv))
		for i, item := range vv {
			out[i] = s.internValue(item)
		}
		return out
	case model.DictVal:
		return model.DictVal{Dict: s.internDict(vv.Dict)}
	default:
		return v
	}
}

// placeInCache installs d in the cache and indexes every tag but
// id/mod. Callers must already hold no conflicting lock; it takes its
// own write lock.
func (s *RecordStore) placeInCache(id string, d model.Dict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[id] = d
	d.Each(func(name string, _ model.Value) bool {
		if name == model.TagID || name == model.TagMod {
			return true
		}
		s.indexAddLocked(name, id)
		return true
	})
}

func (s *RecordStore) indexAddLocked(tag, id string) {
	set := s.tagIndex[tag]
	if set == nil {
		set = make(map[string]bool)
		s.tagIndex[tag] = set
	}
	set[id] = true
}

func (s *RecordStore) indexRemoveLocked(tag, id string) {
	if set := s.tagIndex[tag]; set != nil {
		delete(set, id)
	}
}

// SyncDisplayStrings walks every cached record and sets its interned
// Ref's display string. A record carrying a disMacro tag is expanded by
// resolver, with the id-string written as a cycle-safe default before
// recursing into a referenced record and overwritten with the computed
// result; any other record gets its dis tag, or its id when it has
// none. Each record is resolved at most once per call.
func (s *RecordStore) SyncDisplayStrings(resolver DisplayResolver) {
	if resolver == nil {
		return
	}
	visiting := make(map[string]bool)
	done := make(map[string]bool)
	var resolve func(ref *model.Ref) string
	resolve = func(ref *model.Ref) string {
		if done[ref.ID()] || visiting[ref.ID()] {
			return ref.Dis()
		}
		visiting[ref.ID()] = true
		defer delete(visiting, ref.ID())

		ref.SetDis(ref.ID())

		s.mu.RLock()
		d, ok := s.cache[ref.ID()]
		s.mu.RUnlock()
		if !ok {
			return ref.Dis()
		}
		if !d.Has(model.TagDisMac) {
			if dv, ok := d.Get(model.TagDis); ok {
				ref.SetDis(dv.String())
			}
			done[ref.ID()] = true
			return ref.Dis()
		}
		computed := resolver(d, resolve)
		ref.SetDis(computed)
		done[ref.ID()] = true
		return computed
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.cache))
	for id := range s.cache {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.mu.RLock()
		d, ok := s.cache[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		if ref, ok := d.ID(); ok {
			resolve(ref)
		}
	}
}
