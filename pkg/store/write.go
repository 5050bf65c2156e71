package store

import (
	"bytes"
	"strconv"
	"time"

	"github.com/foliodb/folio/pkg/metrics"
	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/trio"
	"github.com/foliodb/folio/pkg/wire"
)

// Commit validates diffs, enqueues them as one batch on the write
// thread, and blocks until the batch has persisted and applied to the
// cache (or failed). cxInfo is an opaque description of the caller,
// carried through to Hooks for logging/auditing.
func (s *RecordStore) Commit(diffs []model.Diff, cxInfo string) (map[string]model.Dict, error) {
	if len(diffs) == 0 {
		return map[string]model.Dict{}, nil
	}
	for _, d := range diffs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if d.Add && d.ID == "" {
			return nil, &model.CommitError{Reason: "add diff requires a non-empty id"}
		}
	}

	job := commitJob{
		diffs:  diffs,
		cxInfo: cxInfo,
		result: make(chan commitResult, 1),
	}
	s.writeCh <- job
	res := <-job.result
	return res.newRecs, res.err
}

// runWriter is the sole consumer of the commit mailbox; it processes
// jobs strictly in arrival order, giving every commit a total order
// against the version counter.
func (s *RecordStore) runWriter() {
	for job := range s.writeCh {
		newRecs, err := s.processBatch(job.diffs, job.cxInfo)
		job.result <- commitResult{newRecs: newRecs, err: err}
	}
}

type preparedDiff struct {
	diff   model.Diff
	ref    *model.Ref
	oldRec model.Dict
	hadOld bool
	newRec model.Dict
	newMod time.Time
}

func (s *RecordStore) processBatch(diffs []model.Diff, cxInfo string) (newRecs map[string]model.Dict, err error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommitDuration)
	metrics.CommitBatchSize.Observe(float64(len(diffs)))

	outcome := "ok"
	defer func() { metrics.CommitsTotal.WithLabelValues(outcome).Inc() }()

	prepared, err := s.prepareBatch(diffs)
	if err != nil {
		outcome = outcomeFor(err)
		return nil, err
	}

	if s.hooks.PreCommit != nil {
		for _, p := range prepared {
			if herr := s.hooks.PreCommit(PreCommitEvent{Diff: p.diff, OldRec: p.oldRec, CxInfo: cxInfo}); herr != nil {
				outcome = "commit_error"
				return nil, herr
			}
		}
	}

	persistable := false
	for _, p := range prepared {
		if !p.diff.Transient {
			persistable = true
			break
		}
	}

	newVersion := s.version.Load()
	if persistable {
		newVersion++
		if err := s.persist(prepared, newVersion); err != nil {
			outcome = outcomeFor(err)
			return nil, err
		}
	}

	newRecs = make(map[string]model.Dict, len(prepared))
	s.mu.Lock()
	for _, p := range prepared {
		id := p.ref.ID()
		if p.diff.RemoveAll {
			s.unindexLocked(id, p.oldRec)
			delete(s.cache, id)
			continue
		}
		if p.hadOld {
			s.unindexLocked(id, p.oldRec)
		}
		s.cache[id] = p.newRec
		s.indexRecordLocked(id, p.newRec)
		newRecs[id] = p.newRec
	}
	if persistable {
		s.version.Store(newVersion)
	}
	metrics.CacheRecordsTotal.Set(float64(len(s.cache)))
	metrics.VersionCounter.Set(float64(s.version.Load()))
	s.mu.Unlock()

	if s.hooks.PostCommit != nil {
		for _, p := range prepared {
			s.hooks.PostCommit(PostCommitEvent{Diff: p.diff, OldRec: p.oldRec, NewRec: p.newRec, CxInfo: cxInfo})
		}
	}

	return newRecs, nil
}

func outcomeFor(err error) string {
	switch err.(type) {
	case *model.ConcurrentChangeError:
		return "concurrent_change"
	case *model.CommitError:
		return "commit_error"
	case *model.TransportError:
		return "transport_error"
	default:
		return "commit_error"
	}
}

// prepareBatch runs the write-thread half of per-diff preparation:
// interning, existence/concurrency checks, mod stamping, and new
// record materialization. It never touches the wire.
func (s *RecordStore) prepareBatch(diffs []model.Diff) ([]preparedDiff, error) {
	now := time.Now().UTC()
	prepared := make([]preparedDiff, 0, len(diffs))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, diff := range diffs {
		ref := s.InternRef(diff.ID)
		id := ref.ID()
		oldRec, hadOld := s.cache[id]

		if diff.Add && hadOld {
			return nil, &model.AlreadyExistsError{ID: id}
		}
		if diff.RemoveAll && !hadOld {
			return nil, &model.CommitError{ID: id, Reason: "remove of nonexistent record"}
		}
		if !diff.Add && !hadOld {
			return nil, model.ErrUnknownRec
		}
		if !diff.Add && !diff.Force && !diff.Transient {
			if oldMod, ok := oldRec.Mod(); ok && !oldMod.Equal(diff.OldMod) {
				return nil, &model.ConcurrentChangeError{ID: id, Reason: "expected mod does not match cached record"}
			}
		}

		newMod := now
		if hadOld {
			if oldMod, ok := oldRec.Mod(); ok && !newMod.After(oldMod) {
				newMod = oldMod.Add(time.Nanosecond)
			}
		}

		var newRec model.Dict
		if diff.RemoveAll {
			newRec = oldRec
		} else {
			newRec = oldRec
			for name, v := range diff.Changes {
				if _, isRemove := v.(model.RemoveVal); isRemove {
					newRec = newRec.WithRemove(name)
					continue
				}
				newRec = newRec.WithSet(name, s.internValue(v))
			}
			if !diff.Transient {
				newRec = newRec.WithSet(model.TagID, model.RefVal{Ref: ref})
				newRec = newRec.WithSet(model.TagMod, model.DateTimeVal{Time: newMod, TZ: "UTC"})
			}
		}

		prepared = append(prepared, preparedDiff{
			diff:   diff,
			ref:    ref,
			oldRec: oldRec,
			hadOld: hadOld,
			newRec: newRec,
			newMod: newMod,
		})
	}
	return prepared, nil
}

// persist writes every non-transient diff to the remote store inside
// one transaction, along with the new version stamp.
func (s *RecordStore) persist(prepared []preparedDiff, newVersion int64) error {
	return s.pool.WithConn(func(c *wire.Client) error {
		if err := c.Begin(); err != nil {
			return err
		}

		for _, p := range prepared {
			if p.diff.Transient {
				continue
			}
			id := p.ref.ID()
			if p.diff.RemoveAll {
				if err := c.Queue("DEL", "rec:"+id); err != nil {
					c.Rollback()
					return err
				}
				if err := c.Queue("SREM", "idx:all", id); err != nil {
					c.Rollback()
					return err
				}
				p.oldRec.Each(func(name string, _ model.Value) bool {
					if name == model.TagID || name == model.TagMod {
						return true
					}
					c.Queue("SREM", "idx:tag:"+name, id)
					return true
				})
				continue
			}

			// Never tags live only in the cache.
			rec, oldRec := p.newRec, p.oldRec
			for name := range model.NeverTags {
				rec = rec.WithRemove(name)
				oldRec = oldRec.WithRemove(name)
			}

			var buf bytes.Buffer
			if err := trio.Encode(&buf, rec); err != nil {
				c.Rollback()
				return &model.EncodingError{ID: id, Err: err}
			}
			if err := c.Queue("HSET", "rec:"+id, "trio", buf.String(), "mod", p.newMod.Format(time.RFC3339Nano)); err != nil {
				c.Rollback()
				return err
			}
			if err := c.Queue("SADD", "idx:all", id); err != nil {
				c.Rollback()
				return err
			}

			removedTags, addedTags := tagDelta(oldRec, rec)
			for _, name := range removedTags {
				if err := c.Queue("SREM", "idx:tag:"+name, id); err != nil {
					c.Rollback()
					return err
				}
			}
			for _, name := range addedTags {
				if err := c.Queue("SADD", "idx:tag:"+name, id); err != nil {
					c.Rollback()
					return err
				}
			}
		}

		if err := c.Queue("SET", "meta:version", strconv.FormatInt(newVersion, 10)); err != nil {
			c.Rollback()
			return err
		}

		_, aborted, err := c.Commit()
		if err != nil {
			return err
		}
		if aborted {
			return &model.ConcurrentChangeError{Reason: "transaction aborted by remote store"}
		}
		return nil
	})
}

// tagDelta reports which indexed tags (every tag but id/mod) were
// removed or newly present going from oldRec to newRec.
func tagDelta(oldRec, newRec model.Dict) (removed, added []string) {
	oldRec.Each(func(name string, _ model.Value) bool {
		if name == model.TagID || name == model.TagMod {
			return true
		}
		if !newRec.Has(name) {
			removed = append(removed, name)
		}
		return true
	})
	newRec.Each(func(name string, _ model.Value) bool {
		if name == model.TagID || name == model.TagMod {
			return true
		}
		if !oldRec.Has(name) {
			added = append(added, name)
		}
		return true
	})
	return removed, added
}

func (s *RecordStore) unindexLocked(id string, d model.Dict) {
	d.Each(func(name string, _ model.Value) bool {
		if name == model.TagID || name == model.TagMod {
			return true
		}
		s.indexRemoveLocked(name, id)
		return true
	})
}

func (s *RecordStore) indexRecordLocked(id string, d model.Dict) {
	d.Each(func(name string, _ model.Value) bool {
		if name == model.TagID || name == model.TagMod {
			return true
		}
		s.indexAddLocked(name, id)
		return true
	})
}
