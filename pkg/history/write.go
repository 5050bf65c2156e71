package history

import (
	"strconv"
	"time"

	"github.com/foliodb/folio/pkg/metrics"
	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/wire"
)

// WriteOpts controls a Write call.
type WriteOpts struct {
	// ClearAll deletes the whole series before writing items.
	ClearAll bool
	// Clear, if non-nil, deletes every item scored in
	// [Clear.Start-ms, Clear.End-ms - 1] before writing items.
	Clear *model.Span
}

// Write appends, overwrites, or removes items in id's history, per
// opts, then re-reads the full set to patch the host's summary tags
// and fires the post-history-write hook.
func (h *HistoryStore) Write(id string, items []model.HisItem, opts WriteOpts, cxInfo string) (WriteResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.HistoryWriteDuration)

	host, err := h.rs.HisHostRecord(id)
	if err != nil {
		return WriteResult{}, err
	}

	for _, item := range items {
		if err := hisWriteCheck(item.Val); err != nil {
			return WriteResult{}, err
		}
	}

	count := 0
	var minTS, maxTS time.Time
	haveBounds := false

	err = h.rs.Pool().WithConn(func(c *wire.Client) error {
		if err := c.Begin(); err != nil {
			return err
		}

		if opts.ClearAll {
			if err := c.Queue("DEL", hisKey(id)); err != nil {
				c.Rollback()
				return err
			}
		}
		if opts.Clear != nil {
			lo := float64(opts.Clear.Start.UnixMilli())
			hi := float64(opts.Clear.End.UnixMilli() - 1)
			if err := c.Queue("ZREMRANGEBYSCORE", hisKey(id), formatMs(lo), formatMs(hi)); err != nil {
				c.Rollback()
				return err
			}
		}

		for _, item := range items {
			ms := float64(item.TS.UnixMilli())
			if err := c.Queue("ZREMRANGEBYSCORE", hisKey(id), formatMs(ms), formatMs(ms)); err != nil {
				c.Rollback()
				return err
			}
			if _, isRemove := item.Val.(model.RemoveVal); isRemove {
				continue
			}
			blob, err := encodeItem(item)
			if err != nil {
				c.Rollback()
				return err
			}
			if err := c.Queue("ZADD", hisKey(id), formatMs(ms), blob); err != nil {
				c.Rollback()
				return err
			}
			count++
			if !haveBounds || item.TS.Before(minTS) {
				minTS = item.TS
			}
			if !haveBounds || item.TS.After(maxTS) {
				maxTS = item.TS
			}
			haveBounds = true
		}

		_, aborted, err := c.Commit()
		if err != nil {
			return err
		}
		if aborted {
			return &model.ConcurrentChangeError{ID: id, Reason: "history transaction aborted by remote store"}
		}
		return nil
	})
	if err != nil {
		return WriteResult{}, err
	}
	metrics.HistoryWritesTotal.Add(float64(count))

	all, err := h.readAll(id)
	if err != nil {
		return WriteResult{}, err
	}
	h.patchSummary(id, all, host)

	result := WriteResult{Count: count, Span: model.Span{Start: minTS, End: maxTS}}

	if h.hooks.PostWrite != nil {
		rec, _ := h.rs.ReadRawByID(id)
		h.hooks.PostWrite(HisWriteEvent{Rec: rec, Result: result, CxInfo: cxInfo})
	}
	return result, nil
}

func formatMs(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
