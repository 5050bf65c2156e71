package history

import (
	"math"
	"sort"
	"time"

	"github.com/foliodb/folio/pkg/log"
	"github.com/foliodb/folio/pkg/metrics"
	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/wire"
)

// ReadOpts controls a non-spanned Read call.
type ReadOpts struct {
	// Limit caps the number of items emitted; zero or negative means
	// unlimited.
	Limit int
	// ClipFuture skips items timestamped after now.
	ClipFuture bool
}

// Read emits id's history items in ascending timestamp order through
// emit, stopping early if emit returns false. If span is nil, every
// item (subject to opts) is emitted and the host's summary tags are
// patched from the full set afterward. If span is non-nil, the
// "prev / window / next-2" policy applies and opts is ignored.
func (h *HistoryStore) Read(id string, span *model.Span, opts ReadOpts, emit func(model.HisItem) bool) error {
	host, err := h.rs.HisHostRecord(id)
	if err != nil {
		return err
	}

	all, err := h.readAll(id)
	if err != nil {
		return err
	}
	metrics.HistoryReadsTotal.Inc()

	if span == nil {
		items := all
		if opts.ClipFuture {
			now := time.Now()
			filtered := items[:0:0]
			for _, it := range items {
				if it.TS.After(now) {
					continue
				}
				filtered = append(filtered, it)
			}
			items = filtered
		}
		if opts.Limit > 0 && len(items) > opts.Limit {
			items = items[:opts.Limit]
		}
		for _, it := range items {
			if !emit(applyHostConversions(it, host)) {
				break
			}
		}
		h.patchSummary(id, all, host)
		logReadPatch(id)
		return nil
	}

	window := spanWindow(all, *span)
	for _, it := range window {
		if !emit(applyHostConversions(it, host)) {
			break
		}
	}
	h.patchSummary(id, all, host)
	logReadPatch(id)
	return nil
}

// logReadPatch notes at debug level that a Read mutated the cached
// host record's summary tags.
func logReadPatch(id string) {
	logger := log.WithComponent("history")
	logger.Debug().Str("rec_id", id).Msg("history read patched host summary tags in cache")
}

// spanWindow selects items inside [span.Start, span.End), preceded by
// the single latest item strictly before span.Start (if any) and
// followed by up to two items at or after span.End.
func spanWindow(all []model.HisItem, span model.Span) []model.HisItem {
	var result []model.HisItem
	windowStart := sort.Search(len(all), func(i int) bool { return !all[i].TS.Before(span.Start) })

	if windowStart > 0 {
		result = append(result, all[windowStart-1])
	}

	i := windowStart
	for ; i < len(all) && all[i].TS.Before(span.End); i++ {
		result = append(result, all[i])
	}

	for next := 0; i < len(all) && next < 2; i, next = i+1, next+1 {
		result = append(result, all[i])
	}

	return result
}

func (h *HistoryStore) patchSummary(id string, all []model.HisItem, host model.Dict) {
	if len(all) == 0 {
		h.rs.PatchNeverTags(id, map[string]model.Value{
			model.TagHisSize:     nil,
			model.TagHisStart:    nil,
			model.TagHisStartVal: nil,
			model.TagHisEnd:      nil,
			model.TagHisEndVal:   nil,
		})
		return
	}
	loc := hostLocation(host)
	first, last := all[0], all[len(all)-1]
	h.rs.PatchNeverTags(id, map[string]model.Value{
		model.TagHisSize:     model.Num(float64(len(all))),
		model.TagHisStart:    model.DateTimeVal{Time: first.TS.In(loc), TZ: loc.String()},
		model.TagHisStartVal: first.Val,
		model.TagHisEnd:      model.DateTimeVal{Time: last.TS.In(loc), TZ: loc.String()},
		model.TagHisEndVal:   last.Val,
	})
}

func (h *HistoryStore) readAll(id string) ([]model.HisItem, error) {
	var items []model.HisItem
	err := h.rs.Pool().WithConn(func(c *wire.Client) error {
		pairs, err := c.ZRangeByScore(hisKey(id), math.Inf(-1), math.Inf(1), 0)
		if err != nil {
			return err
		}
		items = make([]model.HisItem, 0, len(pairs))
		for _, p := range pairs {
			item, err := decodeItem(p.Member)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].TS.Before(items[j].TS) })
	return items, nil
}
