package history

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/store"
	"github.com/foliodb/folio/pkg/trio"
)

// WriteResult summarizes a completed write, delivered to the
// post-history-write hook.
type WriteResult struct {
	Count int
	Span  model.Span
}

// HisWriteEvent is delivered to Hooks.PostWrite once per Write call.
type HisWriteEvent struct {
	Rec    model.Dict
	Result WriteResult
	CxInfo string
}

// Hooks is the single host-supplied callback slot for history writes.
type Hooks struct {
	PostWrite func(HisWriteEvent)
}

// HistoryStore implements the per-record time-series contract against
// a RecordStore's cache and shared connection pool.
type HistoryStore struct {
	rs    *store.RecordStore
	hooks Hooks
}

// New builds a HistoryStore collaborating with rs.
func New(rs *store.RecordStore, hooks Hooks) *HistoryStore {
	return &HistoryStore{rs: rs, hooks: hooks}
}

func hisKey(id string) string { return "his:" + id }

// hisWriteCheck enforces the value-kind constraints a history item
// must satisfy to be written: numbers, bools, strings, and coordinates
// are legal point values; nested dicts, lists, and refs are not.
func hisWriteCheck(v model.Value) error {
	switch v.(type) {
	case model.RemoveVal:
		return nil
	case model.NumberVal, model.BoolVal, model.StrVal, model.CoordVal:
		return nil
	default:
		return &model.HisConfigError{Reason: fmt.Sprintf("value kind %v is not a legal history item value", v.Kind())}
	}
}

func encodeItem(item model.HisItem) (string, error) {
	d := model.NewDict(
		model.Tag{Name: "ts", Value: model.DateTimeVal{Time: item.TS.UTC(), TZ: "UTC"}},
		model.Tag{Name: "val", Value: item.Val},
	)
	var buf bytes.Buffer
	if err := trio.Encode(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func decodeItem(blob string) (model.HisItem, error) {
	d, err := trio.Decode(strings.NewReader(blob))
	if err != nil {
		return model.HisItem{}, err
	}
	tsVal, ok := d.Get("ts")
	if !ok {
		return model.HisItem{}, &model.EncodingError{Err: fmt.Errorf("history item missing ts field")}
	}
	dt, ok := tsVal.(model.DateTimeVal)
	if !ok {
		return model.HisItem{}, &model.EncodingError{Err: fmt.Errorf("history item ts field is not a date-time")}
	}
	val, _ := d.Get("val")
	return model.HisItem{TS: dt.Time, Val: val}, nil
}

// applyHostConversions converts an item read off the wire into its
// caller-visible form: the timestamp moves to the host's current time
// zone and a unitless number picks up the host's unit tag, if any.
func applyHostConversions(item model.HisItem, host model.Dict) model.HisItem {
	item.TS = item.TS.In(hostLocation(host))
	if nv, ok := item.Val.(model.NumberVal); ok && nv.Unit == "" {
		if unitVal, ok := host.Get(model.TagUnit); ok {
			item.Val = model.NumberVal{Val: nv.Val, Unit: unitVal.String()}
		}
	}
	return item
}

// hostLocation resolves host's current tz tag to a *time.Location,
// falling back to UTC when the tag is absent or not a valid zone name.
// A changed tz tag therefore reflows both per-item timestamps and the
// hisStart/hisEnd summary tags on the next full read.
func hostLocation(host model.Dict) *time.Location {
	if tzVal, ok := host.Get(model.TagTZ); ok {
		if loc, err := time.LoadLocation(tzVal.String()); err == nil {
			return loc
		}
	}
	return time.UTC
}
