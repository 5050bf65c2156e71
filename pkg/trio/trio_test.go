package trio

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliodb/folio/pkg/model"
)

func roundTrip(t *testing.T, d model.Dict) model.Dict {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d))
	got, err := Decode(&buf)
	require.NoError(t, err)
	return got
}

func TestRoundTripScalars(t *testing.T) {
	d := model.NewDict(
		model.Tag{Name: "id", Value: model.RefVal{Ref: model.NewRef("r1")}},
		model.Tag{Name: "dis", Value: model.StrVal("Site One")},
		model.Tag{Name: "site", Value: model.Marker},
		model.Tag{Name: "area", Value: model.NumUnit(1250.5, "ft²")},
		model.Tag{Name: "active", Value: model.BoolVal(true)},
		model.Tag{Name: "geo", Value: model.CoordVal{Lat: 37.5, Lng: -122.25}},
		model.Tag{Name: "blob", Value: model.BytesVal([]byte{0, 1, 2, 255})},
	)
	got := roundTrip(t, d)
	assert.True(t, d.Equal(got))
}

func TestRoundTripDateTime(t *testing.T) {
	ts := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	d := model.NewDict(model.Tag{Name: "mod", Value: model.DateTimeVal{Time: ts, TZ: "UTC"}})
	got := roundTrip(t, d)
	v, ok := got.Get("mod")
	require.True(t, ok)
	dt := v.(model.DateTimeVal)
	assert.True(t, ts.Equal(dt.Time))
	assert.Equal(t, "UTC", dt.TZ)
}

func TestRoundTripListAndNestedDict(t *testing.T) {
	inner := model.NewDict(model.Tag{Name: "x", Value: model.Num(1)})
	d := model.NewDict(
		model.Tag{Name: "tags", Value: model.ListVal{model.StrVal("a"), model.StrVal("b"), model.Num(3)}},
		model.Tag{Name: "nested", Value: model.DictVal{Dict: inner}},
	)
	got := roundTrip(t, d)
	assert.True(t, d.Equal(got))
}

func TestRemoveSentinelRoundTrips(t *testing.T) {
	d := model.NewDict(model.Tag{Name: "dis", Value: model.Remove})
	got := roundTrip(t, d)
	v, ok := got.Get("dis")
	require.True(t, ok)
	assert.Equal(t, model.KindRemove, v.Kind())
}

func TestDecodeRejectsTrailingGarbage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, model.NewDict(model.Tag{Name: "a", Value: model.Marker})))
	buf.WriteString("garbage")
	_, err := Decode(&buf)
	assert.Error(t, err)
}
