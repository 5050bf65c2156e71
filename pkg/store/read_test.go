package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foliodb/folio/pkg/filter"
	"github.com/foliodb/folio/pkg/model"
)

func addRecord(t *testing.T, s *RecordStore, id string, tags map[string]model.Value) {
	t.Helper()
	_, err := s.Commit([]model.Diff{model.NewAdd(id, tags)}, "")
	require.NoError(t, err)
}

func TestReadAllUsesTagIndexForSimpleHasTag(t *testing.T) {
	s, _ := openTestStore(t)
	addRecord(t, s, "a", map[string]model.Value{"site": model.Marker, "dis": model.StrVal("A")})
	addRecord(t, s, "b", map[string]model.Value{"equip": model.Marker, "dis": model.StrVal("B")})
	addRecord(t, s, "c", map[string]model.Value{"site": model.Marker, "dis": model.StrVal("C")})

	recs := s.ReadAll(filter.Has{Name: "site"}, QueryOpts{Sort: true})
	require.Len(t, recs, 2)
	require.Equal(t, "A", displayOf(recs[0]))
	require.Equal(t, "C", displayOf(recs[1]))
}

func TestReadAllFullScanForCompoundFilter(t *testing.T) {
	s, _ := openTestStore(t)
	addRecord(t, s, "a", map[string]model.Value{"site": model.Marker, "area": model.Num(10)})
	addRecord(t, s, "b", map[string]model.Value{"site": model.Marker, "area": model.Num(20)})

	f := filter.And{filter.Has{Name: "site"}, filter.Eq{Name: "area", Value: model.Num(20)}}
	recs := s.ReadAll(f, QueryOpts{})
	require.Len(t, recs, 1)
}

func TestReadAllExcludesTrashByDefault(t *testing.T) {
	s, _ := openTestStore(t)
	addRecord(t, s, "t1", map[string]model.Value{"site": model.Marker, "trash": model.Marker})
	addRecord(t, s, "t2", map[string]model.Value{"site": model.Marker})

	recs := s.ReadAll(filter.Has{Name: "site"}, QueryOpts{})
	require.Len(t, recs, 1)

	withTrash := s.ReadAll(filter.Has{Name: "site"}, QueryOpts{Trash: true})
	require.Len(t, withTrash, 2)
}

func TestReadAllEachWhileStopsEarly(t *testing.T) {
	s, _ := openTestStore(t)
	addRecord(t, s, "a", map[string]model.Value{"site": model.Marker})
	addRecord(t, s, "b", map[string]model.Value{"site": model.Marker})
	addRecord(t, s, "c", map[string]model.Value{"site": model.Marker})

	count := 0
	s.ReadAllEachWhile(filter.Has{Name: "site"}, QueryOpts{}, func(model.Dict) bool {
		count++
		return count < 2
	})
	require.Equal(t, 2, count)
}

func TestReadByIDsReportsFirstUnresolved(t *testing.T) {
	s, _ := openTestStore(t)
	addRecord(t, s, "a", map[string]model.Value{"site": model.Marker})

	results, firstUnresolved := s.ReadByIDs([]string{"a", "missing"})
	require.Equal(t, "missing", firstUnresolved)
	require.True(t, results[0].Exists)
	require.False(t, results[1].Exists)
}

func TestReadCountIgnoresLimit(t *testing.T) {
	s, _ := openTestStore(t)
	for i := 0; i < 5; i++ {
		addRecord(t, s, string(rune('a'+i)), map[string]model.Value{"site": model.Marker})
	}
	n := s.ReadCount(filter.Has{Name: "site"}, QueryOpts{Limit: 2})
	require.Equal(t, 5, n)
}
