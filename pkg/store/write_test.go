package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foliodb/folio/pkg/filter"
	"github.com/foliodb/folio/pkg/model"
)

func TestCommitUpdateMovesTagIndexMembership(t *testing.T) {
	s, _ := openTestStore(t)
	add := model.NewAdd("r1", map[string]model.Value{"site": model.Marker})
	_, err := s.Commit([]model.Diff{add}, "")
	require.NoError(t, err)

	rec, _ := s.ReadByID("r1")
	mod, _ := rec.Mod()

	update := model.NewUpdate("r1", mod, map[string]model.Value{
		"site": model.Remove,
		"equip": model.Marker,
	})
	_, err = s.Commit([]model.Diff{update}, "")
	require.NoError(t, err)

	require.Len(t, s.ReadAll(filter.Has{Name: "site"}, QueryOpts{}), 0)
	require.Len(t, s.ReadAll(filter.Has{Name: "equip"}, QueryOpts{}), 1)
}

func TestCommitBatchAdvancesVersionOnce(t *testing.T) {
	s, _ := openTestStore(t)
	startVer := s.CurVer()

	diffs := []model.Diff{
		model.NewAdd("b1", map[string]model.Value{"site": model.Marker}),
		model.NewAdd("b2", map[string]model.Value{"site": model.Marker}),
	}
	_, err := s.Commit(diffs, "")
	require.NoError(t, err)
	require.Equal(t, startVer+1, s.CurVer())
}

func TestCommitTransientDiffDoesNotAdvanceVersion(t *testing.T) {
	s, _ := openTestStore(t)
	add := model.NewAdd("r5", map[string]model.Value{"site": model.Marker})
	_, err := s.Commit([]model.Diff{add}, "")
	require.NoError(t, err)

	ver := s.CurVer()
	transient := model.Diff{
		ID:        "r5",
		Transient: true,
		Changes:   map[string]model.Value{"curVal": model.Num(72)},
	}
	_, err = s.Commit([]model.Diff{transient}, "")
	require.NoError(t, err)
	require.Equal(t, ver, s.CurVer())

	rec, ok := s.ReadByID("r5")
	require.True(t, ok)
	v, ok := rec.Get("curVal")
	require.True(t, ok)
	require.Equal(t, "72", v.String())
}

func TestCommitRejectsReservedTagChange(t *testing.T) {
	s, _ := openTestStore(t)
	diff := model.Diff{
		ID:      "r6",
		Add:     true,
		Changes: map[string]model.Value{"id": model.StrVal("nope")},
	}
	_, err := s.Commit([]model.Diff{diff}, "")
	require.Error(t, err)
}

func TestCommitForceBypassesConcurrencyCheck(t *testing.T) {
	s, _ := openTestStore(t)
	add := model.NewAdd("r7", map[string]model.Value{"site": model.Marker})
	_, err := s.Commit([]model.Diff{add}, "")
	require.NoError(t, err)

	stale := model.Diff{
		ID:      "r7",
		Force:   true,
		Changes: map[string]model.Value{"dis": model.StrVal("forced")},
	}
	_, err = s.Commit([]model.Diff{stale}, "")
	require.NoError(t, err)

	rec, _ := s.ReadByID("r7")
	v, _ := rec.Get("dis")
	require.Equal(t, "forced", v.String())
}
