package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foliodb/folio/internal/fakewire"
	"github.com/foliodb/folio/pkg/config"
	"github.com/foliodb/folio/pkg/model"
)

func openTestStore(t *testing.T) (*RecordStore, *fakewire.Server) {
	t.Helper()
	srv, err := fakewire.Start()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Opts.Endpoint = "folio://" + srv.Addr() + "/0"
	cfg.Opts.PoolSize = 2

	s, err := Open(cfg, Hooks{})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, srv
}

func TestOpenStartsWithEmptyCache(t *testing.T) {
	s, _ := openTestStore(t)
	_, ok := s.ReadByID("foo")
	require.False(t, ok)
	require.Equal(t, int64(1), s.CurVer())
}

func TestInternRefReturnsSameInstance(t *testing.T) {
	s, _ := openTestStore(t)
	a := s.InternRef("r1")
	b := s.InternRef("r1")
	require.True(t, a == b)
}

func TestInternRefAppliesIDPrefix(t *testing.T) {
	s, _ := openTestStore(t)
	s.idPrefix = "p:"
	r := s.InternRef("abc")
	require.Equal(t, "p:abc", r.ID())

	r2 := s.InternRef("p:abc")
	require.True(t, r == r2)
}

func TestCommitAddThenReadByID(t *testing.T) {
	s, _ := openTestStore(t)

	diff := model.NewAdd("room1", map[string]model.Value{
		"site": model.Marker,
		"dis":  model.StrVal("Room One"),
	})
	recs, err := s.Commit([]model.Diff{diff}, "test")
	require.NoError(t, err)
	require.Contains(t, recs, "room1")

	rec, ok := s.ReadByID("room1")
	require.True(t, ok)
	require.True(t, rec.Has("site"))
	require.Equal(t, int64(2), s.CurVer())
}

func TestCommitAddDuplicateFails(t *testing.T) {
	s, _ := openTestStore(t)
	diff := model.NewAdd("dup", map[string]model.Value{"site": model.Marker})
	_, err := s.Commit([]model.Diff{diff}, "")
	require.NoError(t, err)

	_, err = s.Commit([]model.Diff{diff}, "")
	require.ErrorIs(t, err, model.ErrAlreadyExists)
	var alreadyExists *model.AlreadyExistsError
	require.ErrorAs(t, err, &alreadyExists)
	require.Equal(t, "dup", alreadyExists.ID)
}

func TestCommitUpdateDetectsConcurrentChange(t *testing.T) {
	s, _ := openTestStore(t)
	add := model.NewAdd("r2", map[string]model.Value{"site": model.Marker})
	_, err := s.Commit([]model.Diff{add}, "")
	require.NoError(t, err)

	stale := model.NewUpdate("r2", time.Unix(0, 0), map[string]model.Value{
		"dis": model.StrVal("x"),
	})
	_, err = s.Commit([]model.Diff{stale}, "")
	require.Error(t, err)
	var ccErr *model.ConcurrentChangeError
	require.ErrorAs(t, err, &ccErr)
}

func TestCommitRemoveDeletesFromCache(t *testing.T) {
	s, _ := openTestStore(t)
	add := model.NewAdd("r3", map[string]model.Value{"site": model.Marker})
	_, err := s.Commit([]model.Diff{add}, "")
	require.NoError(t, err)

	rec, ok := s.ReadByID("r3")
	require.True(t, ok)
	mod, _ := rec.Mod()

	rm := model.NewRemove("r3", mod)
	_, err = s.Commit([]model.Diff{rm}, "")
	require.NoError(t, err)

	_, ok = s.ReadByID("r3")
	require.False(t, ok)
}

func TestPreCommitHookCanAbortBatch(t *testing.T) {
	srv, err := fakewire.Start()
	require.NoError(t, err)
	defer srv.Close()

	cfg := config.Default()
	cfg.Opts.Endpoint = "folio://" + srv.Addr() + "/0"

	hooks := Hooks{
		PreCommit: func(ev PreCommitEvent) error {
			if ev.Diff.ID == "blocked" {
				return &model.CommitError{ID: ev.Diff.ID, Reason: "blocked by policy"}
			}
			return nil
		},
	}
	s, err := Open(cfg, hooks)
	require.NoError(t, err)
	defer s.Close()

	diff := model.NewAdd("blocked", map[string]model.Value{"site": model.Marker})
	_, err = s.Commit([]model.Diff{diff}, "")
	require.Error(t, err)

	_, ok := s.ReadByID("blocked")
	require.False(t, ok)
}

func TestPostCommitHookObservesNewRecord(t *testing.T) {
	srv, err := fakewire.Start()
	require.NoError(t, err)
	defer srv.Close()

	cfg := config.Default()
	cfg.Opts.Endpoint = "folio://" + srv.Addr() + "/0"

	var seen model.Dict
	hooks := Hooks{
		PostCommit: func(ev PostCommitEvent) {
			seen = ev.NewRec
		},
	}
	s, err := Open(cfg, hooks)
	require.NoError(t, err)
	defer s.Close()

	diff := model.NewAdd("r4", map[string]model.Value{"site": model.Marker})
	_, err = s.Commit([]model.Diff{diff}, "")
	require.NoError(t, err)
	require.True(t, seen.Has("site"))
}
