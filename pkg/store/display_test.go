package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foliodb/folio/pkg/model"
)

func TestSyncDisplayStringsAppliesResolverAndGuardsCycles(t *testing.T) {
	s, _ := openTestStore(t)

	addRecord(t, s, "a", map[string]model.Value{
		"disMacro": model.StrVal("$self -> b"),
	})
	addRecord(t, s, "b", map[string]model.Value{
		"disMacro": model.StrVal("$self -> a"),
	})

	resolver := func(d model.Dict, resolve func(ref *model.Ref) string) string {
		ref, _ := d.ID()
		return "resolved:" + ref.ID()
	}

	s.SyncDisplayStrings(resolver)

	refA := s.InternRef("a")
	refB := s.InternRef("b")
	require.Equal(t, "resolved:a", refA.Dis())
	require.Equal(t, "resolved:b", refB.Dis())
}

func TestSyncDisplayStringsSkipsRecordsWithoutMacro(t *testing.T) {
	s, _ := openTestStore(t)
	addRecord(t, s, "plain", map[string]model.Value{
		"dis": model.StrVal("Plain Name"),
	})

	called := false
	s.SyncDisplayStrings(func(d model.Dict, resolve func(ref *model.Ref) string) string {
		called = true
		return "x"
	})
	require.False(t, called)

	ref := s.InternRef("plain")
	require.Equal(t, "Plain Name", ref.Dis())
}
