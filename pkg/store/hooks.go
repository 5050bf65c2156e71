package store

import "github.com/foliodb/folio/pkg/model"

// PreCommitEvent is delivered to Hooks.PreCommit once per diff in a
// batch, before any wire round-trip. A non-nil return aborts the
// entire batch; nothing in it reaches storage or the cache.
type PreCommitEvent struct {
	Diff   model.Diff
	OldRec model.Dict
	CxInfo string
}

// PostCommitEvent is delivered to Hooks.PostCommit once per diff,
// after the batch has persisted and the cache has been updated. A
// non-nil return from PostCommit is logged and otherwise ignored.
type PostCommitEvent struct {
	Diff   model.Diff
	OldRec model.Dict
	NewRec model.Dict
	CxInfo string
}

// Hooks are the two host-supplied commit callbacks described by the
// external interface. Either may be nil.
type Hooks struct {
	PreCommit  func(PreCommitEvent) error
	PostCommit func(PostCommitEvent)
}

// DisplayResolver expands a record's disMacro pattern into a display
// string. Macro syntax and substitution rules are a host concern
// (display-string expansion is an external collaborator); RecordStore
// only guarantees the cycle-safe traversal order and once-per-call
// memoization described in SyncDisplayStrings; a resolver calls resolve
// to obtain a referenced record's display string.
type DisplayResolver func(d model.Dict, resolve func(ref *model.Ref) string) string
