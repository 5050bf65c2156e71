/*
Package store implements RecordStore, the core engine: an in-memory
cache of every non-destroyed record, ref interning, a tag-name query
planner, and a single-writer commit pipeline that persists diffs to
the remote store transactionally before applying them to the cache.

# Architecture

	┌───────────────────────── RecordStore ─────────────────────────┐
	│                                                                 │
	│  ┌──────────────┐        ┌───────────────────────────────┐    │
	│  │ cache         │◄──────│ readById / readAll / ...       │    │
	│  │ id -> Dict    │  RLock│ (lock-free-ish: RWMutex RLock) │    │
	│  │ tagIndex      │        └───────────────────────────────┘    │
	│  └──────┬───────┘                                              │
	│         │ Lock (writer only)                                   │
	│  ┌──────▼────────────────────────────────────────────────┐    │
	│  │                  commit mailbox (channel)              │    │
	│  │  Commit(diffs) enqueues a job and blocks on its result  │    │
	│  │  channel; one goroutine drains the mailbox serially.    │    │
	│  └──────┬────────────────────────────────────────────────┘    │
	│         │                                                       │
	│  ┌──────▼────────────────────────────────────────────────┐    │
	│  │  prepare -> preCommit hooks -> persist (pool.WithConn,  │    │
	│  │  MULTI/EXEC) -> cache apply -> postCommit hooks         │    │
	│  └──────────────────────────────────────────────────────────┘    │
	└─────────────────────────────────────────────────────────────────┘

Reads never touch the wire; every read is answered from the cache.
Writes are serialized through the mailbox so the version counter and
commit ordering are total across the store's lifetime.
*/
package store
