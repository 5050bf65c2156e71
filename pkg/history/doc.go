/*
Package history implements HistoryStore, the time-series collaborator
of a RecordStore: one sorted set per host record, scored by timestamp
in whole milliseconds, read with "prev / window / next-2" span
semantics, and written with clear-range / clear-all / remove-sentinel
support. HistoryStore borrows connections directly from the store's
pool; history writes never share a connection with, or participate in,
the commit pipeline.

Every read and write patches the host record's transient summary tags
(hisSize, hisStart(+Val), hisEnd(+Val)) directly into the RecordStore's
cache. These are "never tags": never persisted, never accepted in a
Diff's Changes, always derived from the current state of the sorted
set.
*/
package history
