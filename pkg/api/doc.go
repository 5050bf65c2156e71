/*
Package api implements Folio's administrative HTTP surface: a small
server exposing /health, /ready, and /metrics against a running
RecordStore, for embedding into whatever host process (or
cmd/foliostore's serve subcommand) keeps the store alive.

There is no RPC surface here. Callers that want to read, query, or
commit records talk to a RecordStore and HistoryStore directly, in the
same process or over whatever transport the host layers on top; this
package only answers "is it up" and "is it ready to serve reads".
*/
package api
