/*
Package pool implements a bounded pool of wire.Client sessions keyed
by a single endpoint. A plain sync.Mutex, which is not reentrant and
is never acquired by a pool method that already holds it, protects a
last-in-first-out
free list plus a census of every live client the pool has handed out;
checkout either pops the free list, dials a new client under capacity,
or lends a throwaway "overflow" client that is closed on return
instead of recycled.

The pool never validates a client on checkin — an echo round trip on
every return would defeat the purpose of pooling. CheckHealth pings
every free client on demand and replaces any that fail; otherwise a
client is trusted until the operation that borrows it reports failure.
*/
package pool
