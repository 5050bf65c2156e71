/*
Package wire implements a minimal, single-threaded client for a
line-framed, array-reply key-value wire protocol (the same shape as
the Redis serialization protocol): requests are arrays of bulk
strings, replies are one of status, integer, bulk, array, or error.

# Architecture

	┌──────────────────────── WireClient ────────────────────────┐
	│                                                              │
	│  ┌────────────────────────────────────────────┐            │
	│  │              net.Conn (TCP)                  │            │
	│  │  - connect timeout, read/write deadlines     │            │
	│  └──────────────────┬───────────────────────────┘           │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐           │
	│  │         Request encoder (RESP array)          │           │
	│  │  - one command per Do() call                  │           │
	│  └──────────────────┬───────────────────────────┘           │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐           │
	│  │         Reply decoder (status/int/bulk/array) │           │
	│  │  - blocking read, loops on partial bulk reads │           │
	│  └──────────────────┬───────────────────────────┘           │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐           │
	│  │   Transaction mode (MULTI / queued / EXEC)    │           │
	│  │   Pipeline mode (write N, read N)             │           │
	│  └────────────────────────────────────────────────┘           │
	└──────────────────────────────────────────────────────────────┘

A Client is not safe for concurrent use; pkg/pool hands out one Client
per borrower so callers never share a session across goroutines. A
transport-level error invalidates the Client: pool.Pool discards it
rather than returning it to the free list.
*/
package wire
