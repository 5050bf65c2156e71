/*
Package log provides structured logging for Folio using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout or custom writer          │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("wire"|"pool"|"store"|     │          │
	│  │                  "history")                 │          │
	│  │  - WithRecID("ahu-1")                       │          │
	│  │  - WithEndpoint("folio://localhost:6379/0") │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "store",                    │          │
	│  │    "time": "2026-08-01T10:30:00Z",          │          │
	│  │    "message": "commit applied"              │          │
	│  │  }                                           │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	import "github.com/foliodb/folio/pkg/log"

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.Info("folio starting")

	storeLog := log.WithComponent("store")
	storeLog.Info().Str("rec_id", "ahu-1").Msg("commit applied")

	wireLog := log.WithComponent("wire").With().
		Str("endpoint", "folio://localhost:6379/0").Logger()
	wireLog.Error().Err(err).Msg("connection dropped")

# Component Loggers

Four components use WithComponent consistently across the engine:

  - "wire": connection-level read/write/protocol events (pkg/wire)
  - "pool": checkout, overflow, and health-replacement events (pkg/pool)
  - "store": commit pipeline and cache sync events (pkg/store)
  - "history": debug note when a read patches cached summary tags (pkg/history)

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance, initialized once at startup
  - Accessible from all packages without being passed around

Context Logger Pattern:
  - WithComponent/WithRecID/WithEndpoint return child loggers carrying
    a field, so call sites don't repeat themselves with .Str()

Error Logging Pattern:
  - Always use .Err(err) for error values rather than formatting them
    into the message string

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
