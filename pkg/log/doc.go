/*
Package log provides structured logging for the whitelist service using
zerolog.

The log package wraps the zerolog library to provide JSON-structured
logging with component-specific loggers, configurable log levels, and
helper functions for common logging patterns. All logs include
timestamps and support filtering by severity level for production
debugging.

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
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("treelifecycle")           │          │
	│  │  - WithComponent("objectstore")             │          │
	│  │  - WithWhitelistName("w0")                  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "treelifecycle",            │          │
	│  │    "whitelist_name": "w0",                  │          │
	│  │    "time": "2026-07-31T10:30:00Z",          │          │
	│  │    "message": "tree created"                │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2026-07-31T10:30:00Z INF tree created component=treelifecycle whitelist_name=w0 │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from every package in this module

Component Loggers:
  - WithComponent: tag a child logger with a "component" field
    (objectstore, kvstore, treelifecycle, whitelist, config, metrics,
    health)
  - WithWhitelistName: tag a child logger with the whitelist name a
    request is operating on, for correlating a CreateTree/DeleteTree
    call's log lines across the orchestrator's multi-step protocol

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	treeLog := log.WithComponent("treelifecycle")
	treeLog.Info().Str("whitelist_name", "w0").Msg("tree created")

	reqLog := log.WithWhitelistName("w0")
	reqLog.Warn().Msg("root row left in CREATING after crash")

# Output Examples

JSON:

	{"level":"info","component":"treelifecycle","whitelist_name":"w0","time":"2026-07-31T10:30:01Z","message":"tree created"}
	{"level":"error","component":"kvstore","time":"2026-07-31T10:30:02Z","error":"ConditionalCheckFailed: race lost","message":"putItem failed"}

Console:

	2026-07-31T10:30:01Z INF tree created component=treelifecycle whitelist_name=w0
	2026-07-31T10:30:02Z ERR putItem failed component=kvstore error="ConditionalCheckFailed: race lost"
*/
package log
