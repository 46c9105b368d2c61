// Package queue persists transcription jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store owns the database connection, schema initialization, atomic job
// claiming, heartbeat tracking, stuck-job recovery, and maintenance queries
// used by the CLI. A job stores its accepted request and final result as JSON
// documents so the dispatcher and HTTP surface can share them without extra
// tables.
//
// The database is transient storage for in-flight and recent jobs rather than
// an archive. Schema changes bump schemaVersion in schema.go; operators clear
// the database to adopt the new schema.
package queue
