// Package sqlite writes analysis results to a SQLite database file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. The database is only created when the user
// exports a session; nothing is kept between sessions otherwise.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files. Exporting
// into an existing file appends a new session.
package sqlite
