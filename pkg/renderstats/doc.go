/*
Package renderstats keeps per-template rendering statistics in a SQLite database:
how often each template was rendered, how often rendering failed, how many bytes
were produced and how long it took.

The package only depends on database/sql; the caller picks and registers the
driver (the render server uses modernc.org/sqlite, or mattn/go-sqlite3 when built
with the cgo_sqlite tag). Call SetupSchema once, then NewStore.
*/
package renderstats
