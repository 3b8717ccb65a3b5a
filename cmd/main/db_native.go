//go:build !cgo_sqlite

package main

import (
	"database/sql"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

// initDB opens the statistics and key database with the pure Go driver.
// The data source uses the same query parameters as the cgo driver
// (_journal_mode, _busy_timeout); they are translated into _pragma form.
func initDB(dataSource string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", nativeDSN(dataSource))
	if err != nil {
		return nil, err
	}
	return db, db.Ping()
}

func nativeDSN(dataSource string) string {
	path, rawQuery, found := strings.Cut(dataSource, "?")
	if !found {
		return dataSource
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dataSource
	}
	pragmas := url.Values{}
	for key, values := range query {
		switch key {
		case "_journal_mode":
			pragmas.Add("_pragma", "journal_mode("+values[0]+")")
		case "_busy_timeout":
			pragmas.Add("_pragma", "busy_timeout("+values[0]+")")
		default:
			for _, v := range values {
				pragmas.Add(key, v)
			}
		}
	}
	return path + "?" + pragmas.Encode()
}
