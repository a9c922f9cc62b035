// Package sqlite implements the web cache store on SQLite.
package sqlite
