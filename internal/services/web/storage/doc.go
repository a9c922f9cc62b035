// Package storage defines persistence contracts for web-derived data.
//
// Nothing stored here is a source of truth: entries can be dropped at any
// time and rebuilt from the backend.
package storage
