// Package recstore implements a small record store on top of a single
// delimited text file.
//
// A Store owns one file and supports three operations: Prepend (insert a
// row before all existing content, most-recent-first), Append (insert a
// row after all existing content) and Search (scan the file for rows
// matching a query).
//
// # File Format
//
// One row per line. Fields are joined by the store delimiter (default
// comma) with standard delimited-text quoting: fields containing the
// delimiter, the quote character or a newline are quoted and embedded
// quotes are doubled. Every row ends with an extra empty field before the
// newline, so a row ("a", "b") is stored as:
//
//	a,b,
//
// Search strips these trailing empty fields by default.
//
// # Basic Usage
//
//	s := recstore.New("log", ".")
//	s.Append(recstore.Row{"a", "b"})
//	s.Prepend(recstore.Row{"c", "d"})
//	rows := s.Search("c", nil)
//
// # Error Policy
//
// No operation returns an error to the caller. I/O and parse failures are
// funneled to the OnError hook (by default a console warning) and the
// operation degrades to a no-op or a partial result. The store is meant to
// back a logging path and must never crash the host program.
//
// # Concurrency
//
// A Store does no locking. Concurrent Prepend/Append calls against the
// same file are a race; callers needing concurrent-safe writes must
// serialize access externally, e.g. with a single writer goroutine.
package recstore
