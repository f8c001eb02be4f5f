package recstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rowlog/termtools/u"
)

// AllColumns makes Search consider every field of a row as a candidate.
const AllColumns = -1

// SearchOptions controls how Search matches rows. The zero value of each
// field is a sensible default except Column, where 0 is a valid index;
// start from DefaultSearchOptions (or pass nil to Search) and override.
type SearchOptions struct {
	// Exact requires full-field equality; default is substring match
	Exact bool
	CaseSensitive bool
	// Column restricts matching to a single 0-based field index.
	// AllColumns matches against every field of the row. A column out
	// of bounds for a given row makes that row unmatchable.
	Column int
	// ColumnName resolves Column from the header row; requires HasHeader.
	// An unknown name fails the whole search with a diagnostic.
	ColumnName string
	// HasHeader treats the first row as a header. It is consumed for
	// ColumnName resolution and never matched or returned.
	HasHeader bool
	// KeepTrailingEmpty keeps the empty fields produced by the trailing
	// delimiter. By default they're stripped before matching and
	// returning, mirroring how rows are written.
	KeepTrailingEmpty bool
	// Delimiter overrides the store delimiter for parsing, 0 means
	// use the store's
	Delimiter rune
}

// DefaultSearchOptions returns the options Search uses for nil:
// case-insensitive substring match across all columns, trailing empty
// fields trimmed.
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		Column: AllColumns,
	}
}

// Search scans the record file and returns the rows matching query, in
// file order, each as its (post-trim) field sequence.
//
// Search never fails: a missing file, an unresolved column name or an
// I/O error degrade to a diagnostic on OnError plus whatever rows were
// already matched. Malformed rows are skipped and the scan continues.
func (s *Store) Search(query string, opts *SearchOptions) []Row {
	rows, err := s.search(query, opts)
	if err != nil {
		s.reportError(fmt.Errorf("search: %w", err))
	}
	return rows
}

func (s *Store) search(query string, opts *SearchOptions) ([]Row, error) {
	if opts == nil {
		opts = DefaultSearchOptions()
	}
	if !u.FileExists(s.filePath) {
		return nil, fmt.Errorf("file not found: %s", s.filePath)
	}
	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = opts.Delimiter
	if r.Comma == 0 {
		r.Comma = s.delim()
	}
	// rows are arbitrarily wide and possibly uneven
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	column := opts.Column
	if opts.HasHeader {
		header, err := r.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if opts.ColumnName != "" {
			column = fieldIndex(header, opts.ColumnName)
			if column < 0 {
				return nil, fmt.Errorf("column not found: %s", opts.ColumnName)
			}
		}
	}

	q := query
	if !opts.CaseSensitive {
		q = strings.ToLower(q)
	}

	var res []Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// malformed row: drop it and keep scanning
			s.reportError(fmt.Errorf("search: skipping row: %w", err))
			continue
		}
		if !opts.KeepTrailingEmpty {
			for len(rec) > 0 && rec[len(rec)-1] == "" {
				rec = rec[:len(rec)-1]
			}
		}
		if len(rec) == 0 {
			continue
		}

		fields := rec
		if column != AllColumns {
			if column >= 0 && column < len(rec) {
				fields = rec[column : column+1]
			} else {
				fields = nil
			}
		}

		matched := false
		for _, fv := range fields {
			if !opts.CaseSensitive {
				fv = strings.ToLower(fv)
			}
			if opts.Exact {
				matched = fv == q
			} else {
				matched = strings.Contains(fv, q)
			}
			if matched {
				break
			}
		}
		if matched {
			res = append(res, Row(rec))
		}
	}
	return res, nil
}

func fieldIndex(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}
