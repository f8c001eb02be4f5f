package recstore

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rowlog/termtools/u"
)

// Row is an ordered sequence of field values forming one logical record.
// The store enforces no arity; callers decide how many fields a row has.
type Row []string

// Store owns a single delimited text file under Dir named <Name>.<Ext>.
type Store struct {
	Name string
	Dir  string
	// Ext is the file extension without the dot, "csv" by default
	Ext string
	// Delim is the field delimiter used when writing rows, ',' if zero
	Delim rune

	// Created is true if New had to create the file
	Created bool

	// OnError receives diagnostics for failed operations. If nil, a
	// warning is printed to stdout. Store methods never return errors.
	OnError func(err error)

	filePath string
}

const (
	colWarn  = "\033[93m"
	colReset = "\033[0m"
)

// New creates a Store for <dir>/<name>.csv. If the file doesn't exist
// it is created empty and Created is set. Existing content is not touched.
func New(name string, dir string) *Store {
	s := &Store{
		Name: name,
		Dir:  dir,
		Ext:  "csv",
	}
	s.filePath = filepath.Join(dir, name+"."+s.Ext)
	if !u.FileExists(s.filePath) {
		if err := u.CreateEmptyFile(s.filePath); err != nil {
			s.reportError(fmt.Errorf("create %s: %w", s.filePath, err))
		} else {
			s.Created = true
		}
	}
	return s
}

// Path returns the path of the record file
func (s *Store) Path() string {
	return s.filePath
}

func (s *Store) delim() rune {
	if s.Delim == 0 {
		return ','
	}
	return s.Delim
}

func (s *Store) reportError(err error) {
	if s.OnError != nil {
		s.OnError(err)
		return
	}
	fmt.Printf("%srecstore: %v\n --record was not saved--%s\n", colWarn, err, colReset)
}

// marshalRow serializes row: delimiter-joined quoted fields, a trailing
// empty field, then a newline. Every write path uses this.
func (s *Store) marshalRow(row Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = s.delim()
	rec := make([]string, 0, len(row)+1)
	rec = append(rec, row...)
	rec = append(rec, "") // trailing delimiter marks end of row
	if err := w.Write(rec); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Prepend inserts row before all existing content.
//
// The whole file is read into memory and rewritten with a single write
// call, so cost is O(file size). A crash mid-write can truncate the file;
// that is a known property of the format, not hardened here.
func (s *Store) Prepend(row Row) {
	if err := s.prepend(row); err != nil {
		s.reportError(fmt.Errorf("prepend: %w", err))
	}
}

func (s *Store) prepend(row Row) error {
	line, err := s.marshalRow(row)
	if err != nil {
		return err
	}
	old, err := os.ReadFile(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	d := make([]byte, 0, len(line)+len(old))
	d = append(d, line...)
	d = append(d, old...)
	return os.WriteFile(s.filePath, d, 0644)
}

// Append inserts row after all existing content. If the current content
// doesn't end in a newline, one is inserted first so rows never merge
// onto the same line. Only the last byte of the file is probed; the file
// is never read whole or truncated. The handle is opened and closed per
// call.
func (s *Store) Append(row Row) {
	if err := s.append(row); err != nil {
		s.reportError(fmt.Errorf("append: %w", err))
	}
}

func (s *Store) append(row Row) error {
	line, err := s.marshalRow(row)
	if err != nil {
		return err
	}

	// get file size; the file may have been deleted between calls,
	// in which case it's recreated below
	var size int64
	info, err := os.Stat(s.filePath)
	if err == nil {
		size = info.Size()
	} else if !os.IsNotExist(err) {
		return err
	}

	f, err := os.OpenFile(s.filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return err
	}

	if size > 0 {
		var last [1]byte
		if _, err = f.ReadAt(last[:], size-1); err != nil {
			f.Close()
			return err
		}
		if last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}
	if _, err = f.WriteAt(line, size); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
