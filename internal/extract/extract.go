// Package extract pulls recipient addresses out of an uploaded spreadsheet.
//
// Only the first sheet and only its first column are read. Every row is a
// candidate, including a header row; a header simply fails the address
// check. Cells that are not text or do not look like an address are dropped
// without error, so an empty result is a normal outcome.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"unicode/utf8"
)

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("unreadable spreadsheet")

// ParseError reports bytes that could not be decoded as a workbook.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("parse spreadsheet: %v", e.Err)
	}
	return fmt.Sprintf("parse %s spreadsheet: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParse) hold.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

var errNoSheets = errors.New("workbook has no sheets")

// emailPattern accepts local@domain.tld where no part contains whitespace or '@'.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValid reports whether s looks like an email address.
func IsValid(s string) bool {
	return emailPattern.MatchString(s)
}

// cell is the first-column value of one row.
type cell struct {
	value string
	text  bool
}

// sheetReader decodes the first column of the first sheet of a workbook.
type sheetReader func(data []byte) ([]cell, error)

var (
	ooxmlMagic = []byte("PK\x03\x04")
	ole2Magic  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Emails decodes data as a workbook and returns the text cells of the first
// column of its first sheet that are valid addresses, in row order.
// Duplicates and case variants are kept as they appear.
func Emails(data []byte) ([]string, error) {
	read, format, err := detect(data)
	if err != nil {
		return nil, err
	}

	cells, err := read(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, &ParseError{Format: format, Err: err}
	}

	emails := make([]string, 0, len(cells))
	for _, c := range cells {
		if c.text && IsValid(c.value) {
			emails = append(emails, c.value)
		}
	}
	return emails, nil
}

// EmailsFrom reads r to the end and extracts addresses from its content.
func EmailsFrom(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return Emails(data)
}

// detect picks a reader from the leading bytes of data.
func detect(data []byte) (sheetReader, string, error) {
	switch {
	case len(data) == 0:
		return nil, "", &ParseError{Err: errors.New("empty file")}
	case bytes.HasPrefix(data, ooxmlMagic):
		return readOOXML, "xlsx", nil
	case bytes.HasPrefix(data, ole2Magic):
		return readOLE2, "xls", nil
	case utf8.Valid(data):
		return readCSV, "csv", nil
	default:
		return nil, "", &ParseError{Err: errors.New("unrecognised file format")}
	}
}
