package archive

import (
	"errors"
	"fmt"
)

// Failure classes. Use errors.Is to match them.
var (
	ErrSerialization     = errors.New("serialization failed")
	ErrDeserialization   = errors.New("deserialization failed")
	ErrArchiveWrite      = errors.New("archive write failed")
	ErrArchiveRead       = errors.New("archive read failed")
	ErrNotFound          = errors.New("archive not found")
	ErrIncompleteArchive = errors.New("archive does not have " + RequestEntry + "/" + ResponseEntry)
)

// Error describes a failed Pack, Unpack or List call.
type Error struct {
	// Op is "pack", "unpack" or "list".
	Op string
	// Path is the container path, empty for stream operations.
	Path string
	// Entry is the entry being processed, if any.
	Entry string
	// Kind is one of the package's Err* values.
	Kind error
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	msg := "archive: " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Entry != "" {
		msg += " [" + e.Entry + "]"
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the failure class and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, path string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func entryError(op, path, entry string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Entry: entry, Kind: kind, Err: err}
}

func missingEntries(haveReq, haveRes bool) error {
	switch {
	case !haveReq && !haveRes:
		return fmt.Errorf("missing %s and %s", RequestEntry, ResponseEntry)
	case !haveReq:
		return fmt.Errorf("missing %s", RequestEntry)
	default:
		return fmt.Errorf("missing %s", ResponseEntry)
	}
}
