package queue

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrFileAlreadyExists is returned for an exclusive FileWrite whose
	// target is already present. The existing file is left untouched.
	ErrFileAlreadyExists = errors.New("file already exists")

	// ErrTargetMissingOrMalformed describes a package.json or tsconfig.json
	// that could not be read as a JSON object. Merges recover from it by
	// starting from an empty document, so it is only ever logged.
	ErrTargetMissingOrMalformed = errors.New("target file missing or malformed")
)

// RecordError ties a flush failure to the record that caused it.
type RecordError struct {
	Record Record
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Record.Category(), e.Record.Name(), e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// FailedRecords extracts the records named by the RecordErrors inside err.
func FailedRecords(err error) []Record {
	var out []Record
	for _, e := range multierr.Errors(err) {
		var re *RecordError
		if errors.As(e, &re) {
			out = append(out, re.Record)
		}
	}
	return out
}

// failAll attributes err to every record in recs.
func failAll(recs []Record, err error) error {
	var errs error
	for _, r := range recs {
		errs = multierr.Append(errs, &RecordError{Record: r, Err: err})
	}
	return errs
}
