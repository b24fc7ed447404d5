// internal/app/features/participants/xlsxutil/errors.go
package xlsxutil

import (
	"errors"
	"strconv"
	"strings"
)

// Precondition failures. Each aborts an import before any row is validated.
var (
	ErrUnreadable     = errors.New("xlsxutil: file is not a readable workbook")
	ErrNoWorksheet    = errors.New("xlsxutil: no worksheet")
	ErrHeaderTooShort = errors.New("xlsxutil: header row too short")
	ErrHeaderMismatch = errors.New("xlsxutil: header mismatch")
	ErrNoDataRows     = errors.New("xlsxutil: no data rows")
	ErrTooManyRows    = errors.New("xlsxutil: too many rows")
)

// ErrNoRecords is returned by BuildExport when there is nothing to write.
var ErrNoRecords = errors.New("xlsxutil: no records to export")

// NoRecordsMessage is the warning shown when an export has nothing to write.
const NoRecordsMessage = "No participant data available to export."

// preconditionError carries the user-facing text for a precondition failure
// while still matching its sentinel with errors.Is.
type preconditionError struct {
	kind error
	msg  string
}

func (e *preconditionError) Error() string { return e.msg }
func (e *preconditionError) Unwrap() error { return e.kind }

func unreadable() error {
	return &preconditionError{ErrUnreadable, "Could not read the uploaded file. Please upload an .xlsx workbook."}
}

func noWorksheet() error {
	return &preconditionError{ErrNoWorksheet, "Could not find worksheet in the uploaded file."}
}

func noDataRows() error {
	return &preconditionError{ErrNoDataRows, "No data rows found in the file."}
}

func tooManyRows(max int) error {
	return &preconditionError{ErrTooManyRows,
		"The file has more than " + strconv.Itoa(max) + " data rows. Please split it into smaller files."}
}

func headerTooShort() error {
	return &preconditionError{ErrHeaderTooShort,
		"Invalid header row. Expected " + strconv.Itoa(len(Header)) +
			" columns: [" + strings.Join(Header, ", ") + "]. Found fewer columns."}
}

func headerMismatch(found []string) error {
	return &preconditionError{ErrHeaderMismatch,
		"Header mismatch. Expected columns: [" + strings.Join(Header, ", ") +
			"]. Found: [" + strings.Join(found, ", ") +
			"] in the first row. Please use the downloaded template."}
}

// rowErrors accumulates every reason one spreadsheet row was rejected.
type rowErrors struct {
	row     int
	reasons []string
}

func (e *rowErrors) add(reason string) { e.reasons = append(e.reasons, reason) }

func (e *rowErrors) ok() bool { return len(e.reasons) == 0 }

// String renders "Row <n>: reason, reason".
func (e *rowErrors) String() string {
	return "Row " + strconv.Itoa(e.row) + ": " + strings.Join(e.reasons, ", ")
}
