// internal/app/features/participants/xlsxutil/importer.go
package xlsxutil

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Upserter writes a batch of validated registrants in one call and reports
// how many records the store created or changed.
type Upserter interface {
	UpsertMany(ctx context.Context, rows []models.Registrant, conflictKeys []string) (int64, error)
}

// Failure classes reported in ImportResult.Kind.
const (
	KindPrecondition = "precondition"
	KindValidation   = "validation"
	KindStore        = "store"
	KindInternal     = "internal"
)

// ImportResult summarizes one import. It is never persisted.
type ImportResult struct {
	Success       bool
	Message       string
	ProcessedRows int
	InsertedCount int64
	SkippedCount  int
	Errors        []string

	// BatchID tags every registrant written by this import.
	BatchID string
	// Kind is empty on success, otherwise one of the Kind* constants.
	Kind string
}

// Importer validates an uploaded workbook and hands the valid rows to Store.
type Importer struct {
	Store        Upserter
	Log          *zap.Logger
	ConflictKeys []string
	MaxRows      int // zero means MaxRows

	now func() time.Time
}

// NewImporter builds an Importer. A nil logger is replaced with a no-op.
func NewImporter(store Upserter, conflictKeys []string, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{Store: store, Log: logger, ConflictKeys: conflictKeys, MaxRows: MaxRows}
}

// Process reads the whole workbook from r and imports its first worksheet.
//
// Precondition failures (unreadable file, no worksheet, bad header, no data
// rows, too many rows) abort before any row is validated. Invalid rows are
// skipped and reported; valid rows go to the store in a single batch.
// Process never panics; unexpected faults come back as KindInternal.
func (im *Importer) Process(ctx context.Context, r io.Reader) (res ImportResult) {
	res.BatchID = uuid.NewString()

	defer func() {
		if p := recover(); p != nil {
			im.log().Error("import panicked", zap.Any("panic", p), zap.String("batch", res.BatchID))
			res = im.fail(res, KindInternal, "An unexpected error occurred while reading the file.")
		}
	}()

	table, err := readFirstSheet(r)
	if err != nil {
		return im.failPrecondition(res, err)
	}
	if len(table) == 0 {
		return im.failPrecondition(res, noDataRows())
	}
	if err := checkHeader(table[0]); err != nil {
		return im.failPrecondition(res, err)
	}

	limit := im.MaxRows
	if limit <= 0 {
		limit = MaxRows
	}
	if countDataRows(table) > limit {
		return im.failPrecondition(res, tooManyRows(limit))
	}

	now := im.clock()
	var valid []models.Registrant
	for i := 1; i < len(table); i++ {
		cells := table[i]
		if isBlankRow(cells) {
			continue
		}
		res.ProcessedRows++

		reg, rerr := validateRow(i+1, cells)
		if !rerr.ok() {
			res.SkippedCount++
			res.Errors = append(res.Errors, rerr.String())
			continue
		}
		reg.ImportBatch = res.BatchID
		reg.CreatedAt = now
		reg.UpdatedAt = now
		valid = append(valid, reg)
	}

	if res.ProcessedRows == 0 {
		return im.failPrecondition(res, noDataRows())
	}

	if len(valid) == 0 {
		res.Kind = KindValidation
		if len(res.Errors) > 0 {
			res.Message = fmt.Sprintf("Import completed with validation errors. Processed: %d, Skipped: %d. See errors for details.",
				res.ProcessedRows, res.SkippedCount)
		} else {
			res.Message = "Import file processed, but no valid registrant data found to import."
		}
		return res
	}

	affected, err := im.Store.UpsertMany(ctx, valid, im.ConflictKeys)
	if err != nil {
		im.log().Error("registrant upsert failed",
			zap.String("batch", res.BatchID),
			zap.Int("rows", len(valid)),
			zap.Error(err))
		return im.fail(res, KindStore, "Database error during upsert: "+err.Error())
	}

	res.InsertedCount = affected
	res.Success = true
	res.Message = fmt.Sprintf("Import finished. Processed: %d, Upserted/Updated: %d, Skipped: %d.",
		res.ProcessedRows, res.InsertedCount, res.SkippedCount)

	im.log().Info("registrant import finished",
		zap.String("batch", res.BatchID),
		zap.Int("processed", res.ProcessedRows),
		zap.Int64("affected", res.InsertedCount),
		zap.Int("skipped", res.SkippedCount))
	return res
}

func (im *Importer) log() *zap.Logger {
	if im.Log == nil {
		return zap.NewNop()
	}
	return im.Log
}

func (im *Importer) clock() time.Time {
	if im.now != nil {
		return im.now()
	}
	return time.Now().UTC()
}

func (im *Importer) failPrecondition(res ImportResult, err error) ImportResult {
	res.ProcessedRows = 0
	res.SkippedCount = 0
	res.Errors = nil
	return im.fail(res, KindPrecondition, err.Error())
}

// fail marks res failed, keeping any row errors already collected and
// appending msg after them.
func (im *Importer) fail(res ImportResult, kind, msg string) ImportResult {
	res.Success = false
	res.Kind = kind
	res.InsertedCount = 0
	res.Message = "Import failed: " + msg
	res.Errors = append(res.Errors, msg)
	return res
}

// readFirstSheet parses the workbook held in r and returns the raw cell
// values of its first worksheet. Trailing empty cells of each row are absent.
func readFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, unreadable()
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, noWorksheet()
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, unreadable()
	}
	return rows, nil
}

// checkHeader requires the first len(Header) trimmed cells to equal Header.
func checkHeader(first []string) error {
	if len(first) < len(Header) {
		return headerTooShort()
	}
	found := make([]string, len(Header))
	match := true
	for i := range Header {
		found[i] = strings.TrimSpace(first[i])
		if found[i] != Header[i] {
			match = false
		}
	}
	if !match {
		return headerMismatch(found)
	}
	return nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func countDataRows(table [][]string) int {
	n := 0
	for _, cells := range table[1:] {
		if !isBlankRow(cells) {
			n++
		}
	}
	return n
}

func quote(s string) string { return `"` + s + `"` }

func cell(cells []string, i int) string {
	if i < len(cells) {
		return strings.TrimSpace(cells[i])
	}
	return ""
}

// validateRow checks the four columns of one data row by position and
// collects every failing reason.
func validateRow(rowNum int, cells []string) (models.Registrant, *rowErrors) {
	errs := &rowErrors{row: rowNum}

	name := cell(cells, 0)
	ageRaw := cell(cells, 1)
	genderRaw := cell(cells, 2)
	location := cell(cells, 3)

	if !rules.IsNonEmptyName(name) {
		errs.add("Full Name is missing")
	}

	age, problem := rules.ParseAge(ageRaw)
	switch problem {
	case rules.AgeMissing:
		errs.add("Age is missing")
	case rules.AgeInvalidFormat:
		errs.add("Invalid age format: " + quote(ageRaw))
	case rules.AgeBelowMinimum:
		errs.add("Age must be " + strconv.Itoa(rules.MinAge) + " or older, found: " + strconv.Itoa(age))
	}

	gender, genderOK := rules.NormalizeGender(genderRaw)
	if genderRaw == "" {
		errs.add("Gender is missing")
	} else if !genderOK {
		errs.add("Invalid gender: " + quote(genderRaw) + ". Must be " + strings.Join(rules.Genders, " or ") + ".")
	}

	if location == "" {
		errs.add("Location is missing")
	} else if !rules.IsValidLocation(location) {
		errs.add("Invalid location: " + quote(location) + ". Must match allowed values.")
	}

	if !errs.ok() {
		return models.Registrant{}, errs
	}
	return models.Registrant{
		FullName:       name,
		FullNameCI:     text.Fold(name),
		Age:            age,
		Gender:         gender,
		ChurchLocation: location,
	}, errs
}
