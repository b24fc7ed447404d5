// internal/app/features/participants/xlsxutil/exporter.go
package xlsxutil

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

// Export sheet names.
const (
	AllSheet        = "All Participants"
	UnassignedSheet = "Unassigned"
)

// GroupSheet names the sheet for group n.
func GroupSheet(n int) string { return "Group " + strconv.Itoa(n) }

// exportHeader is the header row of the all-participants sheet. Per-group
// sheets drop the last column.
var exportHeader = []string{"Full Name", "Age", "Gender", "Location", "Assigned Group"}

// data starts under the title row, a spacer row, and the header row
const (
	titleRow  = 1
	headerRow = 3
	firstData = 4
)

// ExportOptions tunes BuildExport. The zero value is usable.
type ExportOptions struct {
	EventName string    // defaults to rules.EventName
	Creator   string    // workbook author property
	Now       time.Time // stamps the workbook properties; zero means time.Now
}

// SheetCount records how many data rows a sheet received.
type SheetCount struct {
	Name string
	Rows int
}

// ExportSummary lists the sheets written, in workbook order.
type ExportSummary struct {
	Sheets []SheetCount
}

// Rows returns the data-row count of the named sheet, or -1 if it was not written.
func (s ExportSummary) Rows(name string) int {
	for _, sc := range s.Sheets {
		if sc.Name == name {
			return sc.Rows
		}
	}
	return -1
}

// BuildExport renders records into a workbook with an "All Participants"
// sheet, one sheet per assigned group that has members, and an
// "Unassigned" sheet when any record has no group. Records are written in
// the order given; the caller decides which records are eligible.
//
// It returns ErrNoRecords for an empty input and produces no bytes on any error.
func BuildExport(records []models.Registrant, opts ExportOptions) ([]byte, ExportSummary, error) {
	var summary ExportSummary
	if len(records) == 0 {
		return nil, summary, ErrNoRecords
	}

	event := opts.EventName
	if event == "" {
		event = rules.EventName
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	creator := opts.Creator
	if creator == "" {
		creator = "Camp Registration System"
	}

	f := excelize.NewFile()
	defer f.Close()

	stamp := now.UTC().Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        creator,
		LastModifiedBy: creator,
		Created:        stamp,
		Modified:       stamp,
		Title:          event + " Participants",
	}); err != nil {
		return nil, summary, fmt.Errorf("doc properties: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Family: "Calibri"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, summary, fmt.Errorf("title style: %w", err)
	}

	// The new workbook's default sheet becomes "All Participants" so no
	// empty sheet is left behind.
	if err := f.SetSheetName(f.GetSheetName(0), AllSheet); err != nil {
		return nil, summary, fmt.Errorf("name %s sheet: %w", AllSheet, err)
	}
	w := sheetWriter{f: f, titleStyle: titleStyle}
	if err := w.write(AllSheet, event+" - All Participants (Age "+strconv.Itoa(rules.MinAge)+"+)", exportHeader, records, true); err != nil {
		return nil, summary, err
	}
	summary.Sheets = append(summary.Sheets, SheetCount{AllSheet, len(records)})

	byGroup, unassigned := partition(records)

	for g := rules.MinGroup; g <= rules.MaxGroup; g++ {
		if len(byGroup[g]) == 0 {
			continue
		}
		name := GroupSheet(g)
		if _, err := f.NewSheet(name); err != nil {
			return nil, summary, fmt.Errorf("add %s sheet: %w", name, err)
		}
		title := event + " - Group " + strconv.Itoa(g) + " Participants"
		if err := w.write(name, title, exportHeader[:4], byGroup[g], false); err != nil {
			return nil, summary, err
		}
		summary.Sheets = append(summary.Sheets, SheetCount{name, len(byGroup[g])})
	}

	if len(unassigned) > 0 {
		if _, err := f.NewSheet(UnassignedSheet); err != nil {
			return nil, summary, fmt.Errorf("add %s sheet: %w", UnassignedSheet, err)
		}
		title := event + " - Unassigned Participants (Age " + strconv.Itoa(rules.MinAge) + "+)"
		if err := w.write(UnassignedSheet, title, exportHeader[:4], unassigned, false); err != nil {
			return nil, summary, err
		}
		summary.Sheets = append(summary.Sheets, SheetCount{UnassignedSheet, len(unassigned)})
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, ExportSummary{}, fmt.Errorf("write export: %w", err)
	}
	return buf.Bytes(), summary, nil
}

// partition splits records by assigned group, keeping input order within
// each bucket. A group outside the camp's range has no sheet of its own, so
// such records appear only on the All Participants sheet.
func partition(records []models.Registrant) (map[int][]models.Registrant, []models.Registrant) {
	byGroup := make(map[int][]models.Registrant)
	var unassigned []models.Registrant
	for _, r := range records {
		switch {
		case r.AssignedGroup == nil:
			unassigned = append(unassigned, r)
		case rules.IsValidGroup(*r.AssignedGroup):
			byGroup[*r.AssignedGroup] = append(byGroup[*r.AssignedGroup], r)
		}
	}
	return byGroup, unassigned
}

type sheetWriter struct {
	f          *excelize.File
	titleStyle int
}

// write lays out one sheet: merged title, blank spacer, bold header, data.
func (w sheetWriter) write(sheet, title string, header []string, records []models.Registrant, withGroup bool) error {
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(sheet, "A1", title); err != nil {
		return fmt.Errorf("%s title: %w", sheet, err)
	}
	if err := w.f.MergeCell(sheet, "A1", last+"1"); err != nil {
		return fmt.Errorf("%s merge title: %w", sheet, err)
	}
	if err := w.f.SetCellStyle(sheet, "A1", last+"1", w.titleStyle); err != nil {
		return fmt.Errorf("%s title style: %w", sheet, err)
	}
	if err := w.f.SetRowHeight(sheet, titleRow, 24); err != nil {
		return fmt.Errorf("%s title height: %w", sheet, err)
	}

	if err := writeHeader(w.f, sheet, headerRow, header); err != nil {
		return fmt.Errorf("%s: %w", sheet, err)
	}

	for i, r := range records {
		row := []interface{}{r.FullName, r.Age, r.Gender, r.ChurchLocation}
		if withGroup {
			row = append(row, r.GroupLabel())
		}
		cellName, err := excelize.CoordinatesToCellName(1, firstData+i)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(sheet, cellName, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, firstData+i, err)
		}
	}
	return nil
}
