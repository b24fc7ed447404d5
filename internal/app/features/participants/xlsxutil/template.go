// internal/app/features/participants/xlsxutil/template.go
package xlsxutil

import (
	"fmt"
	"strings"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/xuri/excelize/v2"
)

// TemplateSheet names the single worksheet of the import template.
const TemplateSheet = "Registrants Template"

// TemplateOptions tunes BuildTemplate. The zero value is usable.
type TemplateOptions struct {
	// ValidationRows is how many rows under the header get dropdowns.
	// Zero means DefaultTemplateValidationRows.
	ValidationRows int
}

// LocationErrorMessage is the message Excel shows when a value outside the
// location list is typed into the template.
func LocationErrorMessage() string {
	return "Please select a location from the dropdown list. Allowed values are: " +
		strings.Join(rules.Locations, ", ") + "."
}

// BuildTemplate renders the blank import workbook: a bold header row, no data,
// and list validations on the Location and Gender columns. Nothing is returned
// unless the whole workbook serialized.
func BuildTemplate(opts TemplateOptions) ([]byte, error) {
	rows := opts.ValidationRows
	if rows <= 0 {
		rows = DefaultTemplateValidationRows
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return nil, fmt.Errorf("name template sheet: %w", err)
	}

	if err := writeHeader(f, TemplateSheet, 1, Header); err != nil {
		return nil, err
	}

	last := rows + 1

	loc := excelize.NewDataValidation(true)
	loc.SetSqref(fmt.Sprintf("D2:D%d", last))
	if err := loc.SetDropList(rules.Locations); err != nil {
		return nil, fmt.Errorf("location drop list: %w", err)
	}
	loc.SetError(excelize.DataValidationErrorStyleStop, "Invalid Location", LocationErrorMessage())
	if err := f.AddDataValidation(TemplateSheet, loc); err != nil {
		return nil, fmt.Errorf("add location validation: %w", err)
	}

	gen := excelize.NewDataValidation(true)
	gen.SetSqref(fmt.Sprintf("C2:C%d", last))
	if err := gen.SetDropList(rules.Genders); err != nil {
		return nil, fmt.Errorf("gender drop list: %w", err)
	}
	gen.SetError(excelize.DataValidationErrorStyleStop, "Invalid Gender",
		"Please select "+strings.Join(rules.Genders, " or ")+".")
	if err := f.AddDataValidation(TemplateSheet, gen); err != nil {
		return nil, fmt.Errorf("add gender validation: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

// writeHeader writes labels into row as a bold header and sizes the columns.
func writeHeader(f *excelize.File, sheet string, row int, labels []string) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(labels), row)
	if err != nil {
		return err
	}

	vals := make([]interface{}, len(labels))
	for i, l := range labels {
		vals[i] = l
	}
	if err := f.SetSheetRow(sheet, start, &vals); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, start, end, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i := range labels {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, columnWidths[i]); err != nil {
			return fmt.Errorf("column width %s: %w", col, err)
		}
	}
	return nil
}
