// internal/app/features/participants/xlsxutil/limits.go
package xlsxutil

import "time"

// Upload size and row limits for spreadsheet imports.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 5000
)

// ContentType is the only MIME type accepted for uploads and sent for downloads.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TemplateFilename is the download name of the blank import template.
const TemplateFilename = "family-camp-import-template.xlsx"

// DefaultTemplateValidationRows is how many data rows below the header carry
// the dropdown constraints in a generated template.
const DefaultTemplateValidationRows = 1000

// ExportFilename returns the dated download name for an export produced on day.
func ExportFilename(day time.Time) string {
	return "family-camp-export-" + day.Format("2006-01-02") + ".xlsx"
}

// Header is the exact first row every import file must carry, and the first
// row of every generated template.
var Header = []string{"Full Name", "Age", "Gender", "Location"}

// column widths shared by the template and the export sheets
var columnWidths = []float64{30, 10, 15, 25, 15}
