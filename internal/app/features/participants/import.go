// internal/app/features/participants/import.go
package participants

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dalemusser/camphub/internal/app/features/participants/xlsxutil"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// multipart framing on top of the file itself
const formOverhead = 64 << 10

const tooLargeMessage = "File is too large. Maximum size is 5 MB."

type importData struct {
	viewdata.BaseVM

	Filename string
	Result   xlsxutil.ImportResult
}

// importResponse is the JSON shape of an import result.
type importResponse struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	ProcessedRows int      `json:"processedRows"`
	InsertedCount int64    `json:"insertedCount"`
	SkippedCount  int      `json:"skippedCount"`
	Errors        []string `json:"errors"`
	BatchID       string   `json:"batchId,omitempty"`
}

// HandleImport accepts one xlsx upload and imports its first worksheet.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	release, ok := h.acquire(w, r, id, "import", "An import is already running. Wait for it to finish.")
	if !ok {
		return
	}
	defer release()

	r.Body = http.MaxBytesReader(w, r.Body, xlsxutil.MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(xlsxutil.MaxUploadSize); err != nil {
		if isTooLarge(err) {
			h.importFailed(w, r, "", tooLargeMessage)
			return
		}
		h.ErrLog.LogBadRequest(w, r, "parse import form failed", err, "Invalid form data.", "/participants")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.importFailed(w, r, "", "Choose an .xlsx file to import.")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if header.Size > xlsxutil.MaxUploadSize {
		h.importFailed(w, r, name, tooLargeMessage)
		return
	}
	if !isXLSX(header.Header.Get("Content-Type"), name) {
		h.importFailed(w, r, name, "Only .xlsx workbooks can be imported.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "participants import")
	defer cancel()

	res := h.Importer.Process(ctx, file)

	h.AuditLog.ParticipantsImported(r.Context(), r, id.UserID, auditlog.ImportSummary{
		BatchID:   res.BatchID,
		Filename:  name,
		Processed: res.ProcessedRows,
		Inserted:  res.InsertedCount,
		Skipped:   res.SkippedCount,
		Success:   res.Success,
		Message:   res.Message,
	})

	h.respondImport(w, r, name, res)
}

// LimitImportBody caps and parses the upload posted to path before any later
// middleware reads the form. CSRF checks parse the whole multipart body to
// find the token, so the size limit has to be in place ahead of them.
func (h *Handler) LimitImportBody(path string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != path {
				next.ServeHTTP(w, r)
				return
			}
			limit := int64(xlsxutil.MaxUploadSize + formOverhead)
			tooLarge := r.ContentLength > limit
			if !tooLarge {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
				if err := r.ParseMultipartForm(xlsxutil.MaxUploadSize); err != nil {
					tooLarge = isTooLarge(err)
				}
			}
			if tooLarge {
				if _, ok := h.requireAdmin(w, r); !ok {
					return
				}
				h.importFailed(w, r, "", tooLargeMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// importFailed reports a rejection that happened before the workbook was read.
func (h *Handler) importFailed(w http.ResponseWriter, r *http.Request, name, msg string) {
	h.Log.Info("import rejected", zap.String("filename", name), zap.String("reason", msg))
	h.respondImport(w, r, name, xlsxutil.ImportResult{
		Message: "Import failed: " + msg,
		Errors:  []string{msg},
		Kind:    xlsxutil.KindPrecondition,
	})
}

func (h *Handler) respondImport(w http.ResponseWriter, r *http.Request, name string, res xlsxutil.ImportResult) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
		if res.Kind == xlsxutil.KindStore || res.Kind == xlsxutil.KindInternal {
			status = http.StatusInternalServerError
		}
	}

	if wantsJSON(r) {
		errs := res.Errors
		if errs == nil {
			errs = []string{}
		}
		writeJSON(w, status, importResponse{
			Success:       res.Success,
			Message:       res.Message,
			ProcessedRows: res.ProcessedRows,
			InsertedCount: res.InsertedCount,
			SkippedCount:  res.SkippedCount,
			Errors:        errs,
			BatchID:       res.BatchID,
		})
		return
	}

	w.WriteHeader(status)
	templates.Render(w, r, "participants_import", importData{
		BaseVM:   viewdata.NewBaseVM(r, "Import Results", "/participants"),
		Filename: name,
		Result:   res,
	})
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// isXLSX accepts the spreadsheet MIME type. Some browsers send
// application/octet-stream for .xlsx, so the extension decides then.
func isXLSX(contentType, filename string) bool {
	isExt := strings.EqualFold(filepath.Ext(filename), ".xlsx")
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case xlsxutil.ContentType:
		return true
	case "application/octet-stream":
		return isExt
	default:
		return false
	}
}
