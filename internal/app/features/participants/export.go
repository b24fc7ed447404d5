// internal/app/features/participants/export.go
package participants

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/camphub/internal/app/features/participants/xlsxutil"
	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/domain/models"
	"go.uber.org/zap"
)

// ServeExport streams every eligible registrant as a workbook with one sheet
// per group plus the unassigned sheet.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	release, ok := h.acquire(w, r, id, "export", "An export is already running. Wait for it to finish.")
	if !ok {
		return
	}
	defer release()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "participants export")
	defer cancel()

	records, err := h.Store.Find(ctx, registrantstore.Filter{MinAge: rules.MinAge}, registrantstore.OrderNewest)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading registrants for export", err, "A database error occurred.", "/participants")
		return
	}

	data, summary, err := h.buildExport(records, id.Name)
	switch {
	case errors.Is(err, xlsxutil.ErrNoRecords):
		h.flash(w, r, xlsxutil.NoRecordsMessage)
		http.Redirect(w, r, "/participants", http.StatusSeeOther)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "build export failed", err, "Could not generate the export.", "/participants")
		return
	}

	h.AuditLog.ParticipantsExported(r.Context(), r, id.UserID, len(records), len(summary.Sheets))
	h.Log.Info("participants exported",
		zap.String("user_id", id.UserID.Hex()),
		zap.Int("rows", len(records)),
		zap.Int("sheets", len(summary.Sheets)))

	setDownloadHeaders(w, xlsxutil.ExportFilename(h.now()), len(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// buildExport turns a panic inside workbook generation into an error.
func (h *Handler) buildExport(records []models.Registrant, creator string) (data []byte, summary xlsxutil.ExportSummary, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("export panicked: %v", p)
		}
	}()
	return xlsxutil.BuildExport(records, xlsxutil.ExportOptions{
		EventName: h.Config.EventName,
		Creator:   creator,
		Now:       h.now(),
	})
}
