// internal/app/features/participants/template.go
package participants

import (
	"net/http"

	"github.com/dalemusser/camphub/internal/app/features/participants/xlsxutil"
	"go.uber.org/zap"
)

// ServeTemplate streams the blank import workbook.
func (h *Handler) ServeTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	data, err := xlsxutil.BuildTemplate(xlsxutil.TemplateOptions{ValidationRows: h.Config.ValidationRows})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build import template failed", err, "Could not generate the template.", "/participants")
		return
	}

	h.AuditLog.TemplateDownloaded(r.Context(), r, id.UserID)
	h.Log.Info("import template downloaded", zap.String("user_id", id.UserID.Hex()), zap.Int("bytes", len(data)))

	setDownloadHeaders(w, xlsxutil.TemplateFilename, len(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
