// internal/app/features/participants/list.go
package participants

import (
	"context"
	"net/http"

	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type listData struct {
	viewdata.BaseVM

	Rows       []models.Registrant
	Total      int64
	Unassigned int64
	Query      string
	MinAge     int
	CanEdit    bool
}

// ServeList shows every eligible registrant with the spreadsheet actions.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	q := query.Search(r, "q")
	rows, err := h.Store.Find(ctx, registrantstore.Filter{MinAge: rules.MinAge, Search: q}, registrantstore.OrderNewest)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing registrants", err, "A database error occurred.", "/dashboard")
		return
	}
	unassigned, err := h.Store.Count(ctx, registrantstore.Filter{MinAge: rules.MinAge, Unassigned: true})
	if err != nil {
		h.Log.Warn("count unassigned failed", zap.Error(err))
	}

	id := h.Identity.Identity(r)
	templates.Render(w, r, "participants_list", listData{
		BaseVM:     viewdata.NewPage(w, r, "Participants", "/dashboard"),
		Rows:       rows,
		Total:      int64(len(rows)),
		Unassigned: unassigned,
		Query:      q,
		MinAge:     rules.MinAge,
		CanEdit:    id.HasAdmin,
	})
}
