// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/camphub/internal/app/features/errors"
	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/authz"
	"github.com/dalemusser/camphub/internal/app/system/groupview"
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

	Tabs       []groupview.Tab
	Active     groupview.Selector
	Rows       []models.Registrant
	ShowGroup  bool
	CanAssign  bool
	Unassigned int
}

// ServeGroups handles GET /groups?tab=all|1..5|unassigned.
// An unknown tab redirects to the "all" tab.
func (h *Handler) ServeGroups(w http.ResponseWriter, r *http.Request) {
	sel, err := groupview.ParseSelector(query.Get(r, "tab"))
	if err != nil {
		h.Log.Debug("unknown group tab", zap.String("tab", r.URL.Query().Get("tab")))
		http.Redirect(w, r, "/groups", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	records, err := h.Store.Find(ctx, registrantstore.Filter{MinAge: rules.MinAge}, registrantstore.OrderName)
	if err != nil {
		uierrors.RenderServerError(w, r, "A database error occurred.", "/dashboard")
		h.Log.Error("database error listing registrants for groups", zap.Error(err))
		return
	}

	tabs := groupview.Tabs(records, sel)
	data := listData{
		BaseVM:    viewdata.NewPage(w, r, sel.Label(), "/dashboard"),
		Tabs:      tabs,
		Active:    sel,
		Rows:      groupview.Filter(records, sel),
		ShowGroup: sel.Kind == groupview.KindAll,
		CanAssign: authz.IsAdmin(r),
	}
	if last := tabs[len(tabs)-1]; last.Key == groupview.Unassigned.String() {
		data.Unassigned = last.Count
	}

	templates.Render(w, r, "groups_list", data)
}
