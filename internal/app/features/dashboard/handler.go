// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/camphub/internal/app/store/audit"
	metricsstore "github.com/dalemusser/camphub/internal/app/store/metrics"
	"github.com/dalemusser/camphub/internal/app/system/authz"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// recentLimit is how many data events the admin dashboard lists.
const recentLimit = 10

type Handler struct {
	DB    *mongo.Database
	Audit *audit.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Audit: audit.New(db),
		Log:   logger,
	}
}

type activityRow struct {
	When    time.Time
	Event   string
	Success bool
	Detail  string
}

type dashboardData struct {
	viewdata.BaseVM
	metricsstore.Counts
	MinAge  int
	Recent  []activityRow
	AsOf    time.Time
	CanEdit bool
}

// ServeDashboard handles GET /dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	_, uname, _, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, h.DB, h.Log)

	data := dashboardData{
		BaseVM:  viewdata.NewPage(w, r, "Dashboard", "/"),
		Counts:  counts,
		MinAge:  rules.MinAge,
		AsOf:    time.Now(),
		CanEdit: authz.IsAdmin(r),
	}

	if data.CanEdit {
		data.Recent = h.recent(ctx)
	}

	h.Log.Debug("dashboard served", zap.String("user", uname), zap.Int64("eligible", counts.Eligible))

	templates.Render(w, r, "dashboard", data)
}

func (h *Handler) recent(ctx context.Context) []activityRow {
	events, err := h.Audit.Recent(ctx, recentLimit)
	if err != nil {
		h.Log.Warn("dashboard: recent activity", zap.Error(err))
		return nil
	}
	rows := make([]activityRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, activityRow{
			When:    e.Timestamp,
			Event:   describe(e),
			Success: e.Success,
			Detail:  summarize(e),
		})
	}
	return rows
}

var eventLabels = map[string]string{
	audit.EventTemplateDownloaded:   "Template downloaded",
	audit.EventParticipantsImported: "Participants imported",
	audit.EventImportUndone:         "Import undone",
	audit.EventParticipantsExported: "Participants exported",
	audit.EventGroupsAssigned:       "Groups assigned",
	audit.EventRegistrantCreated:    "Participant registered",
	audit.EventUserCreated:          "Account created",
}

// summarize renders the few details worth a glance on the dashboard.
func summarize(e audit.Event) string {
	if !e.Success && e.FailureReason != "" {
		return e.FailureReason
	}
	d := e.Details
	switch e.EventType {
	case audit.EventParticipantsImported:
		return d["inserted"] + " of " + d["processed"] + " rows saved, " + d["skipped"] + " skipped"
	case audit.EventImportUndone:
		return d["deleted"] + " removed from batch " + d["batch_id"]
	case audit.EventParticipantsExported:
		return d["rows"] + " rows on " + d["sheets"] + " sheets"
	case audit.EventGroupsAssigned:
		return d["assigned"] + " placed"
	case audit.EventRegistrantCreated:
		return d["church_location"]
	case audit.EventUserCreated:
		return d["role"]
	}
	return ""
}

func describe(e audit.Event) string {
	if l, ok := eventLabels[e.EventType]; ok {
		return l
	}
	return e.EventType
}
