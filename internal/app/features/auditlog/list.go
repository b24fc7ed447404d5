// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dalemusser/camphub/internal/app/store/audit"
	"github.com/dalemusser/camphub/internal/app/system/paging"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ServeList handles GET /activity with optional category, event_type,
// start_date, end_date and start (1-based row) parameters.
// Unknown filter values are ignored.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	category := query.Get(r, "category")
	if !validCategory(category) {
		category = ""
	}
	eventType := query.Get(r, "event_type")
	if !validEventType(eventType) {
		eventType = ""
	}
	startDate := query.Get(r, "start_date")
	endDate := query.Get(r, "end_date")
	start := paging.ParseStart(r)

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     paging.PageSize,
		Skip:      paging.Skip(start),
	}
	if t, err := time.Parse(dateLayout, startDate); err == nil {
		filter.Since = &t
	} else {
		startDate = ""
	}
	if t, err := time.Parse(dateLayout, endDate); err == nil {
		// whole end day included
		until := t.AddDate(0, 0, 1)
		filter.Until = &until
	} else {
		endDate = ""
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error querying audit events", err, "A database error occurred.", "/dashboard")
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error counting audit events", err, "A database error occurred.", "/dashboard")
		return
	}

	names := h.resolveNames(r, events)

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			Timestamp:  e.Timestamp,
			Category:   e.Category,
			EventLabel: eventLabel(e.EventType),
			IP:         e.IP,
			Success:    e.Success,
			Reason:     e.FailureReason,
			Details:    sortedDetails(e.Details),
		}
		if e.ActorID != nil {
			item.ActorName = nameOr(names, *e.ActorID)
		}
		if e.UserID != nil {
			item.TargetName = nameOr(names, *e.UserID)
		}
		items = append(items, item)
	}

	page := paging.ComputeRange(start, len(items), total)
	link := func(at int) string {
		q := url.Values{}
		for k, v := range map[string]string{"category": category, "event_type": eventType, "start_date": startDate, "end_date": endDate} {
			if v != "" {
				q.Set(k, v)
			}
		}
		q.Set("start", strconv.Itoa(at))
		return "/activity?" + q.Encode()
	}

	templates.Render(w, r, "audit_list", listData{
		BaseVM:     viewdata.NewPage(w, r, "Activity", "/dashboard"),
		Items:      items,
		Category:   category,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
		Page:       page,
		PrevURL:    link(page.PrevStart),
		NextURL:    link(page.NextStart),
	})
}

// resolveNames batch-loads the names of every actor and target in events.
// A lookup failure is logged and leaves the hex IDs in place.
func (h *Handler) resolveNames(r *http.Request, events []audit.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; !ok {
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	for _, e := range events {
		add(e.ActorID)
		add(e.UserID)
	}

	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 || h.Users == nil {
		return names
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "activity names")
	defer cancel()
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to fetch user names for activity log", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names
}

func nameOr(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if n := names[id]; n != "" {
		return n
	}
	return id.Hex()
}
