// internal/app/features/auditlog/types.go
package auditlog

import (
	"sort"
	"time"

	"github.com/dalemusser/camphub/internal/app/store/audit"
	"github.com/dalemusser/camphub/internal/app/system/paging"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
)

// listItem represents a single audit event row for display.
type listItem struct {
	Timestamp  time.Time
	Category   string
	EventLabel string
	ActorName  string // resolved from ActorID
	TargetName string // resolved from UserID
	IP         string
	Success    bool
	Reason     string
	Details    []detail
}

type detail struct {
	Key, Value string
}

// listData is the view model for the activity page.
type listData struct {
	viewdata.BaseVM

	Items []listItem

	// Filters
	Category  string
	EventType string
	StartDate string
	EndDate   string

	// Filter options
	Categories []option
	EventTypes []option

	Page    paging.Range
	PrevURL string
	NextURL string
}

type option struct {
	Value string
	Label string
}

func allCategories() []option {
	return []option{
		{Value: audit.CategoryAuth, Label: "Sign-in"},
		{Value: audit.CategoryData, Label: "Participant data"},
	}
}

var eventLabels = map[string]string{
	audit.EventLoginSuccess:             "Signed in",
	audit.EventLoginFailedUserNotFound:  "Sign-in failed: unknown email",
	audit.EventLoginFailedWrongPassword: "Sign-in failed: wrong password",
	audit.EventLoginFailedUserDisabled:  "Sign-in failed: account disabled",
	audit.EventLoginFailedRateLimit:     "Sign-in failed: too many attempts",
	audit.EventLogout:                   "Signed out",

	audit.EventTemplateDownloaded:   "Template downloaded",
	audit.EventParticipantsImported: "Participants imported",
	audit.EventImportUndone:         "Import undone",
	audit.EventParticipantsExported: "Participants exported",
	audit.EventGroupsAssigned:       "Groups assigned",
	audit.EventRegistrantCreated:    "Registrant added",
	audit.EventUserCreated:          "User created",
}

var categoryEvents = map[string][]string{
	audit.CategoryAuth: {
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
	},
	audit.CategoryData: {
		audit.EventTemplateDownloaded,
		audit.EventParticipantsImported,
		audit.EventImportUndone,
		audit.EventParticipantsExported,
		audit.EventGroupsAssigned,
		audit.EventRegistrantCreated,
		audit.EventUserCreated,
	},
}

func eventLabel(eventType string) string {
	if l, ok := eventLabels[eventType]; ok {
		return l
	}
	return eventType
}

// eventTypesForCategory returns the event types for a category, or all of
// them when category is empty. Unknown categories yield nil.
func eventTypesForCategory(category string) []option {
	var types []string
	switch category {
	case "":
		types = append(append(types, categoryEvents[audit.CategoryAuth]...), categoryEvents[audit.CategoryData]...)
	default:
		types = categoryEvents[category]
	}
	out := make([]option, 0, len(types))
	for _, t := range types {
		out = append(out, option{Value: t, Label: eventLabel(t)})
	}
	return out
}

func validCategory(c string) bool {
	_, ok := categoryEvents[c]
	return ok
}

func validEventType(t string) bool {
	_, ok := eventLabels[t]
	return ok
}

func sortedDetails(m map[string]string) []detail {
	out := make([]detail, 0, len(m))
	for k, v := range m {
		out = append(out, detail{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
