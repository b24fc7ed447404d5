package dashboard

import (
	"testing"

	"github.com/dalemusser/camphub/internal/app/store/audit"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		event audit.Event
		want  string
	}{
		{
			name: "import",
			event: audit.Event{EventType: audit.EventParticipantsImported, Success: true,
				Details: map[string]string{"processed": "2", "inserted": "1", "skipped": "1"}},
			want: "1 of 2 rows saved, 1 skipped",
		},
		{
			name: "export",
			event: audit.Event{EventType: audit.EventParticipantsExported, Success: true,
				Details: map[string]string{"rows": "7", "sheets": "3"}},
			want: "7 rows on 3 sheets",
		},
		{
			name:  "failure reason wins",
			event: audit.Event{EventType: audit.EventGroupsAssigned, FailureReason: "store offline"},
			want:  "store offline",
		},
		{
			name:  "unknown event",
			event: audit.Event{EventType: "something_else", Success: true},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarize(tt.event); got != tt.want {
				t.Errorf("summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	if got := describe(audit.Event{EventType: audit.EventGroupsAssigned}); got != "Groups assigned" {
		t.Errorf("describe() = %q", got)
	}
	if got := describe(audit.Event{EventType: "custom"}); got != "custom" {
		t.Errorf("describe() fallback = %q", got)
	}
}
